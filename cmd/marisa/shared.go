// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/gaissmai/marisa"
)

// openDict loads dict via Mmap so large dictionaries are shared read-only
// with the OS page cache rather than copied into the process; the caller
// must Close the returned Trie once done.
func openDict(path string) (*marisa.Trie, error) {
	t, err := marisa.Mmap(path)
	if err != nil {
		return nil, fmt.Errorf("marisa: open %s: %w", path, err)
	}
	return t, nil
}
