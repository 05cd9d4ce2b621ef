// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package trieerr holds the sentinel errors shared by the internal trie
// layers. The top-level marisa package wraps these into a single
// *marisa.Error with a Kind, so callers never import this package directly;
// it exists so that internal/bitvector, internal/flatvector, internal/tail,
// internal/louds and internal/ioblob can all report the same taxonomy without
// importing the root package (which would create an import cycle).
package trieerr

import "errors"

var (
	// ErrInvalidInput reports unusable build input: an empty keyset, a
	// duplicate key, num_tries out of range, an empty tail suffix, a zero
	// byte under forced text tail mode, or a flatvector value wider than
	// 32 bits.
	ErrInvalidInput = errors.New("marisa: invalid input")

	// ErrInvalidFormat reports a corrupt or incompatible on-disk image:
	// bad magic, a truncated blob, an inconsistent rank index.
	ErrInvalidFormat = errors.New("marisa: invalid format")

	// ErrIO reports a failure from the underlying Reader/Writer/Mapper.
	ErrIO = errors.New("marisa: io error")

	// ErrOutOfRange reports an index or key id outside the valid range.
	ErrOutOfRange = errors.New("marisa: out of range")

	// ErrNotBuilt reports an operation attempted on a Trie that has not
	// been built or loaded yet.
	ErrNotBuilt = errors.New("marisa: trie not built")
)
