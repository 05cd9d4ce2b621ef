// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package marisa implements a static, read-mostly dictionary engine built
// around a recursively-nested LOUDS (Level-Order Unary Degree Sequence)
// trie with tail-suffix sharing. It stores a set of byte strings in
// near-minimal space and answers four query classes at O(length) cost:
// lookup, reverse-lookup, common-prefix-search, and predictive-search.
//
// A Trie is built once from a Keyset and is immutable afterwards: there is
// no insert or delete on a built trie, and a built Trie is safe for
// concurrent readers, provided each goroutine uses its own Agent for
// common-prefix-search and predictive-search (an Agent carries per-call
// cursor state and must not be shared).
//
// The trie's name comes from the dictionary library whose 16-byte magic
// header "We love Marisa.\n" this module's files also begin with. The
// layout after the header is this module's own (an explicit tail mode
// field, a one-byte marker ahead of a nested trie, 8-byte rank entries),
// so files are not interchangeable with that library's.
package marisa

import (
	"io"

	"github.com/gaissmai/marisa/internal/louds"
	"github.com/gaissmai/marisa/internal/trieerr"
)

// Trie is the public facade over one built dictionary: the top-level
// LoudsTrie, its build configuration, and (when loaded via Mmap) the
// backing memory map.
type Trie struct {
	root   *louds.LoudsTrie
	cfg    BuildConfig
	keyIDs []int // original Keyset position -> assigned key-id
	closer func() error
}

// Build constructs a Trie from keyset. Without opts it builds a single,
// uncached trie level ordered by ascending label, with auto tail mode.
func Build(keyset *Keyset, opts ...Option) (*Trie, error) {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	root, idMap, err := louds.Build(keyset.toInternal(), cfg.toInternal(), 0)
	if err != nil {
		return nil, wrapErr(err)
	}

	return &Trie{root: root, cfg: cfg, keyIDs: idMap}, nil
}

// KeyIDForInput returns the key-id assigned to the i-th key added to the
// Keyset this trie was built from.
func (t *Trie) KeyIDForInput(i int) int { return t.keyIDs[i] }

// NumKeys returns the number of distinct keys stored.
func (t *Trie) NumKeys() int {
	if t.root == nil {
		return 0
	}
	return t.root.NumKeys()
}

// NumNodes returns the total node count of the top-level trie level.
func (t *Trie) NumNodes() int {
	if t.root == nil {
		return 0
	}
	return t.root.NumNodes()
}

// Stat summarizes the built dictionary for introspection and the CLI's
// dump/build reporting.
type Stat struct {
	NumKeys    int
	NumNodes   int
	IOSize     int64
	NumTries   int
	CacheLevel CacheLevel
	Levels     []louds.Stat
}

// Stat reports summary statistics across every recursion level.
func (t *Trie) Stat() (Stat, error) {
	if t.root == nil {
		return Stat{}, wrapErr(trieerr.ErrNotBuilt)
	}
	levels := t.root.Collect()
	var numNodes int
	for _, l := range levels {
		numNodes += l.NumNodes
	}
	size, err := t.Size()
	if err != nil {
		return Stat{}, err
	}
	return Stat{
		NumKeys:    t.root.NumKeys(),
		NumNodes:   numNodes,
		IOSize:     size,
		NumTries:   t.cfg.NumTries,
		CacheLevel: t.cfg.CacheLevel,
		Levels:     levels,
	}, nil
}

// Size reports the exact byte size the trie would occupy on disk if saved
// now, without actually writing anywhere.
func (t *Trie) Size() (int64, error) {
	n, err := t.WriteTo(io.Discard)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Lookup reports whether key is stored, and if so its stable key-id.
func (t *Trie) Lookup(key []byte) (id int, ok bool) {
	if t.root == nil {
		return 0, false
	}
	node := t.root.Root()
	rest := key
	for len(rest) > 0 {
		child, consumed, found := t.root.Child(node, rest)
		if !found {
			return 0, false
		}
		node = child
		rest = rest[consumed:]
	}
	if !t.root.IsTerminal(node) {
		return 0, false
	}
	return t.root.KeyID(node), true
}

// ReverseLookup reconstructs the full key bytes for id.
func (t *Trie) ReverseLookup(id int) ([]byte, error) {
	if t.root == nil {
		return nil, wrapErr(trieerr.ErrNotBuilt)
	}
	if id < 0 || id >= t.root.NumKeys() {
		return nil, newError(KindOutOfRange, int64(id), trieerr.ErrOutOfRange)
	}
	node, ok := t.root.NodeForKeyID(id)
	if !ok {
		return nil, newError(KindOutOfRange, int64(id), trieerr.ErrOutOfRange)
	}
	return t.root.KeyBytes(node), nil
}

// Close releases any resources the trie holds (a memory map and/or open
// file descriptor for Mmap-loaded tries). It is a no-op for tries built or
// loaded via Read/Load.
func (t *Trie) Close() error {
	if t.closer == nil {
		return nil
	}
	closer := t.closer
	t.closer = nil
	return closer()
}
