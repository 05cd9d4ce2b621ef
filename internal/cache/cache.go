// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package cache implements the trie's hot-transition short-circuit table:
// a direct-mapped hash table of 12-byte records that lets a handful of
// frequently traversed (parent-node, first-label-byte) transitions skip the
// LOUDS child/select walk entirely.
//
// Per the dictionary's design notes on avoiding C++-style union punning,
// each field is its own explicit, independently typed member rather than a
// packed union; the hash itself is computed with xxhash (github.com/cespare/
// xxhash/v2, the hashing library the retrieval pack's rpcpool/
// yellowstone-faithful compactindex format uses for its own bucket lookup)
// instead of a hand-rolled multiplicative hash.
package cache

import "github.com/cespare/xxhash/v2"

// Level selects the cache table size, trading memory for hit rate.
type Level uint8

const (
	LevelNone Level = iota
	LevelTiny
	LevelSmall
	LevelNormal
	LevelLarge
	LevelHuge
)

// bits returns the log2 table size for a cache level.
func (l Level) bits() int {
	switch l {
	case LevelTiny:
		return 8
	case LevelSmall:
		return 10
	case LevelNormal:
		return 12
	case LevelLarge:
		return 14
	case LevelHuge:
		return 16
	default:
		return 0
	}
}

// Entry is the fixed 12-byte cache record. Label doubles as the collision
// check: two different first-label-bytes under the same parent can hash to
// the same slot, and Label lets Lookup tell them apart without growing the
// record past 12 bytes.
type Entry struct {
	Parent uint32
	Child  uint32
	Base   uint8
	Label  uint8
	Extra  uint16
}

// Cache is a direct-mapped table of trie-transition shortcuts.
type Cache struct {
	level Level
	table []Entry
	valid []bool
}

// New allocates an empty cache table for the given level. LevelNone yields a
// cache that never hits, used when the trie is built with caching disabled.
func New(level Level) *Cache {
	n := 1 << level.bits()
	if level == LevelNone {
		n = 0
	}
	return &Cache{
		level: level,
		table: make([]Entry, n),
		valid: make([]bool, n),
	}
}

// Entries returns the occupied cache slots as a compact list, suitable for
// serializing only what the table actually holds instead of its full
// (mostly empty) backing array. Rehydrate reconstructs a Cache from this
// list.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.table))
	for i, v := range c.valid {
		if v {
			out = append(out, c.table[i])
		}
	}
	return out
}

// Rehydrate reconstructs a Cache for level by re-inserting each entry into
// a freshly allocated table. Used when loading a serialized trie, where
// only the occupied entries were persisted.
func Rehydrate(level Level, entries []Entry) *Cache {
	c := New(level)
	for _, e := range entries {
		c.Insert(e.Parent, e.Label, e.Child, e.Base, e.Extra)
	}
	return c
}

// Level reports the configured cache level.
func (c *Cache) Level() Level { return c.level }

func (c *Cache) slot(parent uint32, label byte) int {
	if len(c.table) == 0 {
		return -1
	}
	h := xxhash.Sum64(append(make([]byte, 0, 5), byte(parent), byte(parent>>8), byte(parent>>16), byte(parent>>24), label))
	return int(h & uint64(len(c.table)-1))
}

// Insert records a (parent, label) -> (child, base, extra) transition,
// overwriting whatever previously occupied the slot.
func (c *Cache) Insert(parent uint32, label byte, child uint32, base uint8, extra uint16) {
	s := c.slot(parent, label)
	if s < 0 {
		return
	}
	c.table[s] = Entry{Parent: parent, Child: child, Base: base, Label: label, Extra: extra}
	c.valid[s] = true
}

// Lookup returns the cached child/base/extra for (parent, label), and
// whether the slot actually holds that exact transition (hash collisions
// and level-none caches both report a miss).
func (c *Cache) Lookup(parent uint32, label byte) (child uint32, base uint8, extra uint16, ok bool) {
	s := c.slot(parent, label)
	if s < 0 || !c.valid[s] {
		return 0, 0, 0, false
	}
	e := c.table[s]
	if e.Parent != parent || e.Label != label {
		return 0, 0, 0, false
	}
	return e.Child, e.Base, e.Extra, true
}
