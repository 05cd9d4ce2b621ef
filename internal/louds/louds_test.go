// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package louds

import (
	"bytes"
	"testing"

	"github.com/gaissmai/marisa/internal/cache"
	"github.com/stretchr/testify/require"
)

func keysOf(strs ...string) []Key {
	out := make([]Key, len(strs))
	for i, s := range strs {
		out[i] = Key{Bytes: []byte(s), Weight: 1, ID: i}
	}
	return out
}

func defaultConfig() Config {
	return Config{NumTries: 3, NodeOrder: OrderLabel, CacheLevel: cache.LevelNormal, TailPref: TailAuto}
}

// lookup walks the trie from its root, following Child transitions,
// returning the terminal node reached (if any) for an exact match.
func lookup(t *LoudsTrie, key []byte) (node int, ok bool) {
	cur := t.Root()
	rest := key
	for len(rest) > 0 {
		child, consumed, found := t.Child(cur, rest)
		if !found {
			return 0, false
		}
		cur = child
		rest = rest[consumed:]
	}
	if !t.IsTerminal(cur) {
		return 0, false
	}
	return cur, true
}

func TestBuildTwoKeys(t *testing.T) {
	keys := keysOf("cat", "car")
	trie, idMap, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)
	require.Len(t, idMap, 2)

	for _, k := range keys {
		node, ok := lookup(trie, k.Bytes)
		require.Truef(t, ok, "lookup %q", k.Bytes)
		require.Equal(t, k.Bytes, trie.KeyBytes(node))
	}

	_, ok := lookup(trie, []byte("ca"))
	require.False(t, ok, "prefix alone must not be a hit")

	_, ok = lookup(trie, []byte("cats"))
	require.False(t, ok, "superstring must not be a hit")
}

func TestBuildSevenKeys(t *testing.T) {
	// The seven-key scenario from the dictionary's concrete test fixtures:
	// a mix of plain extensions, a collapsed single-child suffix, and a
	// key that is simultaneously a terminal and a prefix of another.
	keys := keysOf("a", "ab", "abc", "abd", "b", "bcdefgh", "bcdefghij")
	trie, idMap, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)
	require.Len(t, idMap, 7)

	seen := map[int]bool{}
	for _, k := range keys {
		node, ok := lookup(trie, k.Bytes)
		require.Truef(t, ok, "lookup %q", k.Bytes)
		require.Equal(t, k.Bytes, trie.KeyBytes(node))
		require.False(t, seen[idMap[k.ID]], "key ids must be unique")
		seen[idMap[k.ID]] = true
	}

	_, ok := lookup(trie, []byte("bcdefg"))
	require.False(t, ok)
}

func TestBuildFifteenKeys(t *testing.T) {
	words := []string{
		"apple", "app", "application", "apply", "banana", "band", "bandana",
		"bandit", "can", "cane", "cannot", "cat", "catalog", "dog", "dogma",
	}
	keys := keysOf(words...)
	trie, idMap, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	for _, k := range keys {
		node, ok := lookup(trie, k.Bytes)
		require.Truef(t, ok, "lookup %q", k.Bytes)
		require.Equal(t, k.Bytes, trie.KeyBytes(node))

		byID, ok := trie.NodeForKeyID(idMap[k.ID])
		require.True(t, ok)
		require.Equal(t, node, byID)
	}
}

func TestChildrenEnumeratesAllSiblings(t *testing.T) {
	keys := keysOf("aa", "ab", "ac", "ad")
	trie, _, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	node, _, ok := trie.Child(trie.Root(), []byte("a"))
	require.True(t, ok)

	children := trie.Children(node)
	require.Len(t, children, 4)

	var labels [][]byte
	for _, c := range children {
		labels = append(labels, trie.Label(c))
	}
	require.ElementsMatch(t, [][]byte{{'a'}, {'b'}, {'c'}, {'d'}}, labels)
}

func TestParentRoundTrips(t *testing.T) {
	keys := keysOf("x", "xy", "xyz", "xyzw", "q")
	trie, _, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	for _, k := range keys {
		node, ok := lookup(trie, k.Bytes)
		require.True(t, ok)
		for n, steps := node, 0; n != trie.Root(); n, steps = trie.Parent(n), steps+1 {
			require.Less(t, steps, 100, "Parent must terminate at the root")
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	keys := keysOf("alpha", "alphabet", "beta", "gamma", "gammaray", "delta")
	trie, _, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = trie.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := ReadFrom(&buf)
	require.NoError(t, err)

	for _, k := range keys {
		node, ok := lookup(loaded, k.Bytes)
		require.Truef(t, ok, "lookup %q after round trip", k.Bytes)
		require.Equal(t, k.Bytes, loaded.KeyBytes(node))
	}
}

func TestMapRoundTrip(t *testing.T) {
	keys := keysOf("one", "two", "three", "onetwothree")
	trie, _, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = trie.WriteTo(&buf)
	require.NoError(t, err)

	mapped, _, err := Map(buf.Bytes(), 0)
	require.NoError(t, err)

	for _, k := range keys {
		node, ok := lookup(mapped, k.Bytes)
		require.Truef(t, ok, "lookup %q via mmap", k.Bytes)
		require.Equal(t, k.Bytes, mapped.KeyBytes(node))
	}
}

func TestBuildRejectsDuplicateKey(t *testing.T) {
	keys := keysOf("dup", "dup")
	_, _, err := Build(keys, defaultConfig(), 0)
	require.Error(t, err)
}

func TestBuildRejectsEmptyKeyset(t *testing.T) {
	_, _, err := Build(nil, defaultConfig(), 0)
	require.Error(t, err)
}

func TestBuildRejectsOutOfRangeNumTries(t *testing.T) {
	cfg := defaultConfig()
	cfg.NumTries = 0
	_, _, err := Build(keysOf("a"), cfg, 0)
	require.Error(t, err)

	cfg.NumTries = MaxTries + 1
	_, _, err = Build(keysOf("a"), cfg, 0)
	require.Error(t, err)
}

func TestChildConsultsCacheForPlainEdges(t *testing.T) {
	keys := keysOf("aa", "ab", "ac")
	trie, _, err := Build(keys, defaultConfig(), 0)
	require.NoError(t, err)

	root := trie.Root()
	want, _, ok := trie.Child(root, []byte("a"))
	require.True(t, ok)

	child, base, _, hit := trie.cacheTbl.Lookup(uint32(root), 'a')
	require.True(t, hit, "plain single-byte edge should have been cached")
	require.Equal(t, uint32(want), child)
	require.EqualValues(t, 'a', base)
}

func TestWeightOrderPutsHeaviestSiblingFirst(t *testing.T) {
	keys := []Key{
		{Bytes: []byte("az"), Weight: 1, ID: 0},
		{Bytes: []byte("bz"), Weight: 100, ID: 1},
	}
	cfg := defaultConfig()
	cfg.NodeOrder = OrderWeight
	trie, _, err := Build(keys, cfg, 0)
	require.NoError(t, err)

	children := trie.Children(trie.Root())
	require.Len(t, children, 2)
	require.Equal(t, []byte("b"), trie.Label(children[0]))
}
