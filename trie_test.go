// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildKeyset(words ...string) *Keyset {
	ks := NewKeyset()
	for _, w := range words {
		ks.Add([]byte(w), 1)
	}
	return ks
}

func TestLookupTwoKeys(t *testing.T) {
	trie, err := Build(buildKeyset("a", "app"))
	require.NoError(t, err)

	id1, ok := trie.Lookup([]byte("app"))
	require.True(t, ok)
	id2, ok := trie.Lookup([]byte("a"))
	require.True(t, ok)
	require.NotEqual(t, id1, id2)

	_, ok = trie.Lookup([]byte("ap"))
	require.False(t, ok)
}

func sevenKeyWords() []string {
	return []string{"a", "app", "apple", "application", "apply", "banana", "band"}
}

func TestLookupSevenKeys(t *testing.T) {
	words := sevenKeyWords()
	trie, err := Build(buildKeyset(words...))
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, w := range words {
		id, ok := trie.Lookup([]byte(w))
		require.Truef(t, ok, "lookup %q", w)
		require.GreaterOrEqual(t, id, 0)
		require.Less(t, id, 7)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestCommonPrefixSearchSevenKeys(t *testing.T) {
	trie, err := Build(buildKeyset(sevenKeyWords()...))
	require.NoError(t, err)

	agent := trie.CommonPrefixSearch([]byte("applications"))
	var got []string
	for agent.Next() {
		got = append(got, string(agent.Key()))
	}
	require.Equal(t, []string{"a", "app", "application"}, got)
}

func TestPredictiveSearchSevenKeys(t *testing.T) {
	trie, err := Build(buildKeyset(sevenKeyWords()...))
	require.NoError(t, err)

	agent := trie.PredictiveSearch([]byte("app"))
	var got []string
	var ids []int
	for agent.Next() {
		got = append(got, string(agent.Key()))
		ids = append(ids, agent.ID())
	}
	require.Equal(t, []string{"app", "apple", "application", "apply"}, got)
	require.True(t, sort.IntsAreSorted(ids), "expected ascending key-id order, got %v", ids)
}

func TestReverseLookupRoundTrip(t *testing.T) {
	words := sevenKeyWords()
	trie, err := Build(buildKeyset(words...))
	require.NoError(t, err)

	for _, w := range words {
		id, ok := trie.Lookup([]byte(w))
		require.True(t, ok)
		back, err := trie.ReverseLookup(id)
		require.NoError(t, err)
		require.Equal(t, w, string(back))
	}

	_, err = trie.ReverseLookup(-1)
	require.Error(t, err)
	_, err = trie.ReverseLookup(len(words))
	require.Error(t, err)
}

func fifteenWords() []string {
	return []string{
		"a", "app", "apple", "application", "apply", "banana", "band", "bank",
		"can", "cat", "dog", "door", "test", "testing", "trie",
	}
}

func TestSaveLoadFifteenWords(t *testing.T) {
	words := fifteenWords()
	trie, err := Build(buildKeyset(words...))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "dict.marisa")
	require.NoError(t, Save(trie, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte(magicHeader)))

	loaded, err := Load(path)
	require.NoError(t, err)
	for _, w := range words {
		_, ok := loaded.Lookup([]byte(w))
		require.Truef(t, ok, "lookup %q after load", w)
	}
}

func TestCrossReaderEquivalence(t *testing.T) {
	words := fifteenWords()
	trie, err := Build(buildKeyset(words...))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "dict.marisa")
	require.NoError(t, Save(trie, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	read, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	mapped, err := Map(data)
	require.NoError(t, err)

	mmapped, err := Mmap(path)
	require.NoError(t, err)
	defer mmapped.Close()

	for _, w := range words {
		want, ok := trie.Lookup([]byte(w))
		require.True(t, ok)

		for _, other := range []*Trie{loaded, read, mapped, mmapped} {
			got, ok := other.Lookup([]byte(w))
			require.True(t, ok)
			require.Equal(t, want, got)
		}
	}
}

func TestBuildRejectsDuplicateKey(t *testing.T) {
	_, err := Build(buildKeyset("dup", "dup"))
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, KindInvalidInput, merr.Kind)
}

func TestStatReportsKeyAndNodeCounts(t *testing.T) {
	words := fifteenWords()
	trie, err := Build(buildKeyset(words...), WithNumTries(2))
	require.NoError(t, err)

	stat, err := trie.Stat()
	require.NoError(t, err)
	require.Equal(t, len(words), stat.NumKeys)
	require.Equal(t, 2, stat.NumTries)
	require.NotEmpty(t, stat.Levels)
	require.Greater(t, stat.IOSize, int64(0))

	size, err := trie.Size()
	require.NoError(t, err)
	require.Equal(t, stat.IOSize, size)
}
