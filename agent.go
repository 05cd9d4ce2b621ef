// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import (
	"bytes"

	"github.com/gaissmai/marisa/internal/louds"
)

type searchMode uint8

const (
	modeCommonPrefix searchMode = iota
	modePredictive
)

// Agent is a resumable query cursor, used by common-prefix-search and
// predictive-search: each call to Next advances the search and reports
// whether it found another match, whose id and bytes are then available
// via ID and Key. An Agent must not be shared between goroutines.
type Agent struct {
	trie  *Trie
	mode  searchMode
	query []byte

	// common-prefix-search cursor
	node        int
	consumed    int
	checkedNode bool

	// predictive-search cursor
	started bool
	queue   []int

	exhausted bool
	id        int
	key       []byte
}

// CommonPrefixSearch returns an Agent that enumerates every stored key that
// is a byte-prefix of query, in ascending length order.
func (t *Trie) CommonPrefixSearch(query []byte) *Agent {
	return &Agent{trie: t, mode: modeCommonPrefix, query: query, node: t.root.Root()}
}

// PredictiveSearch returns an Agent that enumerates every stored key of
// which query is a byte-prefix, in ascending key-id order.
func (t *Trie) PredictiveSearch(query []byte) *Agent {
	return &Agent{trie: t, mode: modePredictive, query: query}
}

// Next advances the agent to the next match. It returns false once the
// search is exhausted; ID and Key are only valid after a call that returned
// true.
func (a *Agent) Next() bool {
	if a.exhausted {
		return false
	}
	switch a.mode {
	case modePredictive:
		return a.nextPredictive()
	default:
		return a.nextCommonPrefix()
	}
}

// ID returns the key-id of the most recent match.
func (a *Agent) ID() int { return a.id }

// Key returns the key bytes of the most recent match.
func (a *Agent) Key() []byte { return a.key }

func (a *Agent) nextCommonPrefix() bool {
	root := a.trie.root
	for {
		if !a.checkedNode {
			a.checkedNode = true
			if root.IsTerminal(a.node) {
				a.id = root.KeyID(a.node)
				a.key = root.KeyBytes(a.node)
				return true
			}
		}
		if a.consumed >= len(a.query) {
			a.exhausted = true
			return false
		}
		child, n, ok := root.Child(a.node, a.query[a.consumed:])
		if !ok {
			a.exhausted = true
			return false
		}
		a.node = child
		a.consumed += n
		a.checkedNode = false
	}
}

func (a *Agent) nextPredictive() bool {
	root := a.trie.root
	if !a.started {
		a.started = true
		start, ok := predictiveRoot(root, a.query)
		if !ok {
			a.exhausted = true
			return false
		}
		a.queue = []int{start}
	}

	for len(a.queue) > 0 {
		node := a.queue[0]
		a.queue = a.queue[1:]
		a.queue = append(a.queue, root.Children(node)...)
		if root.IsTerminal(node) {
			a.id = root.KeyID(node)
			a.key = root.KeyBytes(node)
			return true
		}
	}
	a.exhausted = true
	return false
}

// predictiveRoot descends as far as query dictates, including partway
// through a patricia-compressed multi-byte label (the query may run out in
// the middle of an edge's label, in which case the whole subtree below that
// edge still matches). It returns the deepest node reached and whether
// query is fully consumed.
func predictiveRoot(t *louds.LoudsTrie, query []byte) (int, bool) {
	node := t.Root()
	rest := query
	for len(rest) > 0 {
		matched := false
		for _, c := range t.Children(node) {
			lbl := t.Label(c)
			switch {
			case len(lbl) <= len(rest):
				if bytes.Equal(lbl, rest[:len(lbl)]) {
					node = c
					rest = rest[len(lbl):]
					matched = true
				}
			case bytes.HasPrefix(lbl, rest):
				node = c
				rest = nil
				matched = true
			}
			if matched {
				break
			}
		}
		if !matched {
			return 0, false
		}
	}
	return node, true
}
