// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import "github.com/gaissmai/marisa/internal/louds"

// Key is one dictionary entry: the byte string itself and its build-time
// weight (used only when NodeOrder is WeightOrder).
type Key struct {
	Bytes  []byte
	Weight uint32
}

// Keyset accumulates Keys before Build assigns them stable ids.
type Keyset struct {
	keys []Key
}

// NewKeyset returns an empty Keyset.
func NewKeyset() *Keyset { return &Keyset{} }

// Add appends a key with the given weight (ignored unless building with
// WeightOrder).
func (k *Keyset) Add(key []byte, weight uint32) {
	b := make([]byte, len(key))
	copy(b, key)
	k.keys = append(k.keys, Key{Bytes: b, Weight: weight})
}

// Len reports how many keys have been added.
func (k *Keyset) Len() int { return len(k.keys) }

func (k *Keyset) toInternal() []louds.Key {
	out := make([]louds.Key, len(k.keys))
	for i, key := range k.keys {
		out[i] = louds.Key{Bytes: key.Bytes, Weight: key.Weight, ID: i}
	}
	return out
}
