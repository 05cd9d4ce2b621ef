// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package popcount counts set bits in machine words.
//
// It is the L0 layer of the trie: every rank/select computation in
// [github.com/gaissmai/marisa/internal/bitvector] bottoms out here.
package popcount

import "math/bits"

// Count64 returns the number of set bits in w.
func Count64(w uint64) int {
	return bits.OnesCount64(w)
}

// Count32 returns the number of set bits in w.
func Count32(w uint32) int {
	return bits.OnesCount32(w)
}

// Masked64 returns the number of set bits in w below bit position pos,
// i.e. popcount(w & ((1<<pos)-1)). pos must be in [0,64].
func Masked64(w uint64, pos uint) int {
	if pos >= 64 {
		return bits.OnesCount64(w)
	}
	return bits.OnesCount64(w & (uint64(1)<<pos - 1))
}
