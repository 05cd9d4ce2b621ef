// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package bitvector implements a packed bit-vector with O(1) rank and
// O(log n) select, the L1 succinct primitive the whole nested trie is built
// on top of.
//
// The rank index samples every 256 bits (one abs rank plus four relative
// per-word ranks, mirroring the teacher's [BitSet256.Rank0] rank-mask trick
// generalized from a fixed 256-bit window to an arbitrarily long vector),
// and the select index samples every 512 set (or clear) bits to bound the
// binary search, the same two-level scheme [sutrie]'s lazy rank/select
// binary search hints at but without a coarse sampling layer.
//
// [sutrie]: the NobeKanai/sutrie succinct trie in the retrieval pack.
package bitvector

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/gaissmai/marisa/internal/ioblob"
	"github.com/gaissmai/marisa/internal/popcount"
	"github.com/gaissmai/marisa/internal/trieerr"
)

const (
	blockBits  = 256
	wordBits   = 64
	wordsPerBlock = blockBits / wordBits
	sampleRate = 512
)

// rankEntry is one 8-byte rank-index sample: the absolute rank1 of all bits
// strictly before the block, plus the relative rank1 of each of the block's
// four words relative to the block start.
type rankEntry struct {
	Abs uint32
	Rel [4]uint8
}

// BitVector is a packed sequence of bits supporting O(1) rank and
// O(log n) select once Build has been called.
type BitVector struct {
	units []uint64
	size  int
	ones  int

	ranks    []rankEntry
	select0s []uint32
	select1s []uint32

	built bool
}

// New returns an empty BitVector ready for PushBack.
func New() *BitVector {
	return &BitVector{}
}

// PushBack appends a bit during construction. Must not be called after Build.
func (bv *BitVector) PushBack(bit bool) {
	idx := bv.size >> 6
	for idx >= len(bv.units) {
		bv.units = append(bv.units, 0)
	}
	if bit {
		bv.units[idx] |= uint64(1) << uint(bv.size&63)
	}
	bv.size++
}

// Size returns the number of bits in the vector.
func (bv *BitVector) Size() int { return bv.size }

// NumOnes returns the total number of set bits. Valid only after Build.
func (bv *BitVector) NumOnes() int { return bv.ones }

func (bv *BitVector) word(idx int) uint64 {
	if idx < len(bv.units) {
		return bv.units[idx]
	}
	return 0
}

// Get returns the bit at position i.
func (bv *BitVector) Get(i int) bool {
	return bv.word(i>>6)&(uint64(1)<<uint(i&63)) != 0
}

// Build computes the rank index and, optionally, the select0/select1
// indices. It must be called exactly once before Rank/Select queries.
func (bv *BitVector) Build(enableSelect0, enableSelect1 bool) {
	numBlocks := (bv.size + blockBits - 1) / blockBits

	ranks := make([]rankEntry, numBlocks)
	abs := 0
	for b := 0; b < numBlocks; b++ {
		var rel [4]uint8
		cum := 0
		for w := 0; w < wordsPerBlock; w++ {
			rel[w] = uint8(cum)
			cum += popcount.Count64(bv.word(b*wordsPerBlock + w))
		}
		ranks[b] = rankEntry{Abs: uint32(abs), Rel: rel}
		abs += cum
	}

	bv.ranks = ranks
	bv.ones = abs
	bv.built = true

	if enableSelect1 {
		bv.select1s = buildSelectSamples(ranks, true)
	} else {
		bv.select1s = nil
	}
	if enableSelect0 {
		bv.select0s = buildSelectSamples(ranks, false)
	} else {
		bv.select0s = nil
	}
}

// cumBefore returns the number of one-bits (isOne) or zero-bits (!isOne)
// strictly before block b's first bit. Always exact: every block before b
// is either fully real (block*blockBits < size, shown by numBlocks's
// definition) or b is out of range.
func cumBefore(ranks []rankEntry, b int, isOne bool) int {
	if isOne {
		return int(ranks[b].Abs)
	}
	return b*blockBits - int(ranks[b].Abs)
}

func buildSelectSamples(ranks []rankEntry, isOne bool) []uint32 {
	if len(ranks) == 0 {
		return nil
	}

	// Build forward: find, for every multiple of sampleRate, the block
	// whose bit range contains that many cumulative bits.
	var samples []uint32
	b := 0
	for target := 0; ; target += sampleRate {
		if b >= len(ranks) {
			break
		}
		for b+1 < len(ranks) && cumBefore(ranks, b+1, isOne) <= target {
			b++
		}
		samples = append(samples, uint32(b))
		// stop once we've sampled past the last block's start; Select
		// falls back to a final linear block scan regardless.
		if b == len(ranks)-1 {
			break
		}
	}
	return samples
}

// Rank1 returns the number of one-bits in [0, i).
func (bv *BitVector) Rank1(i int) int {
	if i <= 0 {
		return 0
	}
	if i >= bv.size {
		return bv.ones
	}

	block := i / blockBits
	within := i % blockBits
	w := within / wordBits
	bit := uint(within % wordBits)

	re := bv.ranks[block]
	return int(re.Abs) + int(re.Rel[w]) + popcount.Masked64(bv.word(block*wordsPerBlock+w), bit)
}

// Rank0 returns the number of zero-bits in [0, i).
func (bv *BitVector) Rank0(i int) int {
	if i < 0 {
		i = 0
	}
	if i > bv.size {
		i = bv.size
	}
	return i - bv.Rank1(i)
}

func selectInWord(word uint64, r int) int {
	for i := 0; i < r; i++ {
		word &= word - 1
	}
	return bits.TrailingZeros64(word)
}

func (bv *BitVector) selectBit(k int, isOne bool) (int, bool) {
	samples := bv.select1s
	total := bv.ones
	if !isOne {
		samples = bv.select0s
		total = bv.size - bv.ones
	}
	if k < 0 || k >= total || len(bv.ranks) == 0 {
		return 0, false
	}

	lo := 0
	if s := k / sampleRate; s < len(samples) {
		lo = int(samples[s])
	}
	hi := len(bv.ranks) - 1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if cumBefore(bv.ranks, mid, isOne) <= k {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	block := lo
	remaining := k - cumBefore(bv.ranks, block, isOne)

	for w := 0; w < wordsPerBlock; w++ {
		wordPos := block*wordsPerBlock + w
		bitStart := wordPos * wordBits
		avail := bv.size - bitStart
		if avail <= 0 {
			continue
		}

		word := bv.word(wordPos)
		if avail < wordBits {
			tail := ^uint64(0) << uint(avail)
			if isOne {
				word &^= tail
			} else {
				word |= tail
			}
		}

		target := word
		if !isOne {
			target = ^word
		}

		c := popcount.Count64(target)
		if remaining < c {
			return wordPos*wordBits + selectInWord(target, remaining), true
		}
		remaining -= c
	}

	return 0, false
}

// Select1 returns the position of the k-th (0-indexed) one-bit.
func (bv *BitVector) Select1(k int) (int, bool) { return bv.selectBit(k, true) }

// Select0 returns the position of the k-th (0-indexed) zero-bit.
func (bv *BitVector) Select0(k int) (int, bool) { return bv.selectBit(k, false) }

// WriteTo serializes the bit-vector as the framed blob schema from §6:
// Vector<u64> units; u64 size; u64 num_ones; Vector<RankEntry> ranks;
// Vector<u32> select0s; Vector<u32> select1s.
func (bv *BitVector) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := ioblob.WriteVector(w, bv.units)
	total += n
	if err != nil {
		return total, err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(bv.size)); err != nil {
		return total, fmt.Errorf("bitvector: write size: %w", err)
	}
	total += 8

	if err := binary.Write(w, binary.LittleEndian, uint64(bv.ones)); err != nil {
		return total, fmt.Errorf("bitvector: write num_ones: %w", err)
	}
	total += 8

	n, err = ioblob.WriteVector(w, bv.ranks)
	total += n
	if err != nil {
		return total, err
	}

	n, err = ioblob.WriteVector(w, bv.select0s)
	total += n
	if err != nil {
		return total, err
	}

	n, err = ioblob.WriteVector(w, bv.select1s)
	total += n
	return total, err
}

// ReadFrom deserializes a bit-vector written by WriteTo, validating internal
// consistency.
func (bv *BitVector) ReadFrom(r io.Reader) (int64, error) {
	var total int64

	units, err := ioblob.ReadVector[uint64](r)
	if err != nil {
		return total, err
	}

	var size, ones uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return total, fmt.Errorf("bitvector: read size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &ones); err != nil {
		return total, fmt.Errorf("bitvector: read num_ones: %w", err)
	}

	ranks, err := ioblob.ReadVector[rankEntry](r)
	if err != nil {
		return total, err
	}
	select0s, err := ioblob.ReadVector[uint32](r)
	if err != nil {
		return total, err
	}
	select1s, err := ioblob.ReadVector[uint32](r)
	if err != nil {
		return total, err
	}

	wantBlocks := (int(size) + blockBits - 1) / blockBits
	if len(ranks) != wantBlocks {
		return total, fmt.Errorf("%w: bitvector rank index has %d blocks, want %d", trieerr.ErrInvalidFormat, len(ranks), wantBlocks)
	}

	bv.units = units
	bv.size = int(size)
	bv.ones = int(ones)
	bv.ranks = ranks
	bv.select0s = select0s
	bv.select1s = select1s
	bv.built = true

	return total, nil
}

// Map carves the bit-vector out of buf at offset without copying, returning
// the offset of the next blob. The BitVector aliases buf and must not outlive
// it.
func (bv *BitVector) Map(buf []byte, offset int64) (int64, error) {
	units, offset, err := ioblob.MapVector[uint64](buf, offset)
	if err != nil {
		return 0, err
	}

	if offset+16 > int64(len(buf)) {
		return 0, fmt.Errorf("%w: truncated bitvector header", trieerr.ErrInvalidFormat)
	}
	size := binary.LittleEndian.Uint64(buf[offset : offset+8])
	ones := binary.LittleEndian.Uint64(buf[offset+8 : offset+16])
	offset += 16

	ranks, offset, err := ioblob.MapVector[rankEntry](buf, offset)
	if err != nil {
		return 0, err
	}
	select0s, offset, err := ioblob.MapVector[uint32](buf, offset)
	if err != nil {
		return 0, err
	}
	select1s, offset, err := ioblob.MapVector[uint32](buf, offset)
	if err != nil {
		return 0, err
	}

	wantBlocks := (int(size) + blockBits - 1) / blockBits
	if len(ranks) != wantBlocks {
		return 0, fmt.Errorf("%w: bitvector rank index has %d blocks, want %d", trieerr.ErrInvalidFormat, len(ranks), wantBlocks)
	}

	bv.units = units
	bv.size = int(size)
	bv.ones = int(ones)
	bv.ranks = ranks
	bv.select0s = select0s
	bv.select1s = select1s
	bv.built = true

	return offset, nil
}
