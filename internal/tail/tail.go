// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package tail implements the suffix-sharing store described in §4.3: once
// a LOUDS level's patricia compression reaches a single remaining child, the
// rest of the key is stored as a flat byte run instead of further trie
// nodes, and identical suffixes across different keys are folded together.
//
// Two storage modes share one buffer: text mode NUL-terminates each suffix
// (valid only when no key byte is 0x00), binary mode instead flags the last
// byte of every suffix in an end_flags bit-vector. The mode is stored
// explicitly, as a u64 written ahead of buf and end_flags.
//
// Construction follows the suffix-sharing build sutrie's tail tables hint
// at and the general offset-reuse idea NobeKanai/sutrie's own bitset-backed
// encoding exercises: sort suffixes so that any suffix sharing a tail with
// an earlier, longer entry becomes a pure offset into that entry's bytes.
package tail

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gaissmai/marisa/internal/bitvector"
	"github.com/gaissmai/marisa/internal/ioblob"
	"github.com/gaissmai/marisa/internal/trieerr"
)

// Mode selects how suffix boundaries are recorded.
type Mode int

const (
	ModeText Mode = iota
	ModeBinary
)

// Tail is the built, immutable suffix store.
type Tail struct {
	mode     Mode
	buf      []byte
	endFlags *bitvector.BitVector
}

// Mode reports whether the store is in text or binary mode.
func (t *Tail) Mode() Mode { return t.mode }

// Preference selects how Build picks between text and binary mode.
type Preference int

const (
	// PreferAuto selects binary mode automatically when any suffix
	// contains a 0x00 byte, text mode otherwise.
	PreferAuto Preference = iota
	// PreferText forces text mode; Build fails if any suffix contains a
	// 0x00 byte, since a NUL cannot appear inside a NUL-terminated run.
	PreferText
	// PreferBinary forces binary mode even when no suffix needs it.
	PreferBinary
)

// Build packs suffixes (indexed by the caller's original key id) into a
// shared buffer, returning the store and the byte offset of each suffix
// within it. pref selects how text/binary mode is chosen: PreferAuto picks
// binary only when some suffix contains a 0x00 byte, PreferText forces text
// (failing if that's impossible), PreferBinary always uses binary mode.
//
// Every suffix must be non-empty: a key that terminates exactly where the
// patricia compression collapses to a single child has nothing left to
// store here and should be marked terminal on the louds node directly
// instead of routed through the tail.
func Build(suffixes [][]byte, pref Preference) (*Tail, []uint64, error) {
	for i, s := range suffixes {
		if len(s) == 0 {
			return nil, nil, fmt.Errorf("%w: tail suffix %d is empty", trieerr.ErrInvalidInput, i)
		}
	}

	hasZero := false
	for _, s := range suffixes {
		if bytes.IndexByte(s, 0) >= 0 {
			hasZero = true
			break
		}
	}

	var mode Mode
	switch pref {
	case PreferText:
		if hasZero {
			return nil, nil, fmt.Errorf("%w: tail suffix contains 0x00, forced text mode is impossible", trieerr.ErrInvalidInput)
		}
		mode = ModeText
	case PreferBinary:
		mode = ModeBinary
	default:
		if hasZero {
			mode = ModeBinary
		} else {
			mode = ModeText
		}
	}

	order := make([]int, len(suffixes))
	for i := range order {
		order[i] = i
	}
	sortBySharedSuffix(order, suffixes)

	offsets := make([]uint64, len(suffixes))
	var buf []byte
	endBits := bitvector.New()

	var prevID = -1
	for _, id := range order {
		cur := suffixes[id]

		if prevID >= 0 && isSuffixOf(cur, suffixes[prevID]) {
			prev := suffixes[prevID]
			offsets[id] = offsets[prevID] + uint64(len(prev)-len(cur))
			prevID = id
			continue
		}

		offsets[id] = uint64(len(buf))
		buf = append(buf, cur...)
		switch mode {
		case ModeText:
			buf = append(buf, 0)
		case ModeBinary:
			for range len(cur) - 1 {
				endBits.PushBack(false)
			}
			if len(cur) > 0 {
				endBits.PushBack(true)
			}
		}
		prevID = id
	}

	if mode == ModeBinary {
		for endBits.Size() < len(buf) {
			endBits.PushBack(false)
		}
	}
	endBits.Build(false, false)

	return &Tail{mode: mode, buf: buf, endFlags: endBits}, offsets, nil
}

// sortBySharedSuffix orders ids so that any two suffixes sharing a common
// tail are adjacent, with the longer one first: compare byte-by-byte from
// the end of each slice, and when one is a strict suffix of the other treat
// the longer one as smaller so it sorts (and therefore gets materialized)
// first.
func sortBySharedSuffix(order []int, suffixes [][]byte) {
	less := func(a, b []byte) bool {
		la, lb := len(a), len(b)
		n := la
		if lb < n {
			n = lb
		}
		for k := 1; k <= n; k++ {
			ca, cb := a[la-k], b[lb-k]
			if ca != cb {
				return ca < cb
			}
		}
		return la > lb
	}

	insertionSort(order, func(i, j int) bool {
		return less(suffixes[order[i]], suffixes[order[j]])
	})
}

// insertionSort is a stable O(n^2) sort; tail construction runs once at
// build time over a key set already dominated by the O(n log n) LOUDS sort,
// so simplicity wins over asymptotics here.
func insertionSort(a []int, less func(i, j int) bool) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

func isSuffixOf(suffix, s []byte) bool {
	if len(suffix) > len(s) {
		return false
	}
	return bytes.Equal(s[len(s)-len(suffix):], suffix)
}

// Match attempts to consume query starting at offset against the suffix
// stored there, returning the number of bytes consumed and whether the
// whole stored suffix matched.
func (t *Tail) Match(offset uint64, query []byte) (consumed int, ok bool) {
	pos := int(offset)
	for i := 0; ; i++ {
		if pos+i >= len(t.buf) {
			return 0, false
		}
		b := t.buf[pos+i]

		if t.mode == ModeText && b == 0 {
			return i, true
		}
		if i >= len(query) || query[i] != b {
			return 0, false
		}
		if t.mode == ModeBinary && t.endFlags.Get(pos+i) {
			return i + 1, true
		}
	}
}

// Suffix returns the raw suffix bytes stored at offset, without comparing
// against any query. Used when dumping or reconstructing keys.
func (t *Tail) Suffix(offset uint64) []byte {
	pos := int(offset)
	for i := 0; ; i++ {
		if pos+i >= len(t.buf) {
			return t.buf[pos:]
		}
		if t.mode == ModeText && t.buf[pos+i] == 0 {
			return t.buf[pos : pos+i]
		}
		if t.mode == ModeBinary && t.endFlags.Get(pos+i) {
			return t.buf[pos : pos+i+1]
		}
	}
}

// WriteTo serializes the tail as: u64 mode; Vector<u8> buf; end_flags
// (a nested BitVector blob).
func (t *Tail) WriteTo(w io.Writer) (int64, error) {
	var total int64

	if err := binary.Write(w, binary.LittleEndian, uint64(t.mode)); err != nil {
		return total, fmt.Errorf("tail: write mode: %w", err)
	}
	total += 8

	n, err := ioblob.WriteVector(w, t.buf)
	total += n
	if err != nil {
		return total, err
	}

	n, err = t.endFlags.WriteTo(w)
	total += n
	return total, err
}

// ReadFrom deserializes a tail store written by WriteTo.
func (t *Tail) ReadFrom(r io.Reader) (int64, error) {
	var total int64

	var mode uint64
	if err := binary.Read(r, binary.LittleEndian, &mode); err != nil {
		return 0, fmt.Errorf("tail: read mode: %w", err)
	}
	if mode > uint64(ModeBinary) {
		return 0, fmt.Errorf("%w: tail mode %d out of range", trieerr.ErrInvalidFormat, mode)
	}
	total += 8

	buf, err := ioblob.ReadVector[byte](r)
	if err != nil {
		return total, err
	}

	endFlags := bitvector.New()
	n, err := endFlags.ReadFrom(r)
	total += n
	if err != nil {
		return total, err
	}

	t.mode = Mode(mode)
	t.buf = buf
	t.endFlags = endFlags
	return total, nil
}

// Map carves the tail store out of buf at offset without copying.
func (t *Tail) Map(buf []byte, offset int64) (int64, error) {
	if offset+8 > int64(len(buf)) {
		return 0, fmt.Errorf("%w: truncated tail header", trieerr.ErrInvalidFormat)
	}
	mode := binary.LittleEndian.Uint64(buf[offset : offset+8])
	offset += 8
	if mode > uint64(ModeBinary) {
		return 0, fmt.Errorf("%w: tail mode %d out of range", trieerr.ErrInvalidFormat, mode)
	}

	data, offset, err := ioblob.MapVector[byte](buf, offset)
	if err != nil {
		return 0, err
	}

	endFlags := bitvector.New()
	offset, err = endFlags.Map(buf, offset)
	if err != nil {
		return 0, err
	}

	t.mode = Mode(mode)
	t.buf = data
	t.endFlags = endFlags
	return offset, nil
}
