// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package flatvector implements a bit-packed array of small unsigned
// integers, storing each value in the minimum number of bits needed for the
// largest value in the set. It backs the louds layer's extras table, the
// high bits of each link node's label index (§4.2 of the dictionary's
// component design),
// generalizing the teacher's fixed-width BitSet256 packing
// (internal/bitset/bitset256.go) from a hardcoded 256-bit word to an
// arbitrary per-vector value width.
package flatvector

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/gaissmai/marisa/internal/ioblob"
	"github.com/gaissmai/marisa/internal/trieerr"
)

const maxValueSize = 32

// FlatVector is an immutable, bit-packed array of uint64 values all
// representable in ValueSize() bits.
type FlatVector struct {
	units     []uint64
	valueSize int
	mask      uint64
	size      int
}

// Build packs values into a FlatVector using the minimum bit-width needed
// to represent the maximum value. An empty values slice yields a zero-width,
// zero-length vector.
func Build(values []uint64) (*FlatVector, error) {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	valueSize := bits.Len64(max)
	if valueSize > maxValueSize {
		return nil, fmt.Errorf("%w: flatvector value_size %d exceeds %d", trieerr.ErrInvalidInput, valueSize, maxValueSize)
	}

	fv := &FlatVector{
		valueSize: valueSize,
		mask:      mask(valueSize),
		size:      len(values),
	}
	if valueSize == 0 {
		return fv, nil
	}

	numUnits := (len(values)*valueSize + 63) / 64
	fv.units = make([]uint64, numUnits)
	for i, v := range values {
		fv.set(i, v)
	}
	return fv, nil
}

func mask(valueSize int) uint64 {
	if valueSize == 0 {
		return 0
	}
	if valueSize >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(valueSize) - 1
}

func (fv *FlatVector) set(i int, v uint64) {
	v &= fv.mask
	bitPos := i * fv.valueSize
	wordIdx := bitPos / 64
	bitOff := uint(bitPos % 64)

	fv.units[wordIdx] |= v << bitOff
	if bitOff+uint(fv.valueSize) > 64 {
		fv.units[wordIdx+1] |= v >> (64 - bitOff)
	}
}

// Size returns the number of elements.
func (fv *FlatVector) Size() int { return fv.size }

// ValueSize returns the number of bits used to store each element.
func (fv *FlatVector) ValueSize() int { return fv.valueSize }

// Get returns the i-th element.
func (fv *FlatVector) Get(i int) uint64 {
	if fv.valueSize == 0 {
		return 0
	}

	bitPos := i * fv.valueSize
	wordIdx := bitPos / 64
	bitOff := uint(bitPos % 64)

	v := fv.units[wordIdx] >> bitOff
	if bitOff+uint(fv.valueSize) > 64 && wordIdx+1 < len(fv.units) {
		v |= fv.units[wordIdx+1] << (64 - bitOff)
	}
	return v & fv.mask
}

// WriteTo serializes the vector as: Vector<u64> units; u64 value_size;
// u64 mask; u64 size.
func (fv *FlatVector) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := ioblob.WriteVector(w, fv.units)
	total += n
	if err != nil {
		return total, err
	}

	for _, v := range []uint64{uint64(fv.valueSize), fv.mask, uint64(fv.size)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return total, fmt.Errorf("flatvector: write header: %w", err)
		}
		total += 8
	}
	return total, nil
}

// ReadFrom deserializes a FlatVector written by WriteTo.
func (fv *FlatVector) ReadFrom(r io.Reader) (int64, error) {
	units, err := ioblob.ReadVector[uint64](r)
	if err != nil {
		return 0, err
	}

	var valueSize, mask, size uint64
	if err := binary.Read(r, binary.LittleEndian, &valueSize); err != nil {
		return 0, fmt.Errorf("flatvector: read value_size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &mask); err != nil {
		return 0, fmt.Errorf("flatvector: read mask: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, fmt.Errorf("flatvector: read size: %w", err)
	}

	if valueSize > maxValueSize {
		return 0, fmt.Errorf("%w: flatvector value_size %d exceeds %d", trieerr.ErrInvalidFormat, valueSize, maxValueSize)
	}

	fv.units = units
	fv.valueSize = int(valueSize)
	fv.mask = mask
	fv.size = int(size)
	return 0, nil
}

// Map carves the vector out of buf at offset without copying.
func (fv *FlatVector) Map(buf []byte, offset int64) (int64, error) {
	units, offset, err := ioblob.MapVector[uint64](buf, offset)
	if err != nil {
		return 0, err
	}

	if offset+24 > int64(len(buf)) {
		return 0, fmt.Errorf("%w: truncated flatvector header", trieerr.ErrInvalidFormat)
	}
	valueSize := binary.LittleEndian.Uint64(buf[offset : offset+8])
	mask := binary.LittleEndian.Uint64(buf[offset+8 : offset+16])
	size := binary.LittleEndian.Uint64(buf[offset+16 : offset+24])
	offset += 24

	if valueSize > maxValueSize {
		return 0, fmt.Errorf("%w: flatvector value_size %d exceeds %d", trieerr.ErrInvalidFormat, valueSize, maxValueSize)
	}

	fv.units = units
	fv.valueSize = int(valueSize)
	fv.mask = mask
	fv.size = int(size)
	return offset, nil
}
