// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ioblob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadVectorRoundTrip(t *testing.T) {
	cases := [][]uint32{
		nil,
		{1},
		{1, 2, 3, 4, 5},
		make([]uint32, 17), // forces non-zero padding
	}

	for _, items := range cases {
		var buf bytes.Buffer
		n, err := WriteVector(&buf, items)
		require.NoError(t, err)
		require.EqualValues(t, buf.Len(), n)
		require.Zero(t, buf.Len()%8)

		got, err := ReadVector[uint32](&buf)
		require.NoError(t, err)
		require.Equal(t, items, got)
		require.Zero(t, buf.Len())
	}
}

func TestMapVectorZeroCopy(t *testing.T) {
	items := []uint64{10, 20, 30}

	var buf bytes.Buffer
	_, err := WriteVector(&buf, items)
	require.NoError(t, err)

	raw := buf.Bytes()
	got, next, err := MapVector[uint64](raw, 0)
	require.NoError(t, err)
	require.Equal(t, items, got)
	require.EqualValues(t, len(raw), next)
}

func TestMapVectorTruncated(t *testing.T) {
	_, _, err := MapVector[uint64]([]byte{0, 0, 0}, 0)
	require.Error(t, err)
}
