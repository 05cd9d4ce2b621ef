// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package tail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAutoModeSelectsTextForPlainSuffixes(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("ing"), []byte("tion")}, PreferAuto)
	require.NoError(t, err)
	require.Equal(t, ModeText, tl.Mode())
	require.Len(t, offsets, 2)
}

func TestBuildAutoModeSelectsBinaryOnZeroByte(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("a\x00b"), []byte("cd")}, PreferAuto)
	require.NoError(t, err)
	require.Equal(t, ModeBinary, tl.Mode())

	require.Equal(t, []byte("a\x00b"), tl.Suffix(offsets[0]))
	require.Equal(t, []byte("cd"), tl.Suffix(offsets[1]))
}

func TestBuildForceBinaryWithoutZeroBytes(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("ing"), []byte("tion")}, PreferBinary)
	require.NoError(t, err)
	require.Equal(t, ModeBinary, tl.Mode())
	require.Equal(t, []byte("ing"), tl.Suffix(offsets[0]))
	require.Equal(t, []byte("tion"), tl.Suffix(offsets[1]))
}

func TestBuildForceTextRejectsZeroByte(t *testing.T) {
	_, _, err := Build([][]byte{[]byte("a\x00b")}, PreferText)
	require.Error(t, err)
}

func TestBuildForceTextAcceptsPlainSuffixes(t *testing.T) {
	tl, _, err := Build([][]byte{[]byte("ing")}, PreferText)
	require.NoError(t, err)
	require.Equal(t, ModeText, tl.Mode())
}

func TestBuildSharesCommonSuffixes(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("ation"), []byte("tion")}, PreferAuto)
	require.NoError(t, err)
	// "tion" is a suffix of "ation"; its bytes should be reused, not
	// duplicated in buf.
	require.Less(t, len(tl.buf), len("ation")+len("tion")+2)
	require.Equal(t, []byte("ation"), tl.Suffix(offsets[0]))
	require.Equal(t, []byte("tion"), tl.Suffix(offsets[1]))
}

func TestBuildRejectsEmptySuffix(t *testing.T) {
	_, _, err := Build([][]byte{nil}, PreferAuto)
	require.Error(t, err)
}

func TestMatchTextMode(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("apple"), []byte("apply")}, PreferAuto)
	require.NoError(t, err)
	require.Equal(t, ModeText, tl.Mode())

	consumed, ok := tl.Match(offsets[0], []byte("apple"))
	require.True(t, ok)
	require.Equal(t, 5, consumed)

	consumed, ok = tl.Match(offsets[0], []byte("applesauce"))
	require.True(t, ok)
	require.Equal(t, 5, consumed)

	_, ok = tl.Match(offsets[0], []byte("appl"))
	require.False(t, ok)

	_, ok = tl.Match(offsets[0], []byte("apply"))
	require.False(t, ok)
}

func TestMatchBinaryModeWithZeroByteKey(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("a\x00b"), []byte("cd")}, PreferAuto)
	require.NoError(t, err)
	require.Equal(t, ModeBinary, tl.Mode())

	consumed, ok := tl.Match(offsets[0], []byte("a\x00b"))
	require.True(t, ok)
	require.Equal(t, 3, consumed)

	consumed, ok = tl.Match(offsets[0], []byte("a\x00bc"))
	require.True(t, ok)
	require.Equal(t, 3, consumed)

	_, ok = tl.Match(offsets[0], []byte("a\x00"))
	require.False(t, ok)

	_, ok = tl.Match(offsets[1], []byte("cd"))
	require.True(t, ok)
}

func TestRoundTripWriteReadBinaryMode(t *testing.T) {
	tl, offsets, err := Build([][]byte{[]byte("a\x00b"), []byte("cd")}, PreferAuto)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = tl.WriteTo(&buf)
	require.NoError(t, err)

	var got Tail
	_, err = got.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, ModeBinary, got.Mode())

	for _, off := range offsets {
		require.Equal(t, tl.Suffix(off), got.Suffix(off))
	}
}
