// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/gaissmai/marisa/internal/louds"
	"github.com/gaissmai/marisa/internal/trieerr"
)

// magicHeader is the fixed 16-byte prefix every serialized dictionary
// begins with; any mismatch is a fatal load error.
const magicHeader = "We love Marisa.\n"

func fromInternalConfig(c louds.Config) BuildConfig {
	return BuildConfig{
		NumTries:   c.NumTries,
		NodeOrder:  NodeOrder(c.NodeOrder),
		TailMode:   TailMode(c.TailPref),
		CacheLevel: CacheLevel(c.CacheLevel),
	}
}

// WriteTo serializes the trie as the magic header followed by the
// recursive LoudsTrie blob schema.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	if t.root == nil {
		return 0, wrapErr(trieerr.ErrNotBuilt)
	}
	n, err := io.WriteString(w, magicHeader)
	total := int64(n)
	if err != nil {
		return total, wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}

	m, err := t.root.WriteTo(w)
	total += m
	if err != nil {
		return total, wrapErr(err)
	}
	return total, nil
}

// Save writes the trie to path, creating or truncating it.
func Save(t *Trie, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}
	defer f.Close()

	if _, err := t.WriteTo(f); err != nil {
		return err
	}
	return wrapErr(f.Sync())
}

func checkMagic(got []byte) error {
	if len(got) < len(magicHeader) || string(got[:len(magicHeader)]) != magicHeader {
		return newError(KindInvalidFormat, 0, fmt.Errorf("%w: bad magic header", trieerr.ErrInvalidFormat))
	}
	return nil
}

// Read deserializes a trie from r, copying every backing buffer.
func Read(r io.Reader) (*Trie, error) {
	header := make([]byte, len(magicHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}
	if err := checkMagic(header); err != nil {
		return nil, err
	}

	root, err := louds.ReadFrom(r)
	if err != nil {
		return nil, wrapErr(err)
	}

	return &Trie{root: root, cfg: fromInternalConfig(root.Config())}, nil
}

// Load reads the whole file at path into memory and deserializes it.
func Load(path string) (*Trie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}
	return Read(bytes.NewReader(data))
}

// Map deserializes a trie directly out of buf without copying any backing
// buffer; buf must outlive the returned Trie.
func Map(buf []byte) (*Trie, error) {
	if err := checkMagic(buf); err != nil {
		return nil, err
	}
	root, _, err := louds.Map(buf, int64(len(magicHeader)))
	if err != nil {
		return nil, wrapErr(err)
	}
	return &Trie{root: root, cfg: fromInternalConfig(root.Config())}, nil
}

// Mmap memory-maps the file at path and deserializes a zero-copy Trie out
// of it. The returned Trie must be closed with Close before the process
// exits, which unmaps the file and releases its descriptor; every index
// derived from the trie must be dropped first, since they alias the
// mapped memory.
func Mmap(path string) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
	}

	t, err := Map(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}

	t.closer = func() error {
		err := m.Unmap()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return wrapErr(fmt.Errorf("%w: %v", trieerr.ErrIO, err))
		}
		return nil
	}
	return t, nil
}
