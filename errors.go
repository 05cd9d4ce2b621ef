// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package marisa

import (
	"errors"
	"fmt"

	"github.com/gaissmai/marisa/internal/trieerr"
)

// Kind classifies an Error without requiring callers to pattern-match on
// message text.
type Kind uint8

const (
	// KindInvalidInput reports an empty keyset, a duplicate key, or an
	// out-of-range build configuration.
	KindInvalidInput Kind = iota
	// KindInvalidFormat reports a corrupt or incompatible on-disk image.
	KindInvalidFormat
	// KindIO reports an underlying read/write/map failure.
	KindIO
	// KindOutOfRange reports an id outside [0, num_keys) given to
	// ReverseLookup.
	KindOutOfRange
	// KindNotBuilt reports an operation attempted on a Trie that has not
	// been built or loaded.
	KindNotBuilt
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindInvalidFormat:
		return "invalid format"
	case KindIO:
		return "io error"
	case KindOutOfRange:
		return "out of range"
	case KindNotBuilt:
		return "not built"
	default:
		return "unknown"
	}
}

// Error is the single structured error type this package returns. Pos is
// the offending byte offset or id where applicable, and is -1 otherwise.
type Error struct {
	Kind Kind
	Pos  int64
	Err  error
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("marisa: %s at %d: %v", e.Kind, e.Pos, e.Err)
	}
	return fmt.Sprintf("marisa: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, pos int64, err error) *Error {
	return &Error{Kind: kind, Pos: pos, Err: err}
}

// wrapErr converts an internal sentinel-tagged error into a *Error,
// preserving its kind. Errors not produced by internal/trieerr are reported
// as KindIO, since they can only have come from the underlying
// Reader/Writer/Mapper.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	switch {
	case errors.Is(err, trieerr.ErrInvalidInput):
		return newError(KindInvalidInput, -1, err)
	case errors.Is(err, trieerr.ErrInvalidFormat):
		return newError(KindInvalidFormat, -1, err)
	case errors.Is(err, trieerr.ErrOutOfRange):
		return newError(KindOutOfRange, -1, err)
	case errors.Is(err, trieerr.ErrNotBuilt):
		return newError(KindNotBuilt, -1, err)
	case errors.Is(err, trieerr.ErrIO):
		return newError(KindIO, -1, err)
	default:
		return newError(KindIO, -1, err)
	}
}
