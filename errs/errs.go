// Package errs holds the errors shared by the packed, bitvector and wltree
// packages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when an index is not smaller than the size
	// of the structure, or a bit interval does not fit in one word.
	ErrOutOfBounds = errors.New("index out of bounds")
	// ErrNotBuilt is returned by queries issued before Build (or Reset).
	ErrNotBuilt = errors.New("structure not built")
	// ErrReadOnly is returned when mutating a structure that is immutable
	// after construction.
	ErrReadOnly = errors.New("structure is read-only")
	// ErrInvalidArgument is returned for malformed parameters such as a
	// zero or oversized width.
	ErrInvalidArgument = errors.New("invalid argument")
)

// BoundsError describes an out of bounds access.
type BoundsError struct {
	Op    string
	Index uint64
	Size  uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: index %d out of bounds [0, %d)", e.Op, e.Index, e.Size)
}

// Unwrap makes errors.Is(err, ErrOutOfBounds) hold for every BoundsError.
func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// Bounds returns a *BoundsError for op.
func Bounds(op string, idx, size uint64) error {
	return &BoundsError{Op: op, Index: idx, Size: size}
}
