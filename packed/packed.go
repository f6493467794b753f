// Package packed provides a fixed-width integer array stored bit-packed in
// 64-bit words. It is the storage layer for the bit vectors, their rank and
// select directories, and the wavelet tree built on top of them.
//
// Writes are truncating: a value is masked to the configured width, never
// rejected.
package packed

import (
	"fmt"
	"strings"

	"github.com/AlexWan0/go-wltree/errs"
	"github.com/AlexWan0/go-wltree/internal/bitmask"
)

// Array is a sequence of Size() unsigned integers of Width() bits each.
// Element i occupies the bits [i*w, (i+1)*w) of the backing words, least
// significant bit first, so a value spans at most two words.
type Array struct {
	words []uint64
	size  uint64
	width uint64
	mask  uint64
}

// New returns an array of count zeroes, width bits each.
func New(count, width uint64) (*Array, error) {
	a := &Array{}
	if err := a.Resize(count, width); err != nil {
		return nil, err
	}
	return a, nil
}

// FromValues returns an array holding values, using the smallest width that
// fits the largest of them.
func FromValues(values []uint64) *Array {
	width := uint64(1)
	for _, v := range values {
		if w := bitmask.CountBits(v); w > width {
			width = w
		}
	}
	a := &Array{}
	a.resize(uint64(len(values)), width)
	for i, v := range values {
		a.set(uint64(i), v)
	}
	return a
}

// Resize reallocates the array to count zeroes of width bits, dropping the
// old contents.
func (a *Array) Resize(count, width uint64) error {
	if width == 0 || width > bitmask.WordSize {
		return fmt.Errorf("packed: width %d not in [1, %d]: %w", width, bitmask.WordSize, errs.ErrInvalidArgument)
	}
	a.resize(count, width)
	return nil
}

func (a *Array) resize(count, width uint64) {
	a.size = count
	a.width = width
	a.mask = bitmask.LowMask(width)
	a.words = make([]uint64, (count*width+bitmask.WordSize-1)/bitmask.WordSize)
}

// Assign resizes the array to count copies of val.
func (a *Array) Assign(count, val, width uint64) error {
	if err := a.Resize(count, width); err != nil {
		return err
	}
	if val&a.mask == 0 {
		return nil
	}
	for i := uint64(0); i < count; i++ {
		a.set(i, val)
	}
	return nil
}

// Size returns the number of elements.
func (a *Array) Size() uint64 {
	return a.size
}

// Width returns the number of bits per element.
func (a *Array) Width() uint64 {
	return a.width
}

// Read returns the element at idx.
func (a *Array) Read(idx uint64) (uint64, error) {
	if idx >= a.size {
		return 0, errs.Bounds("packed.Read", idx, a.size)
	}
	return a.Get(idx), nil
}

// Write stores val, truncated to Width() bits, at idx.
func (a *Array) Write(idx, val uint64) error {
	if idx >= a.size {
		return errs.Bounds("packed.Write", idx, a.size)
	}
	a.set(idx, val)
	return nil
}

// Get returns the element at idx without checking idx against Size().
// Callers must stay below Size(); it is meant for the query hot paths of
// structures that already validated their input.
func (a *Array) Get(idx uint64) uint64 {
	pos := idx * a.width
	word, off := pos/bitmask.WordSize, pos%bitmask.WordSize
	val := a.words[word] >> off
	if off+a.width > bitmask.WordSize {
		val |= a.words[word+1] << (bitmask.WordSize - off)
	}
	return val & a.mask
}

func (a *Array) set(idx, val uint64) {
	val &= a.mask
	pos := idx * a.width
	word, off := pos/bitmask.WordSize, pos%bitmask.WordSize
	a.words[word] = a.words[word]&^(a.mask<<off) | val<<off
	if off+a.width > bitmask.WordSize {
		spill := off + a.width - bitmask.WordSize
		a.words[word+1] = a.words[word+1]&^bitmask.LowMask(spill) | val>>(bitmask.WordSize-off)
	}
}

// ReadBits returns the raw bits [start, end] of the backing storage, with
// bit start at position 0 of the result. The interval must lie inside
// Size()*Width() bits and be at most one word long.
func (a *Array) ReadBits(start, end uint64) (uint64, error) {
	total := a.size * a.width
	if end >= total {
		return 0, errs.Bounds("packed.ReadBits", end, total)
	}
	if start > end || end-start >= bitmask.WordSize {
		return 0, fmt.Errorf("packed: bit interval [%d, %d]: %w", start, end, errs.ErrOutOfBounds)
	}
	return a.bits(start, end-start+1), nil
}

// bits reads length (1..64) bits starting at start, unchecked.
func (a *Array) bits(start, length uint64) uint64 {
	word, off := start/bitmask.WordSize, start%bitmask.WordSize
	val := a.words[word] >> off
	if off+length > bitmask.WordSize {
		val |= a.words[word+1] << (bitmask.WordSize - off)
	}
	return val & bitmask.LowMask(length)
}

// MemoryUsage returns the number of bytes held by the array.
func (a *Array) MemoryUsage() uint64 {
	return uint64(len(a.words))*8 + 4*8
}

// String lists the elements, e.g. "[1 0 3]".
func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := uint64(0); i < a.size; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", a.Get(i))
	}
	sb.WriteByte(']')
	return sb.String()
}
