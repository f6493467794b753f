// Package bitvector provides a read-only bit sequence with constant time
// rank and select, built from a packed bit array, one RankIndex and one
// SelectIndex per bit value.
//
// Example
//
//	bv := bitvector.New([]uint64{1, 1, 0, 1, 1})
//	bv.Rank(3, 1)   //=> 2, ones in bv[0, 3)
//	bv.Select(2, 1) //=> 3, position of the third one
//	bv.Select(0, 0) //=> 2
package bitvector

import (
	"fmt"
	"strings"

	"github.com/AlexWan0/go-wltree/errs"
	"github.com/AlexWan0/go-wltree/packed"
)

// BitVector is an immutable bit sequence B[0, Size()) supporting
// Rank(pos, bit) and Select(k, bit) in O(1) time using o(n) extra bits.
// The zero value is an empty vector.
type BitVector struct {
	bits  *packed.Array
	rank  RankIndex
	sel   [2]SelectIndex
	cfg   config
	built bool
}

// New returns a bit vector holding the lowest bit of each value.
func New(values []uint64, opts ...Option) *BitVector {
	bv := &BitVector{cfg: newConfig(opts)}
	bv.Reset(values)
	return bv
}

// NewSized returns a bit vector of n zeroes.
func NewSized(n uint64, opts ...Option) *BitVector {
	bv := &BitVector{cfg: newConfig(opts)}
	bv.Assign(n, 0)
	return bv
}

// FromBools returns a bit vector with a one wherever values is true.
func FromBools(values []bool, opts ...Option) *BitVector {
	bv := &BitVector{cfg: newConfig(opts)}
	bits, _ := packed.New(uint64(len(values)), 1)
	for i, v := range values {
		if v {
			bits.Write(uint64(i), 1)
		}
	}
	bv.build(bits)
	return bv
}

// Reset replaces the contents with the lowest bit of each value and rebuilds
// every index.
func (bv *BitVector) Reset(values []uint64) {
	bits, _ := packed.New(uint64(len(values)), 1)
	for i, v := range values {
		bits.Write(uint64(i), v)
	}
	bv.build(bits)
}

// Assign replaces the contents with n copies of the lowest bit of val and
// rebuilds every index.
func (bv *BitVector) Assign(n, val uint64) {
	bits := &packed.Array{}
	bits.Assign(n, val, 1)
	bv.build(bits)
}

func (bv *BitVector) build(bits *packed.Array) {
	bv.bits = bits
	bv.rank.reset(bits)
	bv.rank.build()
	for b := uint64(0); b <= 1; b++ {
		bv.sel[b].reset(bits, b, bv.cfg)
		bv.sel[b].buildWith(defaultSelectParams(bits.Size()))
	}
	bv.built = true
}

// Size returns the number of bits.
func (bv *BitVector) Size() uint64 {
	if bv.bits == nil {
		return 0
	}
	return bv.bits.Size()
}

// Read returns the bit at idx.
func (bv *BitVector) Read(idx uint64) (uint64, error) {
	if idx >= bv.Size() {
		return 0, errs.Bounds("bitvector.Read", idx, bv.Size())
	}
	return bv.bits.Get(idx), nil
}

// Get returns the bit at idx without a bounds check beyond the backing
// storage. idx must be below Size().
func (bv *BitVector) Get(idx uint64) uint64 {
	return bv.bits.Get(idx)
}

// Write always fails: a bit vector is read-only once built. Use Reset or
// Assign to replace its contents.
func (bv *BitVector) Write(idx, val uint64) error {
	return fmt.Errorf("bitvector.Write at %d: %w", idx, errs.ErrReadOnly)
}

// Rank returns the number of bits equal to bit in B[0, pos). Positions past
// the end saturate to Size().
func (bv *BitVector) Rank(pos, bit uint64) uint64 {
	if !bv.built {
		return 0
	}
	ones := bv.rank.rank(pos)
	if bit&1 == 1 {
		return ones
	}
	return min(pos, bv.Size()) - ones
}

// Select returns the position of the (k+1)-th bit equal to bit, or Size()
// when there are not that many.
func (bv *BitVector) Select(k, bit uint64) uint64 {
	if !bv.built {
		return 0
	}
	return bv.sel[bit&1].sel(k)
}

// OneNum returns the number of ones.
func (bv *BitVector) OneNum() uint64 {
	return bv.rank.TotalRank()
}

// ZeroNum returns the number of zeroes.
func (bv *BitVector) ZeroNum() uint64 {
	return bv.Size() - bv.OneNum()
}

// MemoryUsage returns the bytes held by the bits and all three indexes.
func (bv *BitVector) MemoryUsage() uint64 {
	if !bv.built {
		return 0
	}
	return bv.bits.MemoryUsage() + bv.rank.MemoryUsage() +
		bv.sel[0].MemoryUsage() + bv.sel[1].MemoryUsage()
}

// String renders the bits, e.g. "11011".
func (bv *BitVector) String() string {
	var sb strings.Builder
	for i := uint64(0); i < bv.Size(); i++ {
		sb.WriteByte('0' + byte(bv.bits.Get(i)))
	}
	return sb.String()
}
