// Package bitmask provides the word-level bit tricks the rank and select
// indexes are built on. Bits are numbered from the least significant one.
package bitmask

import (
	"fmt"
	"math/bits"

	"github.com/AlexWan0/go-wltree/errs"
)

// WordSize is the number of bits in a machine word.
const WordSize = 64

// CountBits returns the position of the highest set bit plus one (0 for 0).
func CountBits(x uint64) uint64 {
	return uint64(bits.Len64(x))
}

// IntLog returns floor(log2(x)), or -1 for x == 0.
func IntLog(x uint64) int {
	return bits.Len64(x) - 1
}

// PopCount returns the number of set bits in x.
func PopCount(x uint64) uint64 {
	return uint64(bits.OnesCount64(x))
}

// CLZ returns the number of leading zero bits in x.
func CLZ(x uint64) uint64 {
	return uint64(bits.LeadingZeros64(x))
}

// CTZ returns the number of trailing zero bits in x.
func CTZ(x uint64) uint64 {
	return uint64(bits.TrailingZeros64(x))
}

// LowMask returns a word with the n lowest bits set.
func LowMask(n uint64) uint64 {
	if n >= WordSize {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// MaskInterval keeps the bits [l, r] of x in place and clears the rest.
func MaskInterval(x, l, r uint64) (uint64, error) {
	if l > r || r >= WordSize {
		return 0, fmt.Errorf("bitmask: interval [%d, %d]: %w", l, r, errs.ErrOutOfBounds)
	}
	return x & (LowMask(r-l+1) << l), nil
}

// ClearMaskInterval clears the bits [l, r] of x.
func ClearMaskInterval(x, l, r uint64) (uint64, error) {
	m, err := MaskInterval(x, l, r)
	if err != nil {
		return 0, err
	}
	return x ^ m, nil
}

// Rank returns the number of bits equal to bit in word[0, pos).
func Rank(word, pos, bit uint64) uint64 {
	ones := PopCount(word & LowMask(pos))
	if bit&1 == 1 {
		return ones
	}
	if pos > WordSize {
		pos = WordSize
	}
	return pos - ones
}

// Select returns the position of the (k+1)-th bit equal to bit among the
// first prefixSize bits of word, or prefixSize when there are not enough.
func Select(word, k, prefixSize, bit uint64) uint64 {
	if bit&1 == 0 {
		word = ^word
	}
	word &= LowMask(prefixSize)
	for ; k > 0 && word != 0; k-- {
		word &= word - 1
	}
	if word == 0 {
		return prefixSize
	}
	return CTZ(word)
}
