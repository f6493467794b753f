package wltree

import (
	"github.com/AlexWan0/go-wltree/bitvector"
	"github.com/AlexWan0/go-wltree/errs"
)

// Range represents a range [Bpos, Epos)
// only valid for Bpos <= Epos
type Range struct {
	Bpos uint64
	Epos uint64
}

const (
	// OpEqual is used in RangedRankOp()
	OpEqual = iota
	// OpLessThan is used in RangedRankOp()
	OpLessThan
	// OpMoreThan is used in RangedRankOp()
	OpMoreThan
	// OpMax is upper boundary for OpXXXX constants
	OpMax
)

// WaveletMatrix answers the same queries as WaveletTree with one bit vector
// per bit of the largest value instead of one per node. Layer d holds bit
// (blen-d-1) of every value, stably sorted by the bits above it, zeroes
// first.
type WaveletMatrix struct {
	layers []*bitvector.BitVector
	zeros  []uint64
	num    uint64
	max    uint64
	blen   uint64 // =len(layers)
}

// NewMatrix builds a wavelet matrix over values.
func NewMatrix(values []uint64, opts ...Option) *WaveletMatrix {
	b := &Builder{vals: values}
	return b.BuildMatrix(opts...)
}

// Num return the number of values in T
func (wm *WaveletMatrix) Num() uint64 {
	return wm.num
}

// Max returns the largest value in T, 0 when T is empty.
func (wm *WaveletMatrix) Max() uint64 {
	return wm.max
}

func (wm *WaveletMatrix) fits(val uint64) bool {
	return wm.blen > 0 && val>>wm.blen == 0
}

// down maps pos on layer depth to the next layer along bit.
func (wm *WaveletMatrix) down(depth, pos uint64, bit uint64) uint64 {
	if bit == 0 {
		return wm.layers[depth].Rank(pos, 0)
	}
	return wm.zeros[depth] + wm.layers[depth].Rank(pos, 1)
}

// Access returns T[pos].
func (wm *WaveletMatrix) Access(pos uint64) (uint64, error) {
	if pos >= wm.num {
		return 0, errs.Bounds("wltree.WaveletMatrix.Access", pos, wm.num)
	}
	val := uint64(0)
	for depth := uint64(0); depth < wm.blen; depth++ {
		bit := wm.layers[depth].Get(pos)
		val = val<<1 | bit
		pos = wm.down(depth, pos, bit)
	}
	return val, nil
}

// AccessAndRank returns T[pos] and Rank(pos, T[pos]) in a single descent.
func (wm *WaveletMatrix) AccessAndRank(pos uint64) (uint64, uint64, error) {
	if pos >= wm.num {
		return 0, 0, errs.Bounds("wltree.WaveletMatrix.AccessAndRank", pos, wm.num)
	}
	val := uint64(0)
	bpos, epos := uint64(0), pos
	for depth := uint64(0); depth < wm.blen; depth++ {
		bit := wm.layers[depth].Get(epos)
		val = val<<1 | bit
		bpos = wm.down(depth, bpos, bit)
		epos = wm.down(depth, epos, bit)
	}
	return val, epos - bpos, nil
}

// Rank returns the number of c (== val) in T[0...pos)
func (wm *WaveletMatrix) Rank(pos uint64, val uint64) uint64 {
	return wm.RangedRankOp(Range{0, pos}, val, OpEqual)
}

// RankLessThan returns the number of c (< val) in T[0...pos)
func (wm *WaveletMatrix) RankLessThan(pos uint64, val uint64) uint64 {
	return wm.RangedRankOp(Range{0, pos}, val, OpLessThan)
}

// RankMoreThan returns the number of c (> val) in T[0...pos)
func (wm *WaveletMatrix) RankMoreThan(pos uint64, val uint64) uint64 {
	return wm.RangedRankOp(Range{0, pos}, val, OpMoreThan)
}

// RangeCount returns the number of val in T[ranze.Bpos, ranze.Epos).
func (wm *WaveletMatrix) RangeCount(ranze Range, val uint64) uint64 {
	return wm.RangedRankOp(ranze, val, OpEqual)
}

// RangedRankOp returns the number of c that satisfies 'c op val'
// in T[ranze.Bpos, ranze.Epos). Epos is clamped to Num().
// The op should be one of {OpEqual, OpLessThan, OpMoreThan}.
func (wm *WaveletMatrix) RangedRankOp(ranze Range, val uint64, op int) uint64 {
	ranze.Epos = min(ranze.Epos, wm.num)
	if ranze.Bpos >= ranze.Epos {
		return 0
	}
	if !wm.fits(val) {
		// val is larger than every value in T
		switch op {
		case OpLessThan:
			return ranze.Epos - ranze.Bpos
		default:
			return 0
		}
	}
	var less, more uint64
	for depth := uint64(0); depth < wm.blen; depth++ {
		bit := getMSB(val, depth, wm.blen)
		layer := wm.layers[depth]
		switch {
		case bit == 1 && op == OpLessThan:
			less += layer.Rank(ranze.Epos, 0) - layer.Rank(ranze.Bpos, 0)
		case bit == 0 && op == OpMoreThan:
			more += layer.Rank(ranze.Epos, 1) - layer.Rank(ranze.Bpos, 1)
		}
		ranze.Bpos = wm.down(depth, ranze.Bpos, bit)
		ranze.Epos = wm.down(depth, ranze.Epos, bit)
	}
	switch op {
	case OpEqual:
		return ranze.Epos - ranze.Bpos
	case OpLessThan:
		return less
	case OpMoreThan:
		return more
	default:
		return 0
	}
}

// RangedRankRange searches T[ranze.Bpos, ranze.Epos) and
// returns the number of c that falls within valueRange
// i.e. [valueRange.Bpos, valueRange.Epos).
func (wm *WaveletMatrix) RangedRankRange(ranze Range, valueRange Range) uint64 {
	if valueRange.Bpos >= valueRange.Epos {
		return 0
	}
	end := wm.RangedRankOp(ranze, valueRange.Epos, OpLessThan)
	beg := wm.RangedRankOp(ranze, valueRange.Bpos, OpLessThan)
	return end - beg
}

// prefixRange narrows ranze to the values that share val's bits above the
// lowest ignoreBits, and returns it in the coordinates of the layer where
// the descent stopped.
func (wm *WaveletMatrix) prefixRange(ranze Range, val, ignoreBits uint64) Range {
	for depth := uint64(0); depth+ignoreBits < wm.blen; depth++ {
		bit := getMSB(val, depth, wm.blen)
		ranze.Bpos = wm.down(depth, ranze.Bpos, bit)
		ranze.Epos = wm.down(depth, ranze.Epos, bit)
	}
	return ranze
}

// RangedRankIgnoreLSBs searches T[ranze.Bpos, ranze.Epos) and returns the
// number of c whose bits above the lowest ignoreBits match val's. With
// ignoreBits = 8 this counts IPv4 addresses in a /24 such as 192.168.10.0/24.
func (wm *WaveletMatrix) RangedRankIgnoreLSBs(ranze Range, val, ignoreBits uint64) uint64 {
	ranze.Epos = min(ranze.Epos, wm.num)
	if ranze.Bpos >= ranze.Epos {
		return 0
	}
	if ignoreBits >= wm.blen {
		return ranze.Epos - ranze.Bpos
	}
	if !wm.fits(val) {
		return 0
	}
	r := wm.prefixRange(ranze, val, ignoreBits)
	return r.Epos - r.Bpos
}

// RangedSelectIgnoreLSBs returns the position of the (rank+1)-th c in
// T[ranze.Bpos, ranze.Epos) whose bits above the lowest ignoreBits match
// val's, or ranze.Epos if there is none.
func (wm *WaveletMatrix) RangedSelectIgnoreLSBs(ranze Range, rank, val, ignoreBits uint64) uint64 {
	ranze.Epos = min(ranze.Epos, wm.num)
	if ranze.Bpos >= ranze.Epos || !wm.fits(val) {
		return ranze.Epos
	}
	ignoreBits = min(ignoreBits, wm.blen)
	r := wm.prefixRange(ranze, val, ignoreBits)
	pos := r.Bpos + rank
	if r.Epos <= pos {
		return ranze.Epos
	}
	// climb back up from the layer the descent stopped at
	for depth := ignoreBits; depth < wm.blen; depth++ {
		layer := wm.blen - depth - 1
		if getLSB(val, depth) == 1 {
			pos = wm.layers[layer].Select(pos-wm.zeros[layer], 1)
		} else {
			pos = wm.layers[layer].Select(pos, 0)
		}
	}
	return pos
}

// RangedSelect returns the position of the (rank+1)-th val in
// T[ranze.Bpos, ranze.Epos), or ranze.Epos if there is none.
func (wm *WaveletMatrix) RangedSelect(ranze Range, rank uint64, val uint64) uint64 {
	return wm.RangedSelectIgnoreLSBs(ranze, rank, val, 0)
}

// Select returns the position of (rank+1)-th val in T.
// If not found, returns Num().
func (wm *WaveletMatrix) Select(rank uint64, val uint64) uint64 {
	if !wm.fits(val) || wm.Rank(wm.num, val) <= rank {
		return wm.num
	}
	return wm.selectHelper(rank, val, 0, 0)
}

func (wm *WaveletMatrix) selectHelper(rank uint64, val uint64, pos uint64, depth uint64) uint64 {
	if depth == wm.blen {
		return pos + rank
	}
	bit := getMSB(val, depth, wm.blen)
	pos = wm.down(depth, pos, bit)
	below := wm.selectHelper(rank, val, pos, depth+1)
	if bit == 1 {
		below -= wm.zeros[depth]
	}
	return wm.layers[depth].Select(below, bit)
}

// Quantile returns (k+1)th smallest value in T[ranze.Bpos, ranze.Epos),
// and false when the range holds at most k values.
func (wm *WaveletMatrix) Quantile(ranze Range, k uint64) (uint64, bool) {
	bpos, epos := ranze.Bpos, min(ranze.Epos, wm.num)
	if bpos >= epos || k >= epos-bpos {
		return 0, false
	}
	val := uint64(0)
	for depth := uint64(0); depth < wm.blen; depth++ {
		layer := wm.layers[depth]
		nzBpos := layer.Rank(bpos, 0)
		nzEpos := layer.Rank(epos, 0)
		val <<= 1
		if nz := nzEpos - nzBpos; k < nz {
			bpos, epos = nzBpos, nzEpos
		} else {
			k -= nz
			val |= 1
			bpos = wm.zeros[depth] + bpos - nzBpos
			epos = wm.zeros[depth] + epos - nzEpos
		}
	}
	return val, true
}

// Intersect returns, in increasing order, the values that occur in at
// least k of the ranges.
func (wm *WaveletMatrix) Intersect(ranges []Range, k int) []uint64 {
	if k <= 0 || wm.num == 0 {
		return []uint64{}
	}
	clamped := make([]Range, 0, len(ranges))
	for _, ranze := range ranges {
		ranze.Epos = min(ranze.Epos, wm.num)
		if ranze.Bpos < ranze.Epos {
			clamped = append(clamped, ranze)
		}
	}
	if len(clamped) < k {
		return []uint64{}
	}
	return wm.intersectHelper(clamped, k, 0, 0)
}

func (wm *WaveletMatrix) intersectHelper(ranges []Range, k int, depth uint64, prefix uint64) []uint64 {
	if depth == wm.blen {
		return []uint64{prefix}
	}
	layer := wm.layers[depth]
	zeroRanges := make([]Range, 0, len(ranges))
	oneRanges := make([]Range, 0, len(ranges))
	for _, ranze := range ranges {
		nzBpos := layer.Rank(ranze.Bpos, 0)
		nzEpos := layer.Rank(ranze.Epos, 0)
		noBpos := ranze.Bpos - nzBpos + wm.zeros[depth]
		noEpos := ranze.Epos - nzEpos + wm.zeros[depth]
		if nzEpos > nzBpos {
			zeroRanges = append(zeroRanges, Range{nzBpos, nzEpos})
		}
		if noEpos > noBpos {
			oneRanges = append(oneRanges, Range{noBpos, noEpos})
		}
	}
	ret := make([]uint64, 0)
	if len(zeroRanges) >= k {
		ret = append(ret, wm.intersectHelper(zeroRanges, k, depth+1, prefix<<1)...)
	}
	if len(oneRanges) >= k {
		ret = append(ret, wm.intersectHelper(oneRanges, k, depth+1, (prefix<<1)|1)...)
	}
	return ret
}

// MemoryUsage returns an estimate of the bytes held by the matrix.
func (wm *WaveletMatrix) MemoryUsage() uint64 {
	total := 3*8 + 8*uint64(len(wm.zeros))
	for _, layer := range wm.layers {
		total += layer.MemoryUsage()
	}
	return total
}

func getMSB(x uint64, pos uint64, blen uint64) uint64 {
	return (x >> (blen - pos - 1)) & 1
}

func getLSB(val, depth uint64) uint64 {
	return (val >> depth) & 1
}
