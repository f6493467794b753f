// Package wltree provides a wavelet tree and a wavelet matrix over integer
// sequences, built on the succinct bit vectors of package bitvector.
// They support access, rank/select, range counting, successor, quantile and
// most-frequent queries in O(log σ) time, σ being the alphabet size.
//
// Example
//
//	wt := wltree.New([]uint64{1, 2, 3, 1, 2, 4})
//	wt.Rank(4, 1)           //=> 2, number of 1s in wt[0, 4)
//	wt.Select(1, 2)         //=> 4, position of the second 2
//	wt.RangeCount(0, 5, 2)  //=> 2, number of 2s in wt[0..5]
//	wt.RangeNextValuePos(1, 5, 3) //=> 2, first position in [1..5] holding a value >= 3
package wltree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/AlexWan0/go-wltree/errs"
)

// WaveletTree is an immutable index over a sequence T[0, Size()) of
// integers. Node i splits its value range [low, high] at the middle and
// keeps one bit vector telling, for each of its elements, which half it
// belongs to.
//
// Public intervals [l, r] are inclusive. The zero value is an unbuilt tree;
// call Reset before querying it.
type WaveletTree struct {
	root  *node
	low   uint64
	high  uint64
	size  uint64
	cfg   config
	built bool
}

// Frequency is a value together with its number of occurrences.
type Frequency struct {
	Value uint64
	Count uint64
}

// New builds a wavelet tree over values.
func New(values []uint64, opts ...Option) *WaveletTree {
	wt := &WaveletTree{}
	wt.Reset(values, opts...)
	return wt
}

// Reset discards the current tree and builds a new one over values. values
// itself is not modified.
func (wt *WaveletTree) Reset(values []uint64, opts ...Option) {
	if len(opts) > 0 || !wt.built {
		wt.cfg = newConfig(opts)
	}
	wt.root = nil
	wt.size = uint64(len(values))
	wt.low, wt.high = 0, 0
	wt.built = true
	if len(values) == 0 {
		wt.cfg.logger.Debug().Msg("wavelet tree built over an empty sequence")
		return
	}
	wt.low, wt.high = slices.Min(values), slices.Max(values)
	vals := slices.Clone(values)
	scratch := make([]uint64, len(vals))
	wt.root = buildNode(vals, scratch, wt.low, wt.high, wt.cfg.bitVectorOptions())

	wt.cfg.logger.Debug().
		Uint64("size", wt.size).
		Uint64("low", wt.low).
		Uint64("high", wt.high).
		Uint64("nodes", wt.root.nodes()).
		Uint64("bytes", wt.MemoryUsage()).
		Msg("wavelet tree built")
}

// Size returns the length of the sequence.
func (wt *WaveletTree) Size() uint64 {
	return wt.size
}

// Low returns the smallest value of the sequence.
func (wt *WaveletTree) Low() uint64 {
	return wt.low
}

// High returns the largest value of the sequence.
func (wt *WaveletTree) High() uint64 {
	return wt.high
}

func (wt *WaveletTree) checkValue(c uint64) bool {
	return wt.root != nil && c >= wt.low && c <= wt.high
}

func (wt *WaveletTree) checkInterval(l, r uint64) bool {
	return wt.root != nil && l <= r && r < wt.size
}

// Access returns T[idx].
func (wt *WaveletTree) Access(idx uint64) (uint64, error) {
	if !wt.built {
		return 0, errs.ErrNotBuilt
	}
	if idx >= wt.size {
		return 0, errs.Bounds("wltree.Access", idx, wt.size)
	}
	nd := wt.root
	for !nd.leaf() {
		bit := nd.bitvec.Get(idx)
		idx = nd.bitvec.Rank(idx, bit)
		nd = nd.child(bit)
	}
	return nd.low, nil
}

// Rank returns the number of c in T[0, pos). pos is clamped to Size(), and
// values outside [Low(), High()] have rank 0.
func (wt *WaveletTree) Rank(pos, c uint64) uint64 {
	if !wt.checkValue(c) {
		return 0
	}
	pos = min(pos, wt.size)
	nd := wt.root
	for nd != nil && !nd.leaf() {
		bit := nd.side(c)
		pos = nd.bitvec.Rank(pos, bit)
		nd = nd.child(bit)
	}
	if nd == nil {
		return 0
	}
	return pos
}

// Select returns the position of the (k+1)-th c in T, or Size() if there
// are not that many.
func (wt *WaveletTree) Select(k, c uint64) uint64 {
	if !wt.checkValue(c) {
		return wt.size
	}
	return wt.root.selectPos(k, c)
}

// RangeCount returns the number of val in T[l..r]. It returns 0 for an
// invalid interval.
func (wt *WaveletTree) RangeCount(l, r, val uint64) uint64 {
	if !wt.checkValue(val) || !wt.checkInterval(l, r) {
		return 0
	}
	r++
	nd := wt.root
	for nd != nil && !nd.leaf() {
		bit := nd.side(val)
		l = nd.bitvec.Rank(l, bit)
		r = nd.bitvec.Rank(r, bit)
		nd = nd.child(bit)
	}
	if nd == nil || nd.low != val {
		return 0
	}
	return r - l
}

// RankLessThan returns the number of values smaller than val in T[0, pos).
func (wt *WaveletTree) RankLessThan(pos, val uint64) uint64 {
	if wt.root == nil || val <= wt.low {
		return 0
	}
	pos = min(pos, wt.size)
	if val > wt.high {
		return pos
	}
	less := uint64(0)
	nd := wt.root
	for nd != nil && !nd.leaf() {
		if val > nd.mid() {
			// the whole left half is <= mid < val
			less += nd.bitvec.Rank(pos, 0)
			pos = nd.bitvec.Rank(pos, 1)
			nd = nd.right
		} else {
			pos = nd.bitvec.Rank(pos, 0)
			nd = nd.left
		}
	}
	if nd != nil && nd.low < val {
		less += pos
	}
	return less
}

// RangeNextValuePos returns the smallest i in [l, r] with T[i] >= val, or
// r+1 when there is none or the interval is invalid.
func (wt *WaveletTree) RangeNextValuePos(l, r, val uint64) uint64 {
	if !wt.checkInterval(l, r) {
		return r + 1
	}
	return min(wt.root.nextValuePos(l, r+1, val), r+1)
}

// RangeNextValue returns T[i] for the i RangeNextValuePos finds, and false
// when there is none.
func (wt *WaveletTree) RangeNextValue(l, r, val uint64) (uint64, bool) {
	pos := wt.RangeNextValuePos(l, r, val)
	if pos > r {
		return 0, false
	}
	v, err := wt.Access(pos)
	return v, err == nil
}

// RangeReport returns the frequency of every value in T[l..r]. The map is
// empty for an invalid interval.
func (wt *WaveletTree) RangeReport(l, r uint64) map[uint64]uint64 {
	result := make(map[uint64]uint64)
	if !wt.checkInterval(l, r) {
		return result
	}
	wt.root.report(l, r+1, result)
	return result
}

// Quantile returns the (k+1)-th smallest value in T[l..r], and false if
// the interval is invalid or holds at most k values.
func (wt *WaveletTree) Quantile(l, r, k uint64) (uint64, bool) {
	if !wt.checkInterval(l, r) || k > r-l {
		return 0, false
	}
	r++
	nd := wt.root
	for !nd.leaf() {
		zl, zr := nd.bitvec.Rank(l, 0), nd.bitvec.Rank(r, 0)
		if k < zr-zl {
			l, r = zl, zr
			nd = nd.left
		} else {
			k -= zr - zl
			l, r = l-zl, r-zr
			nd = nd.right
		}
	}
	return nd.low, true
}

// TopK returns up to k of the most frequent values in T[l..r], by
// decreasing count and then increasing value.
func (wt *WaveletTree) TopK(l, r uint64, k int) []Frequency {
	if k <= 0 {
		return nil
	}
	heap := binaryheap.NewWith(func(a, b interface{}) int {
		fa, fb := a.(Frequency), b.(Frequency)
		switch {
		case fa.Count != fb.Count:
			if fa.Count > fb.Count {
				return -1
			}
			return 1
		case fa.Value < fb.Value:
			return -1
		case fa.Value > fb.Value:
			return 1
		}
		return 0
	})
	for v, c := range wt.RangeReport(l, r) {
		heap.Push(Frequency{Value: v, Count: c})
	}
	top := make([]Frequency, 0, min(k, heap.Size()))
	for len(top) < k {
		f, ok := heap.Pop()
		if !ok {
			break
		}
		top = append(top, f.(Frequency))
	}
	return top
}

// MemoryUsage returns an estimate of the bytes held by the tree.
func (wt *WaveletTree) MemoryUsage() uint64 {
	return 4*8 + wt.root.memoryUsage()
}

// String lists the sequence, e.g. "WaveletTree: [1,2,3]".
func (wt *WaveletTree) String() string {
	var sb strings.Builder
	sb.WriteString("WaveletTree: [")
	for i := uint64(0); i < wt.size; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		v, _ := wt.Access(i)
		fmt.Fprintf(&sb, "%d", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
