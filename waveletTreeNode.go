package wltree

import (
	"github.com/AlexWan0/go-wltree/bitvector"
)

// node covers the values in [low, high] of one contiguous slice of the
// partitioned sequence. Bit i of bitvec tells whether the i-th element went
// right (value > mid). Leaves have low == high and no bit vector; a child is
// nil when no element went that way.
type node struct {
	low    uint64
	high   uint64
	count  uint64
	bitvec *bitvector.BitVector
	left   *node
	right  *node
}

// buildNode stable-partitions values in place around the middle of
// [low, high] and recurses on both halves. scratch must be at least as long
// as values.
func buildNode(values, scratch []uint64, low, high uint64, opts []bitvector.Option) *node {
	nd := &node{low: low, high: high, count: uint64(len(values))}
	if low == high {
		return nd
	}
	mid := nd.mid()
	bits := make([]uint64, len(values))
	pivot, right := 0, 0
	for i, v := range values {
		if v <= mid {
			values[pivot] = v
			pivot++
		} else {
			bits[i] = 1
			scratch[right] = v
			right++
		}
	}
	copy(values[pivot:], scratch[:right])
	nd.bitvec = bitvector.New(bits, opts...)

	if pivot > 0 {
		nd.left = buildNode(values[:pivot], scratch, low, mid, opts)
	}
	if right > 0 {
		nd.right = buildNode(values[pivot:], scratch, mid+1, high, opts)
	}
	return nd
}

func (nd *node) mid() uint64 {
	return nd.low + (nd.high-nd.low)/2
}

func (nd *node) leaf() bool {
	return nd.low == nd.high
}

func (nd *node) child(bit uint64) *node {
	if bit == 0 {
		return nd.left
	}
	return nd.right
}

// side returns the bit of the child whose value range holds c.
func (nd *node) side(c uint64) uint64 {
	if c <= nd.mid() {
		return 0
	}
	return 1
}

// selectPos returns the position of the (k+1)-th c below nd, or nd.count
// when there are not that many.
func (nd *node) selectPos(k, c uint64) uint64 {
	if nd.leaf() {
		return min(k, nd.count)
	}
	bit := nd.side(c)
	next := nd.child(bit)
	if next == nil {
		return nd.count
	}
	return nd.bitvec.Select(next.selectPos(k, c), bit)
}

// nextValuePos returns the smallest position in [l, r) whose value is >= val,
// or r when there is none.
func (nd *node) nextValuePos(l, r, val uint64) uint64 {
	if l >= r {
		return r
	}
	if nd.leaf() {
		if nd.low < val {
			return r
		}
		return l
	}
	bv := nd.bitvec
	if val > nd.mid() {
		if nd.right == nil {
			return r
		}
		lr, rr := bv.Rank(l, 1), bv.Rank(r, 1)
		below := nd.right.nextValuePos(lr, rr, val)
		if below >= rr {
			return r
		}
		return bv.Select(below, 1)
	}
	// every element that went right is > mid >= val
	ansRight := r
	if ones := bv.Rank(l, 1); ones < bv.Rank(r, 1) {
		ansRight = bv.Select(ones, 1)
	}
	ansLeft := r
	if nd.left != nil {
		ll, rl := bv.Rank(l, 0), bv.Rank(r, 0)
		if below := nd.left.nextValuePos(ll, rl, val); below < rl {
			ansLeft = bv.Select(below, 0)
		}
	}
	return min(ansLeft, ansRight)
}

// report adds the frequency of every value in [l, r) to result.
func (nd *node) report(l, r uint64, result map[uint64]uint64) {
	if l >= r {
		return
	}
	if nd.leaf() {
		result[nd.low] += r - l
		return
	}
	if nd.left != nil {
		nd.left.report(nd.bitvec.Rank(l, 0), nd.bitvec.Rank(r, 0), result)
	}
	if nd.right != nil {
		nd.right.report(nd.bitvec.Rank(l, 1), nd.bitvec.Rank(r, 1), result)
	}
}

func (nd *node) nodes() uint64 {
	if nd == nil {
		return 0
	}
	return 1 + nd.left.nodes() + nd.right.nodes()
}

func (nd *node) memoryUsage() uint64 {
	if nd == nil {
		return 0
	}
	total := uint64(6*8) + nd.left.memoryUsage() + nd.right.memoryUsage()
	if nd.bitvec != nil {
		total += nd.bitvec.MemoryUsage()
	}
	return total
}
