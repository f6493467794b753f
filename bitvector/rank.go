package bitvector

import (
	"fmt"

	"github.com/AlexWan0/go-wltree/errs"
	"github.com/AlexWan0/go-wltree/internal/bitmask"
	"github.com/AlexWan0/go-wltree/packed"
)

// RankIndex answers rank queries over a bit array in constant time
// (Jacobson's two-level directory).
//
// The array is split into big blocks of (log n + 1)^2 bits and small blocks
// of log n + 1 bits. For every big block the number of ones before it is
// stored, and for every small block the number of ones between the start of
// its big block and itself. The bits of a small block always fit in one word,
// so the rest of a query is a single popcount.
//
// The index does not own the bits; it must be rebuilt if they change.
type RankIndex struct {
	bits           *packed.Array
	smallBlockSize uint64
	bigBlockSize   uint64
	bigBlockRank   *packed.Array
	smallBlockRank *packed.Array
	totalRank      uint64
	built          bool
}

// NewRankIndex returns an unbuilt rank index over bits, which must have
// width 1.
func NewRankIndex(bits *packed.Array) (*RankIndex, error) {
	ri := &RankIndex{}
	if err := ri.reset(bits); err != nil {
		return nil, err
	}
	return ri, nil
}

func (ri *RankIndex) reset(bits *packed.Array) error {
	if bits == nil || bits.Width() != 1 {
		return fmt.Errorf("bitvector: rank index needs a bit array: %w", errs.ErrInvalidArgument)
	}
	*ri = RankIndex{bits: bits}
	return nil
}

// Build scans the bits and fills both block directories.
func (ri *RankIndex) Build() error {
	if ri.bits == nil {
		return fmt.Errorf("bitvector: rank index has no bits: %w", errs.ErrInvalidArgument)
	}
	ri.build()
	return nil
}

func (ri *RankIndex) build() {
	n := ri.bits.Size()
	logn := max(bitmask.CountBits(n), 1)
	ri.smallBlockSize = logn
	ri.bigBlockSize = logn * logn
	// widths come from validated constants, Resize cannot fail here
	ri.bigBlockRank, _ = packed.New(1+n/ri.bigBlockSize, logn)
	ri.smallBlockRank, _ = packed.New(1+n/ri.smallBlockSize, bitmask.CountBits(ri.bigBlockSize))

	bigSum, smallSum := uint64(0), uint64(0)
	for i := uint64(0); i < n; i++ {
		if i%ri.bigBlockSize == 0 {
			ri.bigBlockRank.Write(i/ri.bigBlockSize, bigSum)
			smallSum = 0
		}
		if i%ri.smallBlockSize == 0 {
			ri.smallBlockRank.Write(i/ri.smallBlockSize, smallSum)
		}
		bit := ri.bits.Get(i)
		bigSum += bit
		smallSum += bit
	}
	ri.totalRank = bigSum
	ri.built = true
}

// Rank returns the number of ones in bits[0, pos). Positions past the end
// saturate to TotalRank().
func (ri *RankIndex) Rank(pos uint64) (uint64, error) {
	if !ri.built {
		return 0, errs.ErrNotBuilt
	}
	return ri.rank(pos), nil
}

func (ri *RankIndex) rank(pos uint64) uint64 {
	if pos >= ri.bits.Size() {
		return ri.totalRank
	}
	small := pos / ri.smallBlockSize
	start := small * ri.smallBlockSize
	// [start, pos] is inclusive, so the bit at pos is counted and taken back
	word, _ := ri.bits.ReadBits(start, pos)
	return ri.bigBlockRank.Get(pos/ri.bigBlockSize) +
		ri.smallBlockRank.Get(small) +
		bitmask.PopCount(word) - (word >> (pos - start))
}

// TotalRank returns the number of ones in the whole array.
func (ri *RankIndex) TotalRank() uint64 {
	return ri.totalRank
}

// Built reports whether Build has run.
func (ri *RankIndex) Built() bool {
	return ri.built
}

// MemoryUsage returns the bytes held by the directories, not the bits.
func (ri *RankIndex) MemoryUsage() uint64 {
	if !ri.built {
		return 0
	}
	return ri.bigBlockRank.MemoryUsage() + ri.smallBlockRank.MemoryUsage() + 4*8
}
