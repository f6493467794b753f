package bitvector

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/AlexWan0/go-wltree/errs"
	"github.com/AlexWan0/go-wltree/internal/bitmask"
	"github.com/AlexWan0/go-wltree/packed"
)

// selectParams are the block parameters of a SelectIndex. All weights count
// occurrences of the indexed bit value, all thresholds count positions.
type selectParams struct {
	logn           uint64
	bigWeight      uint64 // (log n)^2
	bigThreshold   uint64 // (log n)^4
	smallWeight    uint64 // ceil(sqrt(log n))
	smallThreshold uint64 // log n / 2 + 1, never above a word
}

func defaultSelectParams(n uint64) selectParams {
	logn := max(bitmask.CountBits(n), 1)
	w := uint64(math.Sqrt(float64(logn)))
	for w*w < logn {
		w++
	}
	return selectParams{
		logn:           logn,
		bigWeight:      logn * logn,
		bigThreshold:   logn * logn * logn * logn,
		smallWeight:    max(w, 1),
		smallThreshold: logn/2 + 1,
	}
}

// SelectIndex answers select queries for one bit value in constant time
// (Clark's sparse/dense directory).
//
// Occurrences are grouped in big blocks of (log n)^2. A big block spanning
// at least (log n)^4 positions is sparse and stores the offset of each of its
// occurrences; sparse blocks are rare, so their tables are packed together
// and addressed through a RankIndex over the sparse-block bitmap. Dense big
// blocks are cut into small blocks of ceil(sqrt(log n)) occurrences that are
// classified the same way against log n / 2 + 1 positions. A dense small
// block fits in one word and is answered with an in-word select.
//
// The index does not own the bits; it must be rebuilt if they change.
type SelectIndex struct {
	bits   *packed.Array
	bit    uint64
	params selectParams
	total  uint64

	smallPerBig uint64
	// position of the first occurrence of each big block
	bigBlockSelect *packed.Array
	// offset of the first occurrence of each small block from its big block
	smallBlockSelect *packed.Array

	bigSparse       *packed.Array
	bigSparseRank   RankIndex
	bigSparseLookup *packed.Array // (sparse big block, occurrence) -> offset

	smallSparse       *packed.Array
	smallSparseRank   RankIndex
	smallSparseLookup *packed.Array // (sparse small block, occurrence) -> offset

	logger zerolog.Logger
	built  bool
}

// NewSelectIndex returns an unbuilt select index for the occurrences of bit
// (0 or 1) in bits, which must have width 1.
func NewSelectIndex(bits *packed.Array, bit uint64, opts ...Option) (*SelectIndex, error) {
	si := &SelectIndex{}
	if err := si.reset(bits, bit, newConfig(opts)); err != nil {
		return nil, err
	}
	return si, nil
}

func (si *SelectIndex) reset(bits *packed.Array, bit uint64, cfg config) error {
	if bits == nil || bits.Width() != 1 {
		return fmt.Errorf("bitvector: select index needs a bit array: %w", errs.ErrInvalidArgument)
	}
	if bit > 1 {
		return fmt.Errorf("bitvector: select bit value %d: %w", bit, errs.ErrInvalidArgument)
	}
	*si = SelectIndex{bits: bits, bit: bit, logger: cfg.logger}
	return nil
}

// Build scans the bits twice: once to place and classify the blocks, once to
// fill the lookup tables of the sparse ones.
func (si *SelectIndex) Build() error {
	if si.bits == nil {
		return fmt.Errorf("bitvector: select index has no bits: %w", errs.ErrInvalidArgument)
	}
	si.buildWith(defaultSelectParams(si.bits.Size()))
	return nil
}

func (si *SelectIndex) buildWith(p selectParams) {
	n := si.bits.Size()
	si.params = p
	si.smallPerBig = (p.bigWeight + p.smallWeight - 1) / p.smallWeight
	nBigMax := 1 + n/p.bigWeight

	offsetWidth := max(bitmask.CountBits(n), 1)
	si.bigBlockSelect, _ = packed.New(nBigMax, offsetWidth)
	si.smallBlockSelect, _ = packed.New(nBigMax*si.smallPerBig, bitmask.CountBits(p.bigThreshold))

	si.buildBlocks()
	nBig := (si.total + p.bigWeight - 1) / p.bigWeight
	si.buildBigSparse(nBig)
	si.buildSmallSparse(nBig)
	si.buildLookups()
	si.built = true

	si.logger.Debug().
		Uint64("n", n).
		Uint64("bit", si.bit).
		Uint64("logn", p.logn).
		Uint64("bigWeight", p.bigWeight).
		Uint64("bigThreshold", p.bigThreshold).
		Uint64("smallWeight", p.smallWeight).
		Uint64("smallThreshold", p.smallThreshold).
		Uint64("occurrences", si.total).
		Uint64("bigBlocks", nBig).
		Uint64("sparseBig", si.bigSparseRank.TotalRank()).
		Uint64("sparseSmall", si.smallSparseRank.TotalRank()).
		Msg("select index built")
}

// buildBlocks records where every big and small block starts. Small block
// offsets are truncated inside sparse big blocks; buildSmallSparse clears them.
func (si *SelectIndex) buildBlocks() {
	p := si.params
	n := si.bits.Size()
	count := uint64(0)
	bigStart := uint64(0)
	for i := uint64(0); i < n; i++ {
		if si.bits.Get(i) != si.bit {
			continue
		}
		big, inBig := count/p.bigWeight, count%p.bigWeight
		if inBig == 0 {
			bigStart = i
			si.bigBlockSelect.Write(big, i)
		}
		if inBig%p.smallWeight == 0 {
			si.smallBlockSelect.Write(big*si.smallPerBig+inBig/p.smallWeight, i-bigStart)
		}
		count++
	}
	si.total = count
}

func (si *SelectIndex) bigBlockEnd(big, nBig uint64) uint64 {
	if big+1 < nBig {
		return si.bigBlockSelect.Get(big + 1)
	}
	return si.bits.Size()
}

func (si *SelectIndex) buildBigSparse(nBig uint64) {
	si.bigSparse, _ = packed.New(nBig, 1)
	for big := uint64(0); big < nBig; big++ {
		span := si.bigBlockEnd(big, nBig) - si.bigBlockSelect.Get(big)
		if span >= si.params.bigThreshold {
			si.bigSparse.Write(big, 1)
		}
	}
	si.bigSparseRank.reset(si.bigSparse)
	si.bigSparseRank.build()
	si.bigSparseLookup, _ = packed.New(si.bigSparseRank.TotalRank()*si.params.bigWeight, max(bitmask.CountBits(si.bits.Size()), 1))
}

func (si *SelectIndex) buildSmallSparse(nBig uint64) {
	p := si.params
	si.smallSparse, _ = packed.New(nBig*si.smallPerBig, 1)
	for big := uint64(0); big < nBig; big++ {
		first := big * si.smallPerBig
		if si.bigSparse.Get(big) == 1 {
			for s := first; s < first+si.smallPerBig; s++ {
				si.smallBlockSelect.Write(s, 0)
			}
			continue
		}
		bigStart := si.bigBlockSelect.Get(big)
		bigEnd := si.bigBlockEnd(big, nBig)
		for t := uint64(0); t < si.smallPerBig; t++ {
			occ := big*p.bigWeight + t*p.smallWeight
			if occ >= si.total {
				break
			}
			s := first + t
			start := bigStart + si.smallBlockSelect.Get(s)
			end := bigEnd
			if t+1 < si.smallPerBig && occ+p.smallWeight < si.total {
				end = bigStart + si.smallBlockSelect.Get(s+1)
			}
			if end-start >= p.smallThreshold {
				si.smallSparse.Write(s, 1)
			}
		}
	}
	si.smallSparseRank.reset(si.smallSparse)
	si.smallSparseRank.build()
	si.smallSparseLookup, _ = packed.New(si.smallSparseRank.TotalRank()*p.smallWeight, bitmask.CountBits(p.bigThreshold))
}

func (si *SelectIndex) buildLookups() {
	p := si.params
	n := si.bits.Size()
	count := uint64(0)
	for i := uint64(0); i < n; i++ {
		if si.bits.Get(i) != si.bit {
			continue
		}
		big, inBig := count/p.bigWeight, count%p.bigWeight
		count++
		bigStart := si.bigBlockSelect.Get(big)
		if si.bigSparse.Get(big) == 1 {
			si.bigSparseLookup.Write(si.bigSparseRank.rank(big)*p.bigWeight+inBig, i-bigStart)
			continue
		}
		s := big*si.smallPerBig + inBig/p.smallWeight
		if si.smallSparse.Get(s) == 1 {
			start := bigStart + si.smallBlockSelect.Get(s)
			si.smallSparseLookup.Write(si.smallSparseRank.rank(s)*p.smallWeight+inBig%p.smallWeight, i-start)
		}
	}
}

// Select returns the position of the (k+1)-th occurrence of the indexed bit
// value, or the length of the bits if there are not that many.
func (si *SelectIndex) Select(k uint64) (uint64, error) {
	if !si.built {
		return 0, errs.ErrNotBuilt
	}
	return si.sel(k), nil
}

func (si *SelectIndex) sel(k uint64) uint64 {
	n := si.bits.Size()
	if k >= si.total {
		return n
	}
	p := si.params
	big, inBig := k/p.bigWeight, k%p.bigWeight
	bigStart := si.bigBlockSelect.Get(big)
	if si.bigSparse.Get(big) == 1 {
		return bigStart + si.bigSparseLookup.Get(si.bigSparseRank.rank(big)*p.bigWeight+inBig)
	}
	s, j := big*si.smallPerBig+inBig/p.smallWeight, inBig%p.smallWeight
	start := bigStart + si.smallBlockSelect.Get(s)
	if si.smallSparse.Get(s) == 1 {
		return start + si.smallSparseLookup.Get(si.smallSparseRank.rank(s)*p.smallWeight+j)
	}
	// a dense small block spans fewer than smallThreshold <= 64 positions
	length := min(n-start, bitmask.WordSize)
	word, _ := si.bits.ReadBits(start, start+length-1)
	return start + bitmask.Select(word, j, length, si.bit)
}

// Bit returns the bit value this index selects.
func (si *SelectIndex) Bit() uint64 {
	return si.bit
}

// TotalRank returns the number of occurrences of the indexed bit value.
func (si *SelectIndex) TotalRank() uint64 {
	return si.total
}

// Built reports whether Build has run.
func (si *SelectIndex) Built() bool {
	return si.built
}

// MemoryUsage returns the bytes held by the directories, not the bits.
func (si *SelectIndex) MemoryUsage() uint64 {
	if !si.built {
		return 0
	}
	return si.bigBlockSelect.MemoryUsage() + si.smallBlockSelect.MemoryUsage() +
		si.bigSparse.MemoryUsage() + si.bigSparseRank.MemoryUsage() + si.bigSparseLookup.MemoryUsage() +
		si.smallSparse.MemoryUsage() + si.smallSparseRank.MemoryUsage() + si.smallSparseLookup.MemoryUsage()
}
