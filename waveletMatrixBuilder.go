package wltree

import (
	"slices"

	"github.com/AlexWan0/go-wltree/bitvector"
	"github.com/AlexWan0/go-wltree/internal/bitmask"
)

// Builder collects values one at a time and builds a WaveletTree or a
// WaveletMatrix over them. The zero value is ready to use.
type Builder struct {
	vals []uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{vals: make([]uint64, 0)}
}

// PushBack appends val to the sequence.
func (b *Builder) PushBack(val uint64) {
	b.vals = append(b.vals, val)
}

// Len returns the number of values pushed so far.
func (b *Builder) Len() int {
	return len(b.vals)
}

// BuildTree builds a WaveletTree over the values pushed so far. The builder
// can keep accepting values afterwards.
func (b *Builder) BuildTree(opts ...Option) *WaveletTree {
	return New(b.vals, opts...)
}

// BuildMatrix builds a WaveletMatrix over the values pushed so far.
func (b *Builder) BuildMatrix(opts ...Option) *WaveletMatrix {
	cfg := newConfig(opts)
	wm := &WaveletMatrix{num: uint64(len(b.vals))}
	if wm.num == 0 {
		return wm
	}
	wm.max = slices.Max(b.vals)
	wm.blen = max(bitmask.CountBits(wm.max), 1)
	wm.layers = make([]*bitvector.BitVector, wm.blen)
	wm.zeros = make([]uint64, wm.blen)

	bvOpts := cfg.bitVectorOptions()
	zeros := b.vals
	ones := make([]uint64, 0)
	for depth := uint64(0); depth < wm.blen; depth++ {
		nextZeros := make([]uint64, 0, len(zeros))
		nextOnes := make([]uint64, 0, len(ones))
		bits := make([]uint64, 0, wm.num)
		shift := wm.blen - depth - 1
		bits = filter(zeros, shift, &nextZeros, &nextOnes, bits)
		bits = filter(ones, shift, &nextZeros, &nextOnes, bits)
		zeros, ones = nextZeros, nextOnes
		wm.layers[depth] = bitvector.New(bits, bvOpts...)
		wm.zeros[depth] = wm.layers[depth].ZeroNum()
	}

	cfg.logger.Debug().
		Uint64("num", wm.num).
		Uint64("max", wm.max).
		Uint64("layers", wm.blen).
		Uint64("bytes", wm.MemoryUsage()).
		Msg("wavelet matrix built")
	return wm
}

// filter appends bit shift of every value to bits and routes the value to
// nextZeros or nextOnes accordingly.
func filter(vals []uint64, shift uint64, nextZeros *[]uint64, nextOnes *[]uint64, bits []uint64) []uint64 {
	for _, val := range vals {
		bit := (val >> shift) & 1
		bits = append(bits, bit)
		if bit == 1 {
			*nextOnes = append(*nextOnes, val)
		} else {
			*nextZeros = append(*nextZeros, val)
		}
	}
	return bits
}
