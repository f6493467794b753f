package bitvector

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/AlexWan0/go-wltree/errs"
	"github.com/AlexWan0/go-wltree/packed"
)

// FromBitmap returns a bit vector of n bits with a one at every position
// set in bm. Positions of bm at or past n are an error.
func FromBitmap(bm *roaring.Bitmap, n uint64, opts ...Option) (*BitVector, error) {
	bits, _ := packed.New(n, 1)
	if bm != nil {
		it := bm.Iterator()
		for it.HasNext() {
			pos := uint64(it.Next())
			if err := bits.Write(pos, 1); err != nil {
				return nil, fmt.Errorf("bitvector.FromBitmap: %w", err)
			}
		}
	}
	bv := &BitVector{cfg: newConfig(opts)}
	bv.build(bits)
	return bv, nil
}

// ToBitmap returns the positions of the ones as a roaring bitmap. It fails
// for vectors longer than 2^32 bits, which roaring cannot address.
func (bv *BitVector) ToBitmap() (*roaring.Bitmap, error) {
	if bv.Size() > math.MaxUint32+1 {
		return nil, fmt.Errorf("bitvector.ToBitmap: %d bits do not fit 32-bit positions: %w", bv.Size(), errs.ErrInvalidArgument)
	}
	bm := roaring.New()
	for k := uint64(0); k < bv.OneNum(); k++ {
		bm.Add(uint32(bv.Select(k, 1)))
	}
	return bm, nil
}
