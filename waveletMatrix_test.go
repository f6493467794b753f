package wltree

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/AlexWan0/go-wltree/errs"
)

// generateRange returns a non-empty range inside [0, num).
func generateRange(num uint64) Range {
	bpos := uint64(rand.Intn(int(num)))
	epos := bpos + 1 + uint64(rand.Intn(int(num-bpos)))
	return Range{bpos, epos}
}

func origIntersect(orig []uint64, ranges []Range, k int) []uint64 {
	cand := make(map[uint64]int)
	for _, ranze := range ranges {
		set := make(map[uint64]struct{})
		for i := ranze.Bpos; i < ranze.Epos; i++ {
			set[orig[i]] = struct{}{}
		}
		for v := range set {
			cand[v]++
		}
	}
	ret := make([]uint64, 0)
	for key, val := range cand {
		if val >= k {
			ret = append(ret, key)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

func buildWaveletHelper(num uint64, dim uint64, orig []uint64, ranks, ranksLessThan, ranksMoreThan [][]uint64) *WaveletMatrix {
	wmb := NewBuilder()
	for i := 0; i < len(ranks); i++ {
		ranks[i] = make([]uint64, num)
		ranksLessThan[i] = make([]uint64, num)
		ranksMoreThan[i] = make([]uint64, num)
	}
	freqs := make([]uint64, dim)
	for i := uint64(0); i < num; i++ {
		x := uint64(rand.Int31n(int32(dim)))
		orig[i] = x
		wmb.PushBack(x)
		for j := uint64(0); j < dim; j++ {
			ranks[j][i] = freqs[j]
			for k := uint64(0); k < j; k++ {
				ranksLessThan[j][i] += freqs[k]
			}
			ranksMoreThan[j][i] = i - ranks[j][i] - ranksLessThan[j][i]
		}
		freqs[x]++
	}
	return wmb.BuildMatrix()
}

func testWaveletHelper(wm *WaveletMatrix, num uint64, testNum uint64, dim uint64, orig []uint64, ranks, ranksLessThan, ranksMoreThan [][]uint64) {
	So(wm.Num(), ShouldEqual, num)
	So(wm.Select(num, 0), ShouldEqual, num) // equals num: Not Found
	for i := uint64(0); i < testNum; i++ {
		ind := uint64(rand.Int31n(int32(num)))
		x := uint64(rand.Int31n(int32(dim)))

		v, err := wm.Access(ind)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, orig[ind])

		So(wm.Rank(ind, x), ShouldEqual, ranks[x][ind])
		So(wm.RangedRankRange(Range{0, ind}, Range{x, x + 1}), ShouldEqual, ranks[x][ind])

		So(wm.RankLessThan(ind, x), ShouldEqual, ranksLessThan[x][ind])
		So(wm.RangedRankRange(Range{0, ind}, Range{0, x}), ShouldEqual, ranksLessThan[x][ind])

		So(wm.RankMoreThan(ind, x), ShouldEqual, ranksMoreThan[x][ind])
		So(wm.RangedRankRange(Range{0, ind}, Range{x + 1, dim}), ShouldEqual, ranksMoreThan[x][ind])

		c, rank, err := wm.AccessAndRank(ind)
		So(err, ShouldBeNil)
		So(c, ShouldEqual, orig[ind])
		So(rank, ShouldEqual, ranks[c][ind])
		So(wm.Select(rank, c), ShouldEqual, ind)

		ranges := make([]Range, 0)
		for j := 0; j < 4; j++ {
			ranges = append(ranges, generateRange(num))
		}
		So(wm.Intersect(ranges, 4), ShouldResemble, origIntersect(orig, ranges, 4))

		ranze := generateRange(num)
		k := uint64(rand.Int63()) % (ranze.Epos - ranze.Bpos)
		vs := make([]int, ranze.Epos-ranze.Bpos)
		for i := uint64(0); i < uint64(len(vs)); i++ {
			vs[i] = int(orig[i+ranze.Bpos])
		}
		sort.Ints(vs)
		q, ok := wm.Quantile(ranze, k)
		So(ok, ShouldBeTrue)
		So(q, ShouldEqual, vs[k])
		So(wm.RangeCount(ranze, x), ShouldEqual, naiveRank(orig[ranze.Bpos:ranze.Epos], ranze.Epos-ranze.Bpos, x))
	}
	Convey("when op is wrong", func() {
		So(wm.RangedRankOp(Range{0, num}, 0, OpMax), ShouldEqual, 0)
	})
	Convey("when range is reversed", func() {
		So(wm.RangedRankOp(Range{num, 0}, 0, OpEqual), ShouldEqual, 0)
		_, ok := wm.Quantile(Range{num, 0}, 0)
		So(ok, ShouldBeFalse)
	})
	Convey("when val is above the alphabet", func() {
		So(wm.Rank(num, dim+(1<<20)), ShouldEqual, 0)
		So(wm.RankLessThan(num, dim+(1<<20)), ShouldEqual, num)
		So(wm.RankMoreThan(num, dim+(1<<20)), ShouldEqual, 0)
		So(wm.Select(0, dim+(1<<20)), ShouldEqual, num)
	})
	Convey("when pos is past the end", func() {
		_, err := wm.Access(num)
		So(errors.Is(err, errs.ErrOutOfBounds), ShouldBeTrue)
		_, _, err = wm.AccessAndRank(num)
		So(errors.Is(err, errs.ErrOutOfBounds), ShouldBeTrue)
		So(wm.Rank(num+5, 0), ShouldEqual, wm.Rank(num, 0))
	})
}

func TestWaveletMatrix(t *testing.T) {
	Convey("When a vector is empty", t, func() {
		b := NewBuilder()
		wm := b.BuildMatrix()
		Convey("The num should be 0", func() {
			So(wm.Num(), ShouldEqual, 0)
			So(wm.Max(), ShouldEqual, 0)
			So(wm.Rank(0, 0), ShouldEqual, 0)
			So(wm.RankLessThan(0, 0), ShouldEqual, 0)
			So(wm.RankMoreThan(0, 0), ShouldEqual, 0)
			So(wm.RangedRankOp(Range{0, 0}, 0, OpEqual), ShouldEqual, 0)
			So(wm.RangedRankRange(Range{0, 0}, Range{0, 0}), ShouldEqual, 0)
			So(wm.Select(0, 0), ShouldEqual, 0) // equals num: Not Found
			So(wm.Intersect([]Range{{0, 0}}, 1), ShouldBeEmpty)
		})
	})
	Convey("When every value is zero", t, func() {
		wm := NewMatrix([]uint64{0, 0, 0})
		So(wm.Max(), ShouldEqual, 0)
		So(wm.Rank(2, 0), ShouldEqual, 2)
		So(wm.Select(2, 0), ShouldEqual, 2)
		So(wm.Select(3, 0), ShouldEqual, 3)
		v, err := wm.Access(1)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0)
	})
	Convey("When a random vector is generated", t, func() {
		num := uint64(14000)
		dim := uint64(100)
		testNum := uint64(10)
		orig := make([]uint64, num)
		ranks := make([][]uint64, dim)
		ranksLessThan := make([][]uint64, dim)
		ranksMoreThan := make([][]uint64, dim)

		wm := buildWaveletHelper(num, dim, orig, ranks, ranksLessThan, ranksMoreThan)
		testWaveletHelper(wm, num, testNum, dim, orig, ranks, ranksLessThan, ranksMoreThan)
	})
	Convey("When a random vector over a small alphabet is generated", t, func() {
		num := uint64(14000)
		dim := uint64(5)
		testNum := uint64(10)
		orig := make([]uint64, num)
		ranks := make([][]uint64, dim)
		ranksLessThan := make([][]uint64, dim)
		ranksMoreThan := make([][]uint64, dim)

		wm := buildWaveletHelper(num, dim, orig, ranks, ranksLessThan, ranksMoreThan)
		testWaveletHelper(wm, num, testNum, dim, orig, ranks, ranksLessThan, ranksMoreThan)
	})
}

func TestMatrixMatchesTree(t *testing.T) {
	Convey("Given Poisson distributed values", t, func() {
		vals := poissonValues(21, 3000, 12)
		b := NewBuilder()
		for _, v := range vals {
			b.PushBack(v)
		}
		So(b.Len(), ShouldEqual, len(vals))
		wt, wm := b.BuildTree(), b.BuildMatrix()
		num := uint64(len(vals))
		So(wm.Num(), ShouldEqual, wt.Size())
		So(wm.Max(), ShouldEqual, wt.High())

		Convey("Point queries agree", func() {
			for i := 0; i < 200; i++ {
				pos := uint64(rand.Int63n(int64(num)))
				c := uint64(rand.Int63n(int64(wt.High() + 2)))
				got, err := wm.Access(pos)
				So(err, ShouldBeNil)
				want, err := wt.Access(pos)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
				So(wm.Rank(pos, c), ShouldEqual, wt.Rank(pos, c))
				So(wm.RankLessThan(pos, c), ShouldEqual, wt.RankLessThan(pos, c))
				k := uint64(rand.Int63n(int64(wt.Rank(num, c) + 1)))
				So(wm.Select(k, c), ShouldEqual, wt.Select(k, c))
			}
		})
		Convey("Interval queries agree", func() {
			for i := 0; i < 200; i++ {
				ranze := generateRange(num)
				l, r := ranze.Bpos, ranze.Epos-1
				c := uint64(rand.Int63n(int64(wt.High() + 2)))
				So(wm.RangeCount(ranze, c), ShouldEqual, wt.RangeCount(l, r, c))
				k := uint64(rand.Int63n(int64(ranze.Epos - ranze.Bpos)))
				qm, okm := wm.Quantile(ranze, k)
				qt, okt := wt.Quantile(l, r, k)
				So(okm, ShouldBeTrue)
				So(okt, ShouldBeTrue)
				So(qm, ShouldEqual, qt)
			}
		})
	})
}

func TestSelectExperimental(t *testing.T) {
	src := []uint64{
		8, 9, 10, 11, 12, 18, 8, 9, 10, 11,
		12, 18, 19, 20, 13, 14, 15, 3, 4, 5,
		1, 7, 17, 2, 6,
	}
	builder := NewBuilder()
	for _, v := range src {
		builder.PushBack(v)
	}
	wm := builder.BuildMatrix()
	Convey("RangedSelect", t, func() {
		So(wm.RangedSelect(Range{0, 10}, 0, 11), ShouldEqual, 3)
		So(wm.RangedSelect(Range{0, 10}, 1, 11), ShouldEqual, 9)
		So(wm.RangedSelect(Range{10, 20}, 0, 13), ShouldEqual, 14)
		So(wm.RangedSelect(Range{10, 20}, 1, 13), ShouldEqual, 20)
		So(wm.RangedSelect(Range{0, 10}, 0, 64), ShouldEqual, 10)
	})
	Convey("RangedRankIgnoreLSBs", t, func() {
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 0), ShouldEqual, 2)
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 1), ShouldEqual, 4)
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 2), ShouldEqual, 8)
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 3), ShouldEqual, 9)
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 4), ShouldEqual, 9)
		So(wm.RangedRankIgnoreLSBs(Range{0, 10}, 11, 5), ShouldEqual, 10)

		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 0), ShouldEqual, 1)  // 0b1100 12
		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 1), ShouldEqual, 2)  // 0b110x 12-13
		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 2), ShouldEqual, 4)  // 0b11xx 12-15
		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 3), ShouldEqual, 4)  // 0b1xxx 8-15
		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 4), ShouldEqual, 7)  // 0b0xxxx 0-15
		So(wm.RangedRankIgnoreLSBs(Range{10, 20}, 12, 5), ShouldEqual, 10) // 0b0xxxxx 0-31
	})
	Convey("RangedSelectIgnoreLSBs", t, func() {
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 0, 11, 0), ShouldEqual, 3) // 0b1011 11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 0, 11, 1), ShouldEqual, 2) // 0b101x 10-11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 0, 11, 2), ShouldEqual, 0) // 0b10xx 8-11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 0, 11, 5), ShouldEqual, 0) // 0b0xxxxx 0-31

		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 0, 20, 0), ShouldEqual, 10)

		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 1, 11, 0), ShouldEqual, 9) // 0b1011 11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 1, 11, 1), ShouldEqual, 3) // 0b101x 10-11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 1, 11, 2), ShouldEqual, 1) // 0b10xx 8-11

		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 2, 11, 0), ShouldEqual, 10)  // 0b1011 11
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 9, 11, 5), ShouldEqual, 9)   // 0b0xxxxx 0-31
		So(wm.RangedSelectIgnoreLSBs(Range{0, 10}, 10, 11, 5), ShouldEqual, 10) // 0b0xxxxx 0-31

		So(wm.RangedSelectIgnoreLSBs(Range{10, 20}, 0, 12, 0), ShouldEqual, 10) // 0b1100 12
		So(wm.RangedSelectIgnoreLSBs(Range{10, 20}, 0, 12, 3), ShouldEqual, 10) // 0b1xxx 8-15
		So(wm.RangedSelectIgnoreLSBs(Range{10, 20}, 0, 12, 5), ShouldEqual, 10) // 0b0xxxxx 0-31
	})
}

// -----------------------------------------------------------------------------
// Benchmarks
//

const (
	N = 1 << 20 // 1 Mi
)

type benchFixture struct {
	builder *Builder
	wm      *WaveletMatrix
	counter map[uint64]uint64
	vals    []uint64
}

var bf *benchFixture // = nil

func initBenchFixture() *benchFixture {
	if bf != nil {
		return bf
	}
	bf = &benchFixture{
		builder: NewBuilder(),
		counter: make(map[uint64]uint64),
		vals:    make([]uint64, 0, N),
	}
	for i := uint64(0); i < N; i++ {
		x := uint64(rand.Int63())
		bf.counter[x]++
		bf.builder.PushBack(x)
		bf.vals = append(bf.vals, x)
	}
	bf.wm = bf.builder.BuildMatrix()
	fmt.Printf("{N = %v is used in the tests below}\n\t\t\t\t", N)
	return bf
}

func BenchmarkWM_Build(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fx.builder.BuildMatrix()
	}
}

func BenchmarkWM_Access(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fx.wm.Access(uint64(rand.Int63() % N))
	}
}

func BenchmarkWM_Rank(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ind := uint64(rand.Int63() % N)
		fx.wm.Rank(ind, fx.vals[ind])
	}
}

func BenchmarkWM_RankLessThan(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ind := uint64(rand.Int63() % N)
		fx.wm.RankLessThan(ind, uint64(rand.Int63()))
	}
}

func BenchmarkWM_Select(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x := fx.vals[uint64(rand.Int63())%uint64(len(fx.vals))]
		rank := uint64(rand.Int63()) % fx.counter[x]
		fx.wm.Select(rank, x)
	}
}

func BenchmarkWM_Quantile(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ranze := generateRange(N)
		k := uint64(rand.Int()) % (ranze.Epos - ranze.Bpos)
		fx.wm.Quantile(ranze, k)
	}
}

func BenchmarkRaw_Rank(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ind := uint64(rand.Int63() % N)
		naiveRank(fx.vals, ind, fx.vals[ind])
	}
}

func BenchmarkRaw_Quantile(b *testing.B) {
	fx := initBenchFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ranze := generateRange(N)
		k := uint64(rand.Int()) % (ranze.Epos - ranze.Bpos)
		_ = sortedWindow(fx.vals, ranze.Bpos, ranze.Epos-1)[k]
	}
}
