package ndimage

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ndfilter/internal/parallel"
)

// cube returns the offsets of a full 3^dim neighbourhood.
func cube(dim int) [][]int {
	var out [][]int
	idx := make([]int, dim)
	ext := make([]int, dim)
	for d := range ext {
		ext[d] = 3
	}
	for {
		off := make([]int, dim)
		for d := range idx {
			off[d] = idx[d] - 1
		}
		out = append(out, off)
		if !nextIndex(idx, ext) {
			return out
		}
	}
}

func TestErode(t *testing.T) {
	// 6x6 with a 4x4 square at [1:5, 1:5]
	shape := []int{6, 6}
	mask := make([]float64, 36)
	for y := 1; y < 5; y++ {
		for x := 1; x < 5; x++ {
			mask[y*6+x] = 1
		}
	}
	got := Erode(nil, shape, mask, cube(2))

	want := make([]float64, 36)
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			want[y*6+x] = 1
		}
	}
	assert.Equal(t, want, got)
}

func TestErodeIgnoresOutside(t *testing.T) {
	shape := []int{4, 4}
	mask := slices.Repeat([]float64{1}, 16)
	got := Erode(nil, shape, mask, cube(2))
	assert.Equal(t, mask, got, "all-ones mask must survive erosion")

	mask[5] = 0
	got = Erode(nil, shape, mask, cube(2))
	for i, v := range got {
		y, x := i/4, i%4
		near := y <= 2 && x <= 2
		if near {
			assert.Zero(t, v, "element (%d,%d)", y, x)
		} else {
			assert.Equal(t, 1.0, v, "element (%d,%d)", y, x)
		}
	}
}

func TestCorrelate1D(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	w := []float64{1, 0, -1}

	got := Correlate1D(nil, []int{4}, in, 0, w, ModeNearest)
	assert.Equal(t, []float64{-1, -2, -2, -1}, got)

	got = Correlate1D(nil, []int{4}, in, 0, w, ModeConstant)
	assert.Equal(t, []float64{-2, -2, -2, 3}, got)
}

func TestCorrelate1DAxis(t *testing.T) {
	// 2x3, correlate along axis 0 with [1 1 1] (nearest)
	in := []float64{
		1, 2, 3,
		10, 20, 30,
	}
	got := Correlate1D(nil, []int{2, 3}, in, 0, []float64{1, 1, 1}, ModeNearest)
	assert.Equal(t, []float64{12, 24, 36, 21, 42, 63}, got)
}

func TestSeparableCorrelateIdentity(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	got := SeparableCorrelate(nil, []int{2, 2}, in, [][]float64{{1}, {0, 1, 0}}, ModeNearest)
	assert.Equal(t, in, got)
	got[0] = 99
	assert.Equal(t, 1.0, in[0], "input must not be aliased")
}

func TestSeparableCorrelateConstantPreserved(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	shape := []int{5, 6, 7}
	in := slices.Repeat([]float64{2.5}, Size(shape))
	ks := AxisKernels([]float64{1, 2, 0.5}, []float64{1, 1, 1}, []int{0, 0, 0}, false, []float64{0.01, 0.01, 0.01}, 31)
	got := SeparableCorrelate(pool, shape, in, ks, ModeNearest)
	for i, v := range got {
		assert.InDelta(t, 2.5, v, 1e-12, "element %d", i)
	}
}

func TestDownscaleLocalMean(t *testing.T) {
	// 3x5 by (2,2): padded to 4x6, output 2x3
	in := []float64{
		1, 2, 3, 4, 5,
		6, 7, 8, 9, 10,
		11, 12, 13, 14, 15,
	}
	shape, got := DownscaleLocalMean(nil, []int{3, 5}, in, []int{2, 2})
	assert.Equal(t, []int{2, 3}, shape)
	want := []float64{
		(1 + 2 + 6 + 7) / 4.0, (3 + 4 + 8 + 9) / 4.0, (5 + 10) / 4.0,
		(11 + 12) / 4.0, (13 + 14) / 4.0, 15 / 4.0,
	}
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestDownscaleShape(t *testing.T) {
	assert.Equal(t, []int{4, 3, 1}, DownscaleShape([]int{7, 9, 2}, []int{2, 3, 7}))
}

func TestMedianMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 9))
	shape := []int{9, 11}
	in := make([]float64, Size(shape))
	for i := range in {
		in[i] = float64(rng.IntN(50))
	}
	offsets := [][]int{}
	for dy := -1; dy <= 1; dy++ {
		for dx := -2; dx <= 2; dx++ {
			offsets = append(offsets, []int{dy, dx})
		}
	}
	got := Median(nil, shape, in, offsets, ModeNearest)
	require.Len(t, got, len(in))

	for y := range shape[0] {
		for x := range shape[1] {
			var window []float64
			for _, off := range offsets {
				yy := clampIndex(y+off[0], shape[0])
				xx := clampIndex(x+off[1], shape[1])
				window = append(window, in[yy*shape[1]+xx])
			}
			slices.Sort(window)
			assert.Equal(t, window[len(window)/2], got[y*shape[1]+x], "(%d,%d)", y, x)
		}
	}
}

func TestMedianRemovesImpulse(t *testing.T) {
	in := make([]float64, 25)
	in[12] = 100
	got := Median(nil, []int{5, 5}, in, cube(2), ModeConstant)
	assert.Equal(t, make([]float64, 25), got)
}

func TestLineSetBase(t *testing.T) {
	shape := []int{2, 3, 4}
	for axis := range shape {
		ls := newLineSet(shape, axis)
		seen := map[int]bool{}
		for l := range ls.count {
			for q := range ls.n {
				seen[ls.base(l)+q*ls.stride] = true
			}
		}
		assert.Len(t, seen, Size(shape), "axis %d", axis)
	}
}
