package ndimage

import (
	"github.com/gogpu/ndfilter/internal/parallel"
)

// DownscaleShape returns ceil(shape/factors) per axis.
func DownscaleShape(shape, factors []int) []int {
	out := make([]int, len(shape))
	for d, s := range shape {
		out[d] = (s + factors[d] - 1) / factors[d]
	}
	return out
}

// DownscaleLocalMean averages non-overlapping blocks of size factors. The
// input is conceptually zero-padded up to a multiple of factors, so a block
// hanging over the edge is divided by the full block size.
func DownscaleLocalMean(pool *parallel.WorkerPool, shape []int, in []float64, factors []int) ([]int, []float64) {
	outShape := DownscaleShape(shape, factors)
	out := make([]float64, Size(outShape))
	strides := Strides(shape)
	block := 1
	for _, f := range factors {
		block *= f
	}
	n := float64(block)

	pool.Range(len(out), func(lo, hi int) {
		oidx := make([]int, len(shape))
		bidx := make([]int, len(shape))
		for o := lo; o < hi; o++ {
			unravel(o, outShape, oidx)
			for d := range bidx {
				bidx[d] = 0
			}
			sum := 0.0
			for {
				off, inside := 0, true
				for d := range shape {
					c := oidx[d]*factors[d] + bidx[d]
					if c >= shape[d] {
						inside = false
						break
					}
					off += c * strides[d]
				}
				if inside {
					sum += in[off]
				}
				if !nextIndex(bidx, factors) {
					break
				}
			}
			out[o] = sum / n
		}
	})
	return outShape, out
}

// nextIndex advances idx through the box [0, extent) in row-major order and
// reports false once it wraps around.
func nextIndex(idx, extent []int) bool {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < extent[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}
