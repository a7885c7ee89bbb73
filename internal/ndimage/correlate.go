package ndimage

import (
	"github.com/gogpu/ndfilter/internal/parallel"
)

// Mode selects how samples outside the array are read.
type Mode uint8

const (
	// ModeNearest repeats the edge value.
	ModeNearest Mode = iota

	// ModeConstant reads zero.
	ModeConstant
)

// Correlate1D correlates every line of in along axis with weights:
//
//	out[x] = sum_k weights[k] * in[x + k - len(weights)/2]
//
// weights must have odd length.
func Correlate1D(pool *parallel.WorkerPool, shape []int, in []float64, axis int, weights []float64, mode Mode) []float64 {
	out := make([]float64, len(in))
	ls := newLineSet(shape, axis)
	r := len(weights) / 2

	pool.Range(ls.count, func(lo, hi int) {
		line := make([]float64, ls.n)
		for l := lo; l < hi; l++ {
			base := ls.base(l)
			for q := range line {
				line[q] = in[base+q*ls.stride]
			}
			for x := 0; x < ls.n; x++ {
				sum := 0.0
				for k, w := range weights {
					p := x + k - r
					if p < 0 || p >= ls.n {
						if mode == ModeConstant {
							continue
						}
						p = clampIndex(p, ls.n)
					}
					sum += w * line[p]
				}
				out[base+x*ls.stride] = sum
			}
		}
	})
	return out
}

// SeparableCorrelate applies one kernel per axis in turn. Axes whose kernel
// is the identity [1] are skipped.
func SeparableCorrelate(pool *parallel.WorkerPool, shape []int, in []float64, kernels [][]float64, mode Mode) []float64 {
	cur := in
	for axis, k := range kernels {
		if IsIdentity(k) || shape[axis] == 0 {
			continue
		}
		cur = Correlate1D(pool, shape, cur, axis, k, mode)
	}
	if len(cur) > 0 && &cur[0] == &in[0] {
		cur = append([]float64(nil), in...)
	}
	return cur
}

// IsIdentity reports whether k is a centred unit impulse.
func IsIdentity(k []float64) bool {
	for i, w := range k {
		if i == len(k)/2 {
			if w != 1 {
				return false
			}
		} else if w != 0 {
			return false
		}
	}
	return true
}
