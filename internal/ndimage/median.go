package ndimage

import (
	"slices"

	"github.com/gogpu/ndfilter/internal/parallel"
)

// Median replaces every element with the median of the neighbourhood given
// by offsets. For an even neighbourhood count the upper of the two middle
// values is taken (rank count/2), as a rank filter does. Outside samples
// follow mode.
func Median(pool *parallel.WorkerPool, shape []int, in []float64, offsets [][]int, mode Mode) []float64 {
	out := make([]float64, len(in))
	strides := Strides(shape)
	rank := len(offsets) / 2

	pool.Range(len(in), func(lo, hi int) {
		idx := make([]int, len(shape))
		window := make([]float64, len(offsets))
		for i := lo; i < hi; i++ {
			unravel(i, shape, idx)
			for k, off := range offsets {
				flat := 0
				inside := true
				for d, o := range off {
					c := idx[d] + o
					if c < 0 || c >= shape[d] {
						if mode == ModeConstant {
							inside = false
							break
						}
						c = clampIndex(c, shape[d])
					}
					flat += c * strides[d]
				}
				if inside {
					window[k] = in[flat]
				} else {
					window[k] = 0
				}
			}
			slices.Sort(window)
			out[i] = window[rank]
		}
	})
	return out
}
