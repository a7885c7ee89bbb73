package ndimage

import (
	"github.com/gogpu/ndfilter/internal/parallel"
)

// Erode returns the binary erosion of mask by the structuring element given
// as coordinate offsets from its origin. An output element is 1 when every
// offset that lands inside the array lands on a nonzero element. Positions
// outside the array are ignored, so an object touching the border is not
// eroded along it.
func Erode(pool *parallel.WorkerPool, shape []int, mask []float64, offsets [][]int) []float64 {
	out := make([]float64, len(mask))
	deltas := flatDeltas(offsets, Strides(shape))

	pool.Range(len(mask), func(lo, hi int) {
		idx := make([]int, len(shape))
		for i := lo; i < hi; i++ {
			if mask[i] == 0 {
				continue
			}
			unravel(i, shape, idx)
			keep := 1.0
			for k, off := range offsets {
				if inBounds(idx, off, shape) && mask[i+deltas[k]] == 0 {
					keep = 0
					break
				}
			}
			out[i] = keep
		}
	})
	return out
}

// flatDeltas converts coordinate offsets into flat buffer deltas.
func flatDeltas(offsets [][]int, strides []int) []int {
	deltas := make([]int, len(offsets))
	for k, off := range offsets {
		for d, o := range off {
			deltas[k] += o * strides[d]
		}
	}
	return deltas
}

func inBounds(idx, off, shape []int) bool {
	for d, o := range off {
		c := idx[d] + o
		if c < 0 || c >= shape[d] {
			return false
		}
	}
	return true
}
