package ndimage

import (
	"math"

	"github.com/gogpu/ndfilter/internal/parallel"
)

// EDT computes the exact Euclidean distance transform of mask: for every
// nonzero element the distance to the nearest zero element, 0 for zero
// elements. sampling scales each axis (nil means 1). If mask has no zero
// element every distance is +Inf.
//
// The transform is separable: a 1-D lower-envelope pass per axis
// (Felzenszwalb and Huttenlocher) over squared distances, then a square root.
func EDT(pool *parallel.WorkerPool, shape []int, mask []float64, sampling []float64) []float64 {
	dist := SquaredEDT(pool, shape, mask, sampling)
	pool.Range(len(dist), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dist[i] = math.Sqrt(dist[i])
		}
	})
	return dist
}

// SquaredEDT is EDT without the final square root.
func SquaredEDT(pool *parallel.WorkerPool, shape []int, mask []float64, sampling []float64) []float64 {
	dist := make([]float64, len(mask))
	for i, v := range mask {
		if v != 0 {
			dist[i] = math.Inf(1)
		}
	}

	for axis := range shape {
		s := 1.0
		if sampling != nil {
			s = sampling[axis]
		}
		ls := newLineSet(shape, axis)
		if ls.n == 1 {
			continue
		}
		pool.Range(ls.count, func(lo, hi int) {
			f := make([]float64, ls.n)
			d := make([]float64, ls.n)
			v := make([]int, ls.n)
			z := make([]float64, ls.n+1)
			for line := lo; line < hi; line++ {
				base := ls.base(line)
				for q := 0; q < ls.n; q++ {
					f[q] = dist[base+q*ls.stride]
				}
				squaredDT1D(f, d, v, z, s)
				for q := 0; q < ls.n; q++ {
					dist[base+q*ls.stride] = d[q]
				}
			}
		})
	}
	return dist
}

// squaredDT1D computes d[q] = min_p ((q-p)*s)^2 + f[p] over the finite
// samples of f. Samples at +Inf contribute no parabola; a line without any
// finite sample stays at +Inf. v and z are scratch of length len(f) and
// len(f)+1.
func squaredDT1D(f, d []float64, v []int, z []float64, s float64) {
	n := len(f)
	k := -1
	for q := 0; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		if k < 0 {
			k = 0
			v[0] = q
			z[0] = math.Inf(-1)
			z[1] = math.Inf(1)
			continue
		}
		xq := float64(q) * s
		fq := f[q] + xq*xq
		for {
			p := v[k]
			xp := float64(p) * s
			x := (fq - (f[p] + xp*xp)) / (2 * (xq - xp))
			if x > z[k] {
				k++
				v[k] = q
				z[k] = x
				z[k+1] = math.Inf(1)
				break
			}
			// z[0] is -Inf, so k never drops below zero here.
			k--
		}
	}

	if k < 0 {
		for q := range d {
			d[q] = math.Inf(1)
		}
		return
	}

	j := 0
	for q := 0; q < n; q++ {
		xq := float64(q) * s
		for z[j+1] < xq {
			j++
		}
		dx := xq - float64(v[j])*s
		d[q] = dx*dx + f[v[j]]
	}
}
