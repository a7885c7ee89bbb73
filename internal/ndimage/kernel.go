package ndimage

import (
	"math"
	"sync"
)

// GaussianOperator returns the symmetric discrete Gaussian kernel for the
// given variance in pixels squared, built from modified Bessel functions of
// integer order (Lindeberg's discrete analogue of the Gaussian).
//
// Coefficients are added until the kernel mass reaches 1-maxError, a new
// coefficient no longer changes the sum, or the half kernel (centre
// included) grows past maxWidth. The result is normalized to sum to 1 and
// has odd length.
func GaussianOperator(variance, maxError float64, maxWidth int) []float64 {
	half := []float64{besselI0Scaled(variance), besselI1Scaled(variance)}
	sum := half[0] + 2*half[1]
	limit := 1 - maxError
	for n := 2; sum < limit; n++ {
		c := besselInScaled(n, variance)
		half = append(half, c)
		sum += 2 * c
		if c < sum*epsilon {
			break
		}
		if len(half) > maxWidth {
			break
		}
	}

	// re-accumulate from the smallest coefficient
	sum = 0
	for i := len(half) - 1; i > 0; i-- {
		sum += half[i]
	}
	sum = 2*sum + half[0]

	n := len(half) - 1
	kernel := make([]float64, 2*n+1)
	for i, c := range half {
		kernel[n+i] = c / sum
		kernel[n-i] = c / sum
	}
	return kernel
}

const epsilon = 2.220446049250313e-16

// DerivativeOperator returns the centred finite-difference convolution
// operator of the given order: [0.5 0 -0.5] for order 1, [1 -2 1] for order
// 2, [0.5 -1 0 1 -0.5] for order 3, and so on. Its length is
// 2*((order+1)/2)+1.
func DerivativeOperator(order int) []float64 {
	w := 2*((order+1)/2) + 1
	c := make([]float64, w)
	c[w/2] = 1

	for range order / 2 {
		prev := c[1] - 2*c[0]
		j := 1
		for ; j < w-1; j++ {
			next := c[j-1] + c[j+1] - 2*c[j]
			c[j-1] = prev
			prev = next
		}
		next := c[j-1] - 2*c[j]
		c[j-1] = prev
		c[j] = next
	}
	if order%2 == 1 {
		prev := 0.5 * c[1]
		j := 1
		for ; j < w-1; j++ {
			next := -0.5*c[j-1] + 0.5*c[j+1]
			c[j-1] = prev
			prev = next
		}
		next := -0.5 * c[j-1]
		c[j-1] = prev
		c[j] = next
	}
	return c
}

// GaussianDerivativeKernel returns the correlation weights of a discrete
// Gaussian derivative along one axis.
//
// variance is in physical units squared and is divided by spacing² to get
// the pixel variance. For order > 0 the Gaussian kernel is extended with its
// edge values and convolved with DerivativeOperator(order); the result is
// scaled by variance^(order/2) when normalize is set and divided by
// spacing^order. The weights are returned in correlation order, so
// correlating a ramp of slope 1 with an order-1 kernel gives +1.
func GaussianDerivativeKernel(variance, spacing float64, order int, normalize bool, maxError float64, maxWidth int) []float64 {
	g := GaussianOperator(variance/(spacing*spacing), maxError, maxWidth)
	if order == 0 {
		return g
	}

	norm := 1.0
	if normalize {
		norm = math.Pow(variance, float64(order)/2)
	}
	norm /= math.Pow(spacing, float64(order))

	deriv := DerivativeOperator(order)
	n := (len(deriv) - 1) / 2

	padded := make([]float64, len(g)+4*n-2)
	for i := range padded {
		padded[i] = g[clampIndex(i-(2*n-1), len(g))]
	}

	conv := make([]float64, 0, len(padded)-2*n)
	for i := n; i < len(padded)-n; i++ {
		sum := 0.0
		for j := -n; j <= n; j++ {
			sum += padded[i+j] * deriv[n-j] * norm
		}
		conv = append(conv, sum)
	}

	// convolution kernel -> correlation weights
	for i, j := 0, len(conv)-1; i < j; i, j = i+1, j-1 {
		conv[i], conv[j] = conv[j], conv[i]
	}
	return conv
}

// AxisKernels returns one correlation kernel per axis for a separable
// Gaussian (derivative) filter. sigma, spacing and maxError are per-axis;
// maxHalfWidth bounds each kernel's half width in pixels.
func AxisKernels(sigma, spacing []float64, order []int, normalize bool, maxError []float64, maxHalfWidth int) [][]float64 {
	kernels := make([][]float64, len(sigma))
	for axis, s := range sigma {
		kernels[axis] = defaultKernelCache.get(kernelKey{
			variance:  s * s,
			spacing:   spacing[axis],
			order:     order[axis],
			normalize: normalize,
			maxError:  maxError[axis],
			maxWidth:  maxHalfWidth + 1,
		})
	}
	return kernels
}

type kernelKey struct {
	variance  float64
	spacing   float64
	order     int
	normalize bool
	maxError  float64
	maxWidth  int
}

// kernelCache memoizes kernels; the same parameters recur across the axes
// of one call and across slices of a volume.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[kernelKey][]float64
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[kernelKey][]float64),
		maxLen: maxLen,
	}
}

// get returns the cached kernel for key, computing it on a miss. The
// returned slice is shared and must not be modified.
func (c *kernelCache) get(key kernelKey) []float64 {
	c.mu.RLock()
	if k, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return k
	}
	c.mu.RUnlock()

	k := GaussianDerivativeKernel(key.variance, key.spacing, key.order, key.normalize, key.maxError, key.maxWidth)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// evict half
		count := 0
		for old := range c.cache {
			delete(c.cache, old)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = k
	c.mu.Unlock()
	return k
}

// The Bessel functions below are exp(-|y|)*I_n(y), the polynomial
// approximations of Abramowitz and Stegun 9.8.1-9.8.4 with downward
// recurrence for n >= 2. The exp(-|y|) factor keeps large variances finite.

func besselI0Scaled(y float64) float64 {
	d := math.Abs(y)
	if d < 3.75 {
		m := y / 3.75
		m *= m
		return math.Exp(-d) * (1.0 + m*(3.5156229+m*(3.0899424+m*(1.2067492+m*(0.2659732+m*(0.360768e-1+m*0.45813e-2))))))
	}
	m := 3.75 / d
	return (1 / math.Sqrt(d)) * (0.39894228 + m*(0.1328592e-1+m*(0.225319e-2+m*(-0.157565e-2+m*(0.916281e-2+
		m*(-0.2057706e-1+m*(0.2635537e-1+m*(-0.1647633e-1+m*0.392377e-2))))))))
}

func besselI1Scaled(y float64) float64 {
	d := math.Abs(y)
	var acc float64
	if d < 3.75 {
		m := y / 3.75
		m *= m
		acc = math.Exp(-d) * d * (0.5 + m*(0.87890594+m*(0.51498869+m*(0.15084934+m*(0.2658733e-1+m*(0.301532e-2+m*0.32411e-3))))))
	} else {
		m := 3.75 / d
		acc = 0.2282967e-1 + m*(-0.2895312e-1+m*(0.1787654e-1-m*0.420059e-2))
		acc = 0.39894228 + m*(-0.3988024e-1+m*(-0.362018e-2+m*(0.163801e-2+m*(-0.1031555e-1+m*acc))))
		acc /= math.Sqrt(d)
	}
	if y < 0 {
		return -acc
	}
	return acc
}

func besselInScaled(n int, y float64) float64 {
	const accuracy = 40.0
	if y == 0 {
		return 0
	}
	toy := 2 / math.Abs(y)
	var qip, acc float64
	qi := 1.0
	for j := 2 * (n + int(math.Sqrt(accuracy*float64(n)))); j > 0; j-- {
		qim := qip + float64(j)*toy*qi
		qip = qi
		qi = qim
		if math.Abs(qi) > 1e10 {
			acc *= 1e-10
			qi *= 1e-10
			qip *= 1e-10
		}
		if j == n {
			acc = qip
		}
	}
	acc *= besselI0Scaled(y) / qi
	if y < 0 && n&1 == 1 {
		return -acc
	}
	return acc
}
