// Package cpu provides the pure Go array backend.
//
// It is always registered under ndfilter.BackendCPU and serves as the
// fallback when no GPU backend is available. Independent 1-D lines and
// output ranges are spread over a work-stealing worker pool.
package cpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/internal/ndimage"
	"github.com/gogpu/ndfilter/internal/parallel"
)

func init() {
	ndfilter.RegisterBackend(ndfilter.BackendCPU, func() ndfilter.Backend {
		return New()
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithWorkers sets the number of pool workers. Zero or negative uses
// GOMAXPROCS. One worker runs every primitive on the calling goroutine.
func WithWorkers(n int) Option {
	return func(b *Backend) {
		b.workers = n
	}
}

// Backend is the CPU implementation of ndfilter.Backend.
//
// Thread safety: Backend is safe for concurrent use once initialized.
type Backend struct {
	mu      sync.Mutex
	workers int
	pool    *parallel.WorkerPool
}

// New creates an uninitialized CPU backend. The pool starts on Init, or
// lazily on the first primitive.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ ndfilter.Backend = (*Backend)(nil)

// Name returns ndfilter.BackendCPU.
func (b *Backend) Name() string { return ndfilter.BackendCPU }

// Init starts the worker pool.
func (b *Backend) Init() error {
	b.workerPool()
	return nil
}

// Close stops the worker pool. The backend can be used again afterwards;
// a new pool is started on demand.
func (b *Backend) Close() {
	b.mu.Lock()
	p := b.pool
	b.pool = nil
	b.mu.Unlock()
	if p != nil {
		p.Close()
	}
}

// CanAccelerate reports true for every primitive.
func (b *Backend) CanAccelerate(ndfilter.AcceleratedOp) bool { return true }

// workerPool returns the running pool, starting it if needed. A single
// worker configuration returns nil, which runs inline.
func (b *Backend) workerPool() *parallel.WorkerPool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.workers == 1 {
		return nil
	}
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(b.workers)
	}
	return b.pool
}

// DistanceTransformEDT implements ndfilter.Backend.
func (b *Backend) DistanceTransformEDT(mask *ndfilter.Array, sampling []float64) (*ndfilter.Array, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if sampling != nil && len(sampling) != mask.NDim() {
		return nil, fmt.Errorf("%w: %d sampling entries for a %d-d mask", ndfilter.ErrShapeMismatch, len(sampling), mask.NDim())
	}
	dist := ndimage.EDT(b.workerPool(), mask.Shape, mask.Data, sampling)
	return ndfilter.ArrayFromSlice(ndfilter.Float64, dist, mask.Shape...)
}

// BinaryErosion implements ndfilter.Backend.
func (b *Backend) BinaryErosion(mask *ndfilter.Array, footprint *ndfilter.Footprint) (*ndfilter.Array, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := footprint.Validate(mask.NDim()); err != nil {
		return nil, err
	}
	out := ndimage.Erode(b.workerPool(), mask.Shape, mask.Data, footprint.Offsets())
	return ndfilter.ArrayFromSlice(ndfilter.Bool, out, mask.Shape...)
}

// GaussianFilter implements ndfilter.Backend.
func (b *Backend) GaussianFilter(in *ndfilter.Array, p ndfilter.GaussianParams) (*ndfilter.Array, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(in.NDim()); err != nil {
		return nil, err
	}
	kernels := ndimage.AxisKernels(p.Sigma, p.Spacing, p.Order, p.NormalizeAcrossScale, p.MaxError, p.MaxHalfWidth)
	ndfilter.Logger().Debug("cpu: gaussian", "shape", in.Shape, "kernel_lengths", kernelLengths(kernels))
	out := ndimage.SeparableCorrelate(b.workerPool(), in.Shape, in.Data, kernels, ndimage.ModeNearest)
	return ndfilter.ArrayFromSlice(ndfilter.Float64, out, in.Shape...)
}

// DownscaleLocalMean implements ndfilter.Backend.
func (b *Backend) DownscaleLocalMean(in *ndfilter.Array, factors []int) (*ndfilter.Array, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ndfilter.ValidateFactors(factors, in.NDim()); err != nil {
		return nil, err
	}
	shape, out := ndimage.DownscaleLocalMean(b.workerPool(), in.Shape, in.Data, factors)
	return ndfilter.ArrayFromSlice(ndfilter.Float64, out, shape...)
}

// MedianFilter implements ndfilter.Backend. The result keeps the input
// element type since every output is one of the input values.
func (b *Backend) MedianFilter(in *ndfilter.Array, footprint *ndfilter.Footprint, mode ndfilter.BoundaryMode) (*ndfilter.Array, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := footprint.Validate(in.NDim()); err != nil {
		return nil, err
	}
	out := ndimage.Median(b.workerPool(), in.Shape, in.Data, footprint.Offsets(), kernelMode(mode))
	return ndfilter.ArrayFromSlice(in.DType, out, in.Shape...)
}

func kernelMode(m ndfilter.BoundaryMode) ndimage.Mode {
	if m == ndfilter.BoundaryConstant {
		return ndimage.ModeConstant
	}
	return ndimage.ModeNearest
}

func kernelLengths(kernels [][]float64) []int {
	n := make([]int, len(kernels))
	for i, k := range kernels {
		n[i] = len(k)
	}
	return n
}
