// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/backend/cpu"
	"github.com/gogpu/ndfilter/internal/ndimage"
)

// DefaultMaxBufferSize is the largest storage buffer the backend allocates.
// It stays within the storage binding limit of gputypes.DefaultLimits.
const DefaultMaxBufferSize = 128 << 20

// Option configures a Backend.
type Option func(*Backend)

// WithFallback makes unsupported requests run on an internal CPU backend
// instead of returning ndfilter.ErrFallbackToCPU.
func WithFallback(enabled bool) Option {
	return func(b *Backend) {
		b.fallback = enabled
	}
}

// WithMaxBufferSize bounds the byte size of a single data buffer. Larger
// arrays are not dispatched to the GPU.
func WithMaxBufferSize(n uint64) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxBuffer = n
		}
	}
}

// Backend is the GPU implementation of ndfilter.Backend.
//
// Thread safety: primitives are serialized on an internal mutex; the device
// queue is used by one submission at a time.
type Backend struct {
	mu        sync.Mutex
	dev       *gpuDevice
	pipes     *pipelines
	gpuReady  bool
	fallback  bool
	cpu       *cpu.Backend
	maxBuffer uint64
}

// New creates an uninitialized GPU backend.
func New(opts ...Option) *Backend {
	b := &Backend{maxBuffer: DefaultMaxBufferSize}
	for _, opt := range opts {
		opt(b)
	}
	if b.fallback {
		b.cpu = cpu.New()
	}
	return b
}

var _ ndfilter.Backend = (*Backend)(nil)

// Name returns ndfilter.BackendWGPU.
func (b *Backend) Name() string { return ndfilter.BackendWGPU }

// Init opens a GPU device and compiles every kernel. It fails when no
// usable adapter exists, which makes ndfilter.DefaultBackend move on to the
// next backend.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpuReady {
		return nil
	}
	dev, err := openDevice()
	if err != nil {
		return fmt.Errorf("wgpu: %w", err)
	}
	pipes, err := createPipelines(dev.device)
	if err != nil {
		dev.destroy()
		return fmt.Errorf("wgpu: %w", err)
	}
	b.dev, b.pipes, b.gpuReady = dev, pipes, true
	slogger().Info("wgpu: backend initialized", "adapter", dev.name)
	return nil
}

// Close releases the pipelines and the device. A device obtained from a
// provider is left open.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
	if b.cpu != nil {
		b.cpu.Close()
	}
}

func (b *Backend) releaseLocked() {
	if b.dev != nil {
		b.pipes.destroy(b.dev.device)
		b.dev.destroy()
	}
	b.dev, b.pipes, b.gpuReady = nil, nil, false
}

// SetDeviceProvider switches the backend to the device of an external
// provider, such as a gogpu application. The provider must expose its HAL
// device and queue; otherwise ErrNoHalAccess is returned and the backend is
// left unchanged.
func (b *Backend) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	dev, err := deviceFromProvider(provider)
	if err != nil {
		return err
	}
	pipes, err := createPipelines(dev.device)
	if err != nil {
		return fmt.Errorf("wgpu: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
	b.dev, b.pipes, b.gpuReady = dev, pipes, true
	slogger().Info("wgpu: using shared device")
	return nil
}

// CanAccelerate reports true for every primitive once the device is ready.
func (b *Backend) CanAccelerate(ndfilter.AcceleratedOp) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpuReady
}

// unsupported routes a request the GPU cannot serve: to the CPU backend when
// fallback is enabled, otherwise to an ErrFallbackToCPU error.
func (b *Backend) unsupported(op string, reason error, run func(*cpu.Backend) (*ndfilter.Array, error)) (*ndfilter.Array, error) {
	if b.cpu != nil {
		slogger().Debug("wgpu: running on cpu", "op", op, "reason", reason)
		return run(b.cpu)
	}
	return nil, fmt.Errorf("wgpu: %s: %w: %w", op, ndfilter.ErrFallbackToCPU, reason)
}

var (
	errNotReady     = errors.New("device not initialized")
	errNoDims       = errors.New("zero-dimensional array")
	errTooManyDims  = fmt.Errorf("more than %d dimensions", maxDims)
	errTooLarge     = errors.New("array exceeds the buffer size limit")
	errWindowTooBig = fmt.Errorf("footprint exceeds %d elements", maxWindow)
)

// check reports why an array of shape cannot be dispatched, or nil. Device
// readiness is checked by run.
func (b *Backend) check(shape []int) error {
	switch {
	case len(shape) == 0:
		return errNoDims
	case len(shape) > maxDims:
		return errTooManyDims
	case uint64(4*max(sizeOf(shape), 1)) > b.maxBuffer: //nolint:gosec // sizes are non-negative
		return errTooLarge
	}
	return nil
}

// run executes steps under the backend lock.
func (b *Backend) run(input []float64, outLen int, steps []step) ([]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.gpuReady {
		return nil, errNotReady
	}
	return b.execute(input, outLen, steps)
}

// DistanceTransformEDT implements ndfilter.Backend.
//
// One pass per axis computes the lower envelope of parabolas by brute force
// over the line; the squared distances are rooted on readback.
func (b *Backend) DistanceTransformEDT(mask *ndfilter.Array, sampling []float64) (*ndfilter.Array, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if sampling != nil && len(sampling) != mask.NDim() {
		return nil, fmt.Errorf("%w: %d sampling entries for a %d-d mask", ndfilter.ErrShapeMismatch, len(sampling), mask.NDim())
	}
	fallback := func(c *cpu.Backend) (*ndfilter.Array, error) { return c.DistanceTransformEDT(mask, sampling) }
	if err := b.check(mask.Shape); err != nil {
		return b.unsupported("distance transform", err, fallback)
	}

	steps := make([]step, mask.NDim())
	for d := range steps {
		p := newParams(mask.Shape)
		p.axis(mask.NDim(), d)
		s := 1.0
		if sampling != nil {
			s = sampling[d]
		}
		p.Scale = float32(s * s)
		steps[d] = step{kernel: kernelEDT, params: p}
	}
	sq, err := b.run(seedDistances(mask.Data), mask.Size(), steps)
	if err != nil {
		return b.unsupported("distance transform", err, fallback)
	}
	return ndfilter.ArrayFromSlice(ndfilter.Float64, finishDistances(sq), mask.Shape...)
}

// BinaryErosion implements ndfilter.Backend.
func (b *Backend) BinaryErosion(mask *ndfilter.Array, footprint *ndfilter.Footprint) (*ndfilter.Array, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if err := footprint.Validate(mask.NDim()); err != nil {
		return nil, err
	}
	fallback := func(c *cpu.Backend) (*ndfilter.Array, error) { return c.BinaryErosion(mask, footprint) }
	if err := b.check(mask.Shape); err != nil {
		return b.unsupported("binary erosion", err, fallback)
	}

	offsets := footprint.Offsets()
	p := newParams(mask.Shape)
	p.Count = uint32(len(offsets)) //nolint:gosec // bounded by footprint size
	out, err := b.run(mask.AsBool().Data, mask.Size(), []step{{kernel: kernelErode, params: p, aux: packOffsets(offsets)}})
	if err != nil {
		return b.unsupported("binary erosion", err, fallback)
	}
	return ndfilter.ArrayFromSlice(ndfilter.Bool, out, mask.Shape...)
}

// GaussianFilter implements ndfilter.Backend. Kernels are built on the host
// exactly as on the CPU backend; axes whose kernel is a unit impulse are
// skipped.
func (b *Backend) GaussianFilter(in *ndfilter.Array, p ndfilter.GaussianParams) (*ndfilter.Array, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(in.NDim()); err != nil {
		return nil, err
	}
	fallback := func(c *cpu.Backend) (*ndfilter.Array, error) { return c.GaussianFilter(in, p) }
	if err := b.check(in.Shape); err != nil {
		return b.unsupported("gaussian", err, fallback)
	}

	kernels := ndimage.AxisKernels(p.Sigma, p.Spacing, p.Order, p.NormalizeAcrossScale, p.MaxError, p.MaxHalfWidth)
	var steps []step
	for d, k := range kernels {
		if ndimage.IsIdentity(k) {
			continue
		}
		kp := newParams(in.Shape)
		kp.axis(in.NDim(), d)
		kp.Count = uint32(len(k)) //nolint:gosec // bounded by MaxHalfWidth
		kp.Mode = modeNearest
		steps = append(steps, step{kernel: kernelCorrelate, params: kp, aux: packFloats(k)})
	}
	if len(steps) == 0 {
		return in.AsType(ndfilter.Float64), nil
	}
	slogger().Debug("wgpu: gaussian", "shape", in.Shape, "passes", len(steps))
	out, err := b.run(in.Data, in.Size(), steps)
	if err != nil {
		return b.unsupported("gaussian", err, fallback)
	}
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
	fallback := func(c *cpu.Backend) (*ndfilter.Array, error) { return c.DownscaleLocalMean(in, factors) }
	if err := b.check(in.Shape); err != nil {
		return b.unsupported("downscale", err, fallback)
	}

	shape := ndimage.DownscaleShape(in.Shape, factors)
	p := newParams(in.Shape)
	p.Extra = padFactors(factors)
	p.Count = uint32(sizeOf(factors)) //nolint:gosec // block of a checked array
	p.Total = uint32(sizeOf(shape))   //nolint:gosec // smaller than the input
	out, err := b.run(in.Data, sizeOf(shape), []step{{kernel: kernelDownscale, params: p}})
	if err != nil {
		return b.unsupported("downscale", err, fallback)
	}
	return ndfilter.ArrayFromSlice(ndfilter.Float64, out, shape...)
}

// MedianFilter implements ndfilter.Backend. Footprints are limited to 256
// elements.
func (b *Backend) MedianFilter(in *ndfilter.Array, footprint *ndfilter.Footprint, mode ndfilter.BoundaryMode) (*ndfilter.Array, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := footprint.Validate(in.NDim()); err != nil {
		return nil, err
	}
	fallback := func(c *cpu.Backend) (*ndfilter.Array, error) { return c.MedianFilter(in, footprint, mode) }
	if err := b.check(in.Shape); err != nil {
		return b.unsupported("median", err, fallback)
	}
	offsets := footprint.Offsets()
	if len(offsets) > maxWindow {
		return b.unsupported("median", errWindowTooBig, fallback)
	}

	p := newParams(in.Shape)
	p.Count = uint32(len(offsets)) //nolint:gosec // at most maxWindow
	p.Rank = p.Count / 2
	p.Mode = modeNearest
	if mode == ndfilter.BoundaryConstant {
		p.Mode = modeConstant
	}
	out, err := b.run(in.Data, in.Size(), []step{{kernel: kernelMedian, params: p, aux: packOffsets(offsets)}})
	if err != nil {
		return b.unsupported("median", err, fallback)
	}
	return ndfilter.ArrayFromSlice(in.DType, out, in.Shape...)
}
