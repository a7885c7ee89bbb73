// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package accel provides accelerated drop-in replacements for the
// reference toolkit filters.
//
// Each drop-in wraps the corresponding reference filter: output metadata
// comes from the reference filter's metadata pass, parameters are read
// through its getters, and pixels are computed by an ndfilter.Backend (the
// GPU when github.com/gogpu/ndfilter/gpu is imported and a device is
// available, the CPU otherwise).
//
//	out, err := accel.Apply("Median", img, reference.Options{"radius": 2})
//
// Per-axis parameters are given in the toolkit order (fastest axis first)
// and reversed into backend order internally.
package accel

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/ndfilter"
	_ "github.com/gogpu/ndfilter/backend/cpu" // always available as fallback
	"github.com/gogpu/ndfilter/reference"
)

// Filter is the two-step contract between a drop-in and the image
// pipeline: metadata first, then pixels into a pre-allocated output.
type Filter interface {
	// ComputeMetadata returns the output metadata for an input with the
	// given metadata.
	ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error)

	// ComputeData fills the allocated output image from the input.
	ComputeData(in, out *ndfilter.Image) error
}

// Run coerces input to an image, computes the output metadata, allocates
// the output and fills it. One Filter may serve concurrent Run calls.
func Run(f Filter, input any) (*ndfilter.Image, error) {
	in, err := ndfilter.AsImage(input)
	if err != nil {
		return nil, err
	}
	if err := in.Info.Validate(); err != nil {
		return nil, err
	}
	if !in.Allocated() {
		return nil, fmt.Errorf("%w: input has no pixel buffer", ndfilter.ErrInvalidInput)
	}

	info, err := f.ComputeMetadata(in.Info)
	if err != nil {
		return nil, err
	}
	out := &ndfilter.Image{}
	out.CopyInformation(info)
	out.Allocate()

	log := ndfilter.Logger().With("run", runID(), "filter", filterName(f))
	start := time.Now()
	if err := f.ComputeData(in, out); err != nil {
		log.Debug("accel: run failed", "err", err)
		return nil, err
	}
	log.Debug("accel: run",
		"size", in.Size, "in_type", in.PixelType,
		"out_size", out.Size, "out_type", out.PixelType,
		"elapsed", time.Since(start))
	return out, nil
}

// New creates the drop-in for the named reference filter.
func New(name string, opts reference.Options, options ...Option) (Filter, error) {
	var (
		f   Filter
		err error
	)
	switch name {
	case "SignedMaurerDistanceMap":
		f, err = nilOnError(NewSignedMaurerDistanceMap(opts, options...))
	case "DiscreteGaussian":
		f, err = nilOnError(NewDiscreteGaussian(opts, options...))
	case "DiscreteGaussianDerivative":
		f, err = nilOnError(NewDiscreteGaussianDerivative(opts, options...))
	case "BinShrink":
		f, err = nilOnError(NewBinShrink(opts, options...))
	case "Median":
		f, err = nilOnError(NewMedian(opts, options...))
	default:
		err = fmt.Errorf("%w: unknown filter %q", reference.ErrInvalidParameter, name)
	}
	return f, err
}

// Apply creates the named drop-in and runs it on input.
func Apply(name string, input any, opts reference.Options, options ...Option) (*ndfilter.Image, error) {
	f, err := New(name, opts, options...)
	if err != nil {
		return nil, err
	}
	return Run(f, input)
}

func nilOnError[F Filter](f F, err error) (Filter, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Option configures a drop-in filter.
type Option func(*config)

type config struct {
	backend     ndfilter.Backend
	backendName string
}

// WithBackend runs the filter on b instead of the default backend.
func WithBackend(b ndfilter.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithBackendName runs the filter on the registered backend name, for
// example ndfilter.BackendCPU.
func WithBackendName(name string) Option {
	return func(c *config) {
		c.backendName = name
	}
}

func newConfig(options []Option) config {
	var c config
	for _, opt := range options {
		opt(&c)
	}
	return c
}

func (c *config) open() (ndfilter.Backend, error) {
	switch {
	case c.backend != nil:
		return c.backend, nil
	case c.backendName != "":
		return ndfilter.OpenBackend(c.backendName)
	default:
		return ndfilter.DefaultBackend()
	}
}

// compute runs fn on the configured backend. A backend that reports
// ndfilter.ErrFallbackToCPU gets the call retried on the CPU backend.
func (c *config) compute(fn func(b ndfilter.Backend) (*ndfilter.Array, error)) (*ndfilter.Array, error) {
	b, err := c.open()
	if err != nil {
		return nil, err
	}
	res, err := fn(b)
	if err == nil || !errors.Is(err, ndfilter.ErrFallbackToCPU) || b.Name() == ndfilter.BackendCPU {
		return res, err
	}

	ndfilter.Logger().Warn("accel: falling back to CPU", "backend", b.Name(), "err", err)
	cpu, openErr := ndfilter.OpenBackend(ndfilter.BackendCPU)
	if openErr != nil {
		return nil, errors.Join(err, openErr)
	}
	return fn(cpu)
}

// metadata returns the reference filter's output metadata for in. It leaves
// the reference filter's input and output untouched, so one filter can serve
// concurrent Run calls.
func metadata(ref reference.Filter, in ndfilter.Info) (ndfilter.Info, error) {
	if err := in.Validate(); err != nil {
		return ndfilter.Info{}, err
	}
	return ref.OutputInformation(in)
}

func runID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func filterName(f Filter) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", f)
}
