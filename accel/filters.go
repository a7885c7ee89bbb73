// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package accel

import (
	"fmt"
	"math"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/reference"
)

// SignedMaurerDistanceMap is the drop-in for
// reference.SignedMaurerDistanceMap. The signed field is assembled from two
// unsigned distance transforms by ndfilter.SignedDistance. Only a
// background value of 0 is supported.
type SignedMaurerDistanceMap struct {
	ref *reference.SignedMaurerDistanceMap
	cfg config
}

// NewSignedMaurerDistanceMap creates the drop-in. A nonzero
// background_value returns ndfilter.ErrUnsupportedConfiguration.
func NewSignedMaurerDistanceMap(opts reference.Options, options ...Option) (*SignedMaurerDistanceMap, error) {
	ref, err := reference.NewSignedMaurerDistanceMap(opts)
	if err != nil {
		return nil, err
	}
	f := &SignedMaurerDistanceMap{ref: ref, cfg: newConfig(options)}
	if err := f.checkBackground(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *SignedMaurerDistanceMap) checkBackground() error {
	if v := f.ref.BackgroundValue(); v != 0 {
		return fmt.Errorf("%w: only background_value=0 is supported, got %v", ndfilter.ErrUnsupportedConfiguration, v)
	}
	return nil
}

// Name returns the reference filter name.
func (f *SignedMaurerDistanceMap) Name() string { return f.ref.Name() }

// Reference returns the wrapped reference filter.
func (f *SignedMaurerDistanceMap) Reference() *reference.SignedMaurerDistanceMap { return f.ref }

// ComputeMetadata implements Filter.
func (f *SignedMaurerDistanceMap) ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error) {
	return metadata(f.ref, in)
}

// ComputeData implements Filter.
func (f *SignedMaurerDistanceMap) ComputeData(in, out *ndfilter.Image) error {
	if err := f.checkBackground(); err != nil {
		return err
	}
	mask := in.Cast(ndfilter.Float32).Array()

	var spacing []float64
	if f.ref.UseImageSpacing() {
		spacing = ndfilter.Reverse(in.Spacing)
	}
	opts := []ndfilter.DistanceOption{
		ndfilter.WithSpacing(spacing),
		ndfilter.WithSquaredDistance(f.ref.SquaredDistance()),
		ndfilter.WithInsideIsPositive(f.ref.InsideIsPositive()),
	}
	res, err := f.cfg.compute(func(b ndfilter.Backend) (*ndfilter.Array, error) {
		return ndfilter.SignedDistance(b, mask, opts...)
	})
	if err != nil {
		return err
	}
	return out.WriteArray(res)
}

// gaussianParams translates the reference Gaussian parameters into backend
// order. Variances become standard deviations.
func gaussianParams(in *ndfilter.Image, variance, maxError []float64, maxKernelWidth int, useSpacing bool) ndfilter.GaussianParams {
	dim := in.Dim()
	sigma := make([]float64, dim)
	for i, v := range variance {
		sigma[i] = math.Sqrt(v)
	}
	spacing := ndfilter.Fill(dim, 1.0)
	if useSpacing {
		spacing = ndfilter.Reverse(in.Spacing)
	}
	return ndfilter.GaussianParams{
		Sigma:        ndfilter.Reverse(sigma),
		Order:        make([]int, dim),
		Spacing:      spacing,
		MaxError:     ndfilter.Reverse(maxError),
		MaxHalfWidth: maxKernelWidth - 1,
	}
}

// DiscreteGaussian is the drop-in for reference.DiscreteGaussian.
type DiscreteGaussian struct {
	ref *reference.DiscreteGaussian
	cfg config
}

// NewDiscreteGaussian creates the drop-in.
func NewDiscreteGaussian(opts reference.Options, options ...Option) (*DiscreteGaussian, error) {
	ref, err := reference.NewDiscreteGaussian(opts)
	if err != nil {
		return nil, err
	}
	return &DiscreteGaussian{ref: ref, cfg: newConfig(options)}, nil
}

// Name returns the reference filter name.
func (f *DiscreteGaussian) Name() string { return f.ref.Name() }

// Reference returns the wrapped reference filter.
func (f *DiscreteGaussian) Reference() *reference.DiscreteGaussian { return f.ref }

// ComputeMetadata implements Filter.
func (f *DiscreteGaussian) ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error) {
	return metadata(f.ref, in)
}

// ComputeData implements Filter.
func (f *DiscreteGaussian) ComputeData(in, out *ndfilter.Image) error {
	dim := in.Dim()
	p := gaussianParams(in, f.ref.Variance(dim), f.ref.MaximumError(dim), f.ref.MaximumKernelWidth(), f.ref.UseImageSpacing())
	res, err := f.cfg.compute(func(b ndfilter.Backend) (*ndfilter.Array, error) {
		return b.GaussianFilter(in.Array(), p)
	})
	if err != nil {
		return err
	}
	return out.WriteArray(res)
}

// DiscreteGaussianDerivative is the drop-in for
// reference.DiscreteGaussianDerivative.
type DiscreteGaussianDerivative struct {
	ref *reference.DiscreteGaussianDerivative
	cfg config
}

// NewDiscreteGaussianDerivative creates the drop-in.
func NewDiscreteGaussianDerivative(opts reference.Options, options ...Option) (*DiscreteGaussianDerivative, error) {
	ref, err := reference.NewDiscreteGaussianDerivative(opts)
	if err != nil {
		return nil, err
	}
	return &DiscreteGaussianDerivative{ref: ref, cfg: newConfig(options)}, nil
}

// Name returns the reference filter name.
func (f *DiscreteGaussianDerivative) Name() string { return f.ref.Name() }

// Reference returns the wrapped reference filter.
func (f *DiscreteGaussianDerivative) Reference() *reference.DiscreteGaussianDerivative { return f.ref }

// ComputeMetadata implements Filter.
func (f *DiscreteGaussianDerivative) ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error) {
	return metadata(f.ref, in)
}

// ComputeData implements Filter.
func (f *DiscreteGaussianDerivative) ComputeData(in, out *ndfilter.Image) error {
	dim := in.Dim()
	p := gaussianParams(in, f.ref.Variance(dim), f.ref.MaximumError(dim), f.ref.MaximumKernelWidth(), f.ref.UseImageSpacing())
	p.Order = ndfilter.Reverse(f.ref.Order(dim))
	p.NormalizeAcrossScale = f.ref.NormalizeAcrossScale()
	res, err := f.cfg.compute(func(b ndfilter.Backend) (*ndfilter.Array, error) {
		return b.GaussianFilter(in.Array(), p)
	})
	if err != nil {
		return err
	}
	return out.WriteArray(res)
}

// BinShrink is the drop-in for reference.BinShrink. Bins are aligned to
// the output index grid: output pixel o averages the input pixels
// (out.Index+o)*f - in.Index + [0, f). The input is sliced to exactly those
// whole bins before the backend block mean.
type BinShrink struct {
	ref *reference.BinShrink
	cfg config
}

// NewBinShrink creates the drop-in. Both shrink_factors and shrink_factor
// are accepted.
func NewBinShrink(opts reference.Options, options ...Option) (*BinShrink, error) {
	ref, err := reference.NewBinShrink(opts)
	if err != nil {
		return nil, err
	}
	return &BinShrink{ref: ref, cfg: newConfig(options)}, nil
}

// Name returns the reference filter name.
func (f *BinShrink) Name() string { return f.ref.Name() }

// Reference returns the wrapped reference filter.
func (f *BinShrink) Reference() *reference.BinShrink { return f.ref }

// ComputeMetadata implements Filter.
func (f *BinShrink) ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error) {
	return metadata(f.ref, in)
}

// ComputeData implements Filter.
func (f *BinShrink) ComputeData(in, out *ndfilter.Image) error {
	dim := in.Dim()
	shrink := f.ref.ShrinkFactors(dim)
	start := make([]int, dim)
	extent := make([]int, dim)
	for d, s := range shrink {
		start[d] = out.Index[d]*s - in.Index[d]
		extent[d] = out.Size[d] * s
	}
	arr, err := in.Array().Slice(ndfilter.Reverse(start), ndfilter.Reverse(extent))
	if err != nil {
		return err
	}
	factors := ndfilter.Reverse(shrink)

	res, err := f.cfg.compute(func(b ndfilter.Backend) (*ndfilter.Array, error) {
		return b.DownscaleLocalMean(arr, factors)
	})
	if err != nil {
		return err
	}
	return out.WriteArray(res)
}

// Median is the drop-in for reference.Median: a box footprint of extent
// 2r+1 with edge values repeated outside the image.
type Median struct {
	ref *reference.Median
	cfg config
}

// NewMedian creates the drop-in.
func NewMedian(opts reference.Options, options ...Option) (*Median, error) {
	ref, err := reference.NewMedian(opts)
	if err != nil {
		return nil, err
	}
	return &Median{ref: ref, cfg: newConfig(options)}, nil
}

// Name returns the reference filter name.
func (f *Median) Name() string { return f.ref.Name() }

// Reference returns the wrapped reference filter.
func (f *Median) Reference() *reference.Median { return f.ref }

// ComputeMetadata implements Filter.
func (f *Median) ComputeMetadata(in ndfilter.Info) (ndfilter.Info, error) {
	return metadata(f.ref, in)
}

// ComputeData implements Filter.
func (f *Median) ComputeData(in, out *ndfilter.Image) error {
	footprint := ndfilter.BoxFootprint(ndfilter.Reverse(f.ref.Radius(in.Dim())))
	res, err := f.cfg.compute(func(b ndfilter.Backend) (*ndfilter.Array, error) {
		return b.MedianFilter(in.Array(), footprint, ndfilter.BoundaryNearest)
	})
	if err != nil {
		return err
	}
	return out.WriteArray(res)
}
