package reference

import (
	"fmt"
	"math"

	"github.com/gogpu/ndfilter"
)

// BinShrink reduces the image size by an integer factor per axis, each
// output pixel being the mean of the f1 x f2 x ... input bin it covers.
// Integer pixel types are rounded. The output spacing grows by the factor
// and the origin moves to the centre of the first bin.
//
// Options: shrink_factors (default 1), or its alias shrink_factor.
type BinShrink struct {
	base

	shrinkFactors []int
}

// NewBinShrink creates the filter with the toolkit defaults overridden by
// opts.
func NewBinShrink(opts Options) (*BinShrink, error) {
	f := &BinShrink{shrinkFactors: []int{1}}
	return newFilter(f, &f.base, "BinShrink", opts)
}

func (f *BinShrink) set(key string, v any) error {
	switch key {
	case "shrink_factors", "shrink_factor":
		factors, err := asInts(key, v)
		if err != nil {
			return err
		}
		f.shrinkFactors = factors
		return nil
	}
	return f.unknown(key)
}

// ShrinkFactors returns the per-axis factors, fastest axis first.
func (f *BinShrink) ShrinkFactors(dim int) []int { return mustBroadcast(f.shrinkFactors, dim) }

// SetShrinkFactors sets the factors; a single value applies to every axis.
func (f *BinShrink) SetShrinkFactors(v ...int) { f.shrinkFactors = append([]int(nil), v...) }

// OutputInformation computes the shrunk grid:
//
//	spacing' = spacing * f
//	index'   = ceil(index / f)
//	size'    = floor((size + index - index'*f) / f)
//	origin'  = physical point of continuous index (f-1)/2
//
// An axis too short to fill a single bin is an error.
func (f *BinShrink) OutputInformation(in ndfilter.Info) (ndfilter.Info, error) {
	dim := in.Dim()
	factors, err := broadcast("shrink_factors", f.shrinkFactors, dim)
	if err != nil {
		return ndfilter.Info{}, err
	}
	out := in.Clone()
	originIndex := make([]float64, dim)
	for i, s := range factors {
		if s < 1 {
			return ndfilter.Info{}, fmt.Errorf("%w: shrink factor %d on axis %d", ErrInvalidParameter, s, i)
		}
		out.Spacing[i] = in.Spacing[i] * float64(s)
		originIndex[i] = 0.5 * float64(s-1)
		out.Index[i] = int(math.Ceil(float64(in.Index[i]) / float64(s)))
		out.Size[i] = int(math.Floor(float64(in.Size[i]+in.Index[i]-out.Index[i]*s) / float64(s)))
		if out.Size[i] < 1 {
			return ndfilter.Info{}, fmt.Errorf("%w: axis %d of size %d is smaller than shrink factor %d",
				ErrInvalidParameter, i, in.Size[i], s)
		}
	}
	out.Origin = in.ContinuousIndexToPhysicalPoint(originIndex)
	return out, nil
}

func (f *BinShrink) generateData(in, out *ndfilter.Image) error {
	dim := in.Dim()
	factors := f.ShrinkFactors(dim)
	bin := 1
	for _, s := range factors {
		bin *= s
	}

	oidx := make([]int, dim)
	kidx := make([]int, dim)
	src := make([]int, dim)
	for o := range out.NumPixels() {
		// image order: axis 0 fastest
		rem := o
		for d := range dim {
			oidx[d] = rem % out.Size[d]
			rem /= out.Size[d]
		}
		for d := range kidx {
			kidx[d] = 0
		}
		sum := 0.0
		for {
			for d := range dim {
				src[d] = (out.Index[d]+oidx[d])*factors[d] + kidx[d] - in.Index[d]
			}
			sum += in.Pixel(src...)
			if !advance(kidx, factors) {
				break
			}
		}
		out.SetPixel(sum/float64(bin), oidx...)
	}
	return nil
}

// advance steps idx through [0, extent) with axis 0 fastest and reports
// false after the last position.
func advance(idx, extent []int) bool {
	for d := range idx {
		idx[d]++
		if idx[d] < extent[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}
