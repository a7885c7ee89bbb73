package reference

import (
	"fmt"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/internal/ndimage"
	"github.com/gogpu/ndfilter/internal/parallel"
)

// Median replaces each pixel with the median of the box neighbourhood of
// the given radius; the image is extended with its edge values. The output
// keeps the input pixel type.
//
// Options: radius (default 1).
type Median struct {
	base

	radius []int
}

// NewMedian creates the filter with the toolkit defaults overridden by
// opts.
func NewMedian(opts Options) (*Median, error) {
	f := &Median{radius: []int{1}}
	return newFilter(f, &f.base, "Median", opts)
}

func (f *Median) set(key string, v any) error {
	if key != "radius" {
		return f.unknown(key)
	}
	r, err := asInts(key, v)
	if err != nil {
		return err
	}
	f.radius = r
	return nil
}

// Radius returns the per-axis neighbourhood radius, fastest axis first.
func (f *Median) Radius(dim int) []int { return mustBroadcast(f.radius, dim) }

// SetRadius sets the radius; a single value applies to every axis.
func (f *Median) SetRadius(r ...int) { f.radius = append([]int(nil), r...) }

// OutputInformation keeps the input metadata.
func (f *Median) OutputInformation(in ndfilter.Info) (ndfilter.Info, error) {
	radius, err := broadcast("radius", f.radius, in.Dim())
	if err != nil {
		return ndfilter.Info{}, err
	}
	for i, r := range radius {
		if r < 0 {
			return ndfilter.Info{}, fmt.Errorf("%w: radius %d on axis %d", ErrInvalidParameter, r, i)
		}
	}
	return in.Clone(), nil
}

func (f *Median) generateData(in, out *ndfilter.Image) error {
	arr := in.Array()
	fp := ndfilter.BoxFootprint(ndfilter.Reverse(f.Radius(in.Dim())))
	data := ndimage.Median(parallel.Shared(), arr.Shape, arr.Data, fp.Offsets(), ndimage.ModeNearest)
	result, err := ndfilter.ArrayFromSlice(arr.DType, data, arr.Shape...)
	if err != nil {
		return err
	}
	return out.WriteArray(result)
}
