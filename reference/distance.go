package reference

import (
	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/internal/ndimage"
	"github.com/gogpu/ndfilter/internal/parallel"
)

// SignedMaurerDistanceMap computes the signed Euclidean distance of every
// pixel to the object contour. Pixels different from the background value
// form the object; the contour is the set of object pixels with a
// background pixel among their 3^N neighbours inside the image. Contour
// pixels are 0, object pixels are negative and background pixels positive
// (reversed with inside_is_positive). The output pixel type is Float32.
//
// Options: squared_distance (default true), inside_is_positive (false),
// use_image_spacing (true), background_value (0).
type SignedMaurerDistanceMap struct {
	base

	squaredDistance  bool
	insideIsPositive bool
	useImageSpacing  bool
	backgroundValue  float64
}

// NewSignedMaurerDistanceMap creates the filter with the toolkit defaults
// overridden by opts.
func NewSignedMaurerDistanceMap(opts Options) (*SignedMaurerDistanceMap, error) {
	f := &SignedMaurerDistanceMap{
		squaredDistance: true,
		useImageSpacing: true,
	}
	return newFilter(f, &f.base, "SignedMaurerDistanceMap", opts)
}

func (f *SignedMaurerDistanceMap) set(key string, v any) error {
	var err error
	switch key {
	case "squared_distance":
		f.squaredDistance, err = asBool(key, v)
	case "inside_is_positive":
		f.insideIsPositive, err = asBool(key, v)
	case "use_image_spacing":
		f.useImageSpacing, err = asBool(key, v)
	case "background_value":
		f.backgroundValue, err = asFloat(key, v)
	default:
		err = f.unknown(key)
	}
	return err
}

func (f *SignedMaurerDistanceMap) SquaredDistance() bool        { return f.squaredDistance }
func (f *SignedMaurerDistanceMap) SetSquaredDistance(v bool)    { f.squaredDistance = v }
func (f *SignedMaurerDistanceMap) InsideIsPositive() bool       { return f.insideIsPositive }
func (f *SignedMaurerDistanceMap) SetInsideIsPositive(v bool)   { f.insideIsPositive = v }
func (f *SignedMaurerDistanceMap) UseImageSpacing() bool        { return f.useImageSpacing }
func (f *SignedMaurerDistanceMap) SetUseImageSpacing(v bool)    { f.useImageSpacing = v }
func (f *SignedMaurerDistanceMap) BackgroundValue() float64     { return f.backgroundValue }
func (f *SignedMaurerDistanceMap) SetBackgroundValue(v float64) { f.backgroundValue = v }

// OutputInformation keeps the input geometry with a Float32 pixel type.
func (f *SignedMaurerDistanceMap) OutputInformation(in ndfilter.Info) (ndfilter.Info, error) {
	out := in.Clone()
	out.PixelType = ndfilter.Float32
	return out, nil
}

func (f *SignedMaurerDistanceMap) generateData(in, out *ndfilter.Image) error {
	arr := in.Array()
	shape := arr.Shape
	strides := arr.Strides()
	offsets := ndfilter.ConnectivityFootprint(len(shape)).Offsets()

	object := make([]bool, len(arr.Data))
	for i, v := range arr.Data {
		object[i] = v != f.backgroundValue
	}

	// zeros of notContour are the contour pixels
	notContour := make([]float64, len(arr.Data))
	idx := make([]int, len(shape))
	for i := range arr.Data {
		notContour[i] = 1
		if !object[i] {
			continue
		}
		unravelIndex(i, shape, idx)
	neighbours:
		for _, off := range offsets {
			n := 0
			for d, o := range off {
				c := idx[d] + o
				if c < 0 || c >= shape[d] {
					continue neighbours
				}
				n += c * strides[d]
			}
			if !object[n] {
				notContour[i] = 0
				break
			}
		}
	}

	var sampling []float64
	if f.useImageSpacing && !ndfilter.IsUnitSpacing(in.Spacing) {
		sampling = ndfilter.Reverse(in.Spacing)
	}
	var dist []float64
	if f.squaredDistance {
		dist = ndimage.SquaredEDT(parallel.Shared(), shape, notContour, sampling)
	} else {
		dist = ndimage.EDT(parallel.Shared(), shape, notContour, sampling)
	}

	inside := -1.0
	if f.insideIsPositive {
		inside = 1
	}
	for i := range dist {
		d := dist[i]
		if object[i] {
			d *= inside
		} else {
			d *= -inside
		}
		if d == 0 {
			d = 0 // no negative zero
		}
		dist[i] = d
	}

	result, err := ndfilter.ArrayFromSlice(ndfilter.Float64, dist, shape...)
	if err != nil {
		return err
	}
	return out.WriteArray(result)
}

func unravelIndex(i int, shape, idx []int) {
	for d := len(shape) - 1; d >= 0; d-- {
		idx[d] = i % shape[d]
		i /= shape[d]
	}
}
