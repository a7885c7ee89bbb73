package ndfilter

import (
	"fmt"
	"math"
	"slices"
)

// Info is the geometry and pixel-type metadata of an Image.
// All per-axis fields are ordered fastest-varying axis first.
//
// The requested and buffered regions of an image both equal the largest
// possible region described by Index and Size.
type Info struct {
	// Size is the number of pixels along each axis.
	Size []int

	// Index is the start index of the region.
	Index []int

	// Origin is the physical position of the pixel at index zero.
	Origin []float64

	// Spacing is the physical distance between adjacent pixels per axis.
	Spacing []float64

	// Direction is the row-major dim x dim direction cosine matrix.
	Direction []float64

	// PixelType is the storage type of the pixels.
	PixelType PixelType
}

// NewInfo returns metadata for an image of the given size with unit
// spacing, zero origin and index, and identity direction.
func NewInfo(pt PixelType, size ...int) Info {
	dim := len(size)
	return Info{
		Size:      slices.Clone(size),
		Index:     make([]int, dim),
		Origin:    make([]float64, dim),
		Spacing:   Fill(dim, 1.0),
		Direction: identity(dim),
		PixelType: pt,
	}
}

// Dim returns the image dimensionality.
func (i Info) Dim() int { return len(i.Size) }

// NumPixels returns the number of pixels in the region.
func (i Info) NumPixels() int { return shapeSize(i.Size) }

// Clone returns a deep copy of i.
func (i Info) Clone() Info {
	return Info{
		Size:      slices.Clone(i.Size),
		Index:     slices.Clone(i.Index),
		Origin:    slices.Clone(i.Origin),
		Spacing:   slices.Clone(i.Spacing),
		Direction: slices.Clone(i.Direction),
		PixelType: i.PixelType,
	}
}

// Validate checks that every field is consistent with the dimensionality.
func (i Info) Validate() error {
	dim := i.Dim()
	if dim == 0 {
		return fmt.Errorf("%w: zero-dimensional image", ErrInvalidInput)
	}
	for d, s := range i.Size {
		if s <= 0 {
			return fmt.Errorf("%w: size %d on axis %d", ErrInvalidInput, s, d)
		}
	}
	if len(i.Index) != dim || len(i.Origin) != dim || len(i.Spacing) != dim {
		return fmt.Errorf("%w: index/origin/spacing must have %d entries", ErrShapeMismatch, dim)
	}
	if len(i.Direction) != dim*dim {
		return fmt.Errorf("%w: direction must have %d entries, got %d", ErrShapeMismatch, dim*dim, len(i.Direction))
	}
	for d, s := range i.Spacing {
		if !(s > 0) {
			return fmt.Errorf("%w: spacing %v on axis %d", ErrInvalidInput, s, d)
		}
	}
	return nil
}

// SameGeometry reports whether i and o describe the same grid: equal size,
// index, and origin, spacing and direction within tol (relative to the
// spacing of each axis for origin, absolute for the others). Pixel types are
// not compared.
func (i Info) SameGeometry(o Info, tol float64) bool {
	if !slices.Equal(i.Size, o.Size) || !slices.Equal(i.Index, o.Index) {
		return false
	}
	if len(i.Origin) != len(o.Origin) || len(i.Spacing) != len(o.Spacing) || len(i.Direction) != len(o.Direction) {
		return false
	}
	for d := range i.Spacing {
		if math.Abs(i.Spacing[d]-o.Spacing[d]) > tol {
			return false
		}
		if math.Abs(i.Origin[d]-o.Origin[d]) > tol*i.Spacing[d] {
			return false
		}
	}
	for k := range i.Direction {
		if math.Abs(i.Direction[k]-o.Direction[k]) > tol {
			return false
		}
	}
	return true
}

// ContinuousIndexToPhysicalPoint maps a continuous index to physical space:
// origin + direction * diag(spacing) * index.
func (i Info) ContinuousIndexToPhysicalPoint(idx []float64) []float64 {
	dim := i.Dim()
	p := slices.Clone(i.Origin)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			p[r] += i.Direction[r*dim+c] * i.Spacing[c] * idx[c]
		}
	}
	return p
}

// Image is an N-dimensional image of the reference toolkit: metadata plus a
// pixel buffer stored fastest-varying axis first.
type Image struct {
	Info

	buffer []float64
}

// NewImage returns an image with the given metadata and an allocated,
// zero-filled buffer.
func NewImage(info Info) *Image {
	im := &Image{Info: info.Clone()}
	im.Allocate()
	return im
}

// NewImageFromArray wraps an array (backend order) as an image with unit
// geometry. The image shares the array's data.
func NewImageFromArray(a *Array) *Image {
	info := NewInfo(a.DType, Reverse(a.Shape)...)
	return &Image{Info: info, buffer: a.Data}
}

// CopyInformation replaces the metadata of im with a copy of info. The
// buffer is released when the region size changes.
func (im *Image) CopyInformation(info Info) {
	if !slices.Equal(im.Size, info.Size) {
		im.buffer = nil
	}
	im.Info = info.Clone()
}

// Allocate allocates a zero-filled buffer for the requested region.
// It is a no-op when a buffer of the right size already exists.
func (im *Image) Allocate() {
	if n := im.NumPixels(); len(im.buffer) != n {
		im.buffer = make([]float64, n)
	}
}

// Allocated reports whether the pixel buffer covers the requested region.
func (im *Image) Allocated() bool {
	return im.buffer != nil && len(im.buffer) == im.NumPixels()
}

// Buffer returns the pixel buffer, fastest-varying axis first.
func (im *Image) Buffer() []float64 { return im.buffer }

// Array returns a view of the pixel buffer in backend axis order.
// The view shares memory with the image.
func (im *Image) Array() *Array {
	return &Array{Shape: Reverse(im.Size), Data: im.buffer, DType: im.PixelType}
}

// Pixel returns the pixel at idx, relative to the region start and ordered
// fastest-varying axis first.
func (im *Image) Pixel(idx ...int) float64 { return im.buffer[im.offset(idx)] }

// SetPixel stores v, quantized to the pixel type, at idx.
func (im *Image) SetPixel(v float64, idx ...int) {
	im.buffer[im.offset(idx)] = im.PixelType.Quantize(v)
}

// WriteArray copies a backend-order array into the buffer, quantizing each
// element to the pixel type. The array shape must equal the reversed size.
func (im *Image) WriteArray(a *Array) error {
	if !im.Allocated() {
		return fmt.Errorf("%w: output buffer not allocated", ErrInvalidInput)
	}
	if !slices.Equal(a.Shape, Reverse(im.Size)) {
		return fmt.Errorf("%w: array shape %v for image size %v", ErrShapeMismatch, a.Shape, im.Size)
	}
	for k, v := range a.Data {
		im.buffer[k] = im.PixelType.Quantize(v)
	}
	return nil
}

// Cast returns a copy of im with pixels converted to pt.
func (im *Image) Cast(pt PixelType) *Image {
	info := im.Info.Clone()
	info.PixelType = pt
	out := NewImage(info)
	for k, v := range im.buffer {
		out.buffer[k] = pt.Quantize(v)
	}
	return out
}

// Duplicate returns a deep copy of im.
func (im *Image) Duplicate() *Image {
	return &Image{Info: im.Info.Clone(), buffer: slices.Clone(im.buffer)}
}

func (im *Image) offset(idx []int) int {
	off := 0
	for d := len(idx) - 1; d >= 0; d-- {
		off = off*im.Size[d] + idx[d]
	}
	return off
}

func identity(dim int) []float64 {
	m := make([]float64, dim*dim)
	for d := 0; d < dim; d++ {
		m[d*dim+d] = 1
	}
	return m
}
