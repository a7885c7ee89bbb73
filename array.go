package ndfilter

import (
	"fmt"
	"slices"
)

// Array is an N-dimensional array in backend axis order: row-major, the
// last axis varies fastest. It is the canonical type every Backend
// primitive consumes and produces.
//
// Data always has exactly Size() elements. Arrays created by a filter call
// are owned by the caller; backends never retain them.
type Array struct {
	// Shape is the extent along each axis, slowest-varying first.
	Shape []int

	// Data holds the elements in row-major order.
	Data []float64

	// DType is the logical element type.
	DType PixelType
}

// NewArray allocates a zero-filled array of the given type and shape.
func NewArray(dtype PixelType, shape ...int) *Array {
	return &Array{
		Shape: slices.Clone(shape),
		Data:  make([]float64, shapeSize(shape)),
		DType: dtype,
	}
}

// ArrayFromSlice wraps data as an array of the given shape without copying.
func ArrayFromSlice(dtype PixelType, data []float64, shape ...int) (*Array, error) {
	if n := shapeSize(shape); n != len(data) {
		return nil, fmt.Errorf("%w: %d elements for shape %v (want %d)", ErrShapeMismatch, len(data), shape, n)
	}
	return &Array{Shape: slices.Clone(shape), Data: data, DType: dtype}, nil
}

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.Shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return shapeSize(a.Shape) }

// Strides returns the element strides of each axis.
func (a *Array) Strides() []int { return shapeStrides(a.Shape) }

// Validate checks that a is non-nil, non-empty and consistent.
func (a *Array) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrInvalidInput)
	}
	if len(a.Shape) == 0 {
		return fmt.Errorf("%w: zero-dimensional array", ErrInvalidInput)
	}
	for i, s := range a.Shape {
		if s <= 0 {
			return fmt.Errorf("%w: axis %d has extent %d", ErrInvalidInput, i, s)
		}
	}
	if len(a.Data) != a.Size() {
		return fmt.Errorf("%w: %d elements for shape %v", ErrInvalidInput, len(a.Data), a.Shape)
	}
	return nil
}

// Offset returns the flat index of the element at idx.
func (a *Array) Offset(idx ...int) int {
	off := 0
	for i, v := range idx {
		off = off*a.Shape[i] + v
	}
	return off
}

// At returns the element at idx.
func (a *Array) At(idx ...int) float64 { return a.Data[a.Offset(idx...)] }

// Set stores v at idx.
func (a *Array) Set(v float64, idx ...int) { a.Data[a.Offset(idx...)] = v }

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	return &Array{Shape: slices.Clone(a.Shape), Data: slices.Clone(a.Data), DType: a.DType}
}

// AsBool reinterprets a as a binary mask: nonzero elements become 1.
// A Bool array is returned as is; any other type is copied.
func (a *Array) AsBool() *Array {
	if a.DType == Bool {
		return a
	}
	out := NewArray(Bool, a.Shape...)
	for i, v := range a.Data {
		if v != 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// Not returns the logical complement of a binary mask.
func (a *Array) Not() *Array {
	out := NewArray(Bool, a.Shape...)
	for i, v := range a.Data {
		if v == 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// AsType returns a copy of a converted to dtype.
func (a *Array) AsType(dtype PixelType) *Array {
	out := &Array{Shape: slices.Clone(a.Shape), Data: make([]float64, len(a.Data)), DType: dtype}
	for i, v := range a.Data {
		out.Data[i] = dtype.Quantize(v)
	}
	return out
}

// Crop returns the leading sub-block of a with the given shape, that is
// the elements whose index is below shape along every axis.
func (a *Array) Crop(shape []int) (*Array, error) {
	return a.Slice(make([]int, a.NDim()), shape)
}

// Slice copies the block of the given shape starting at start. The block
// must lie inside the array.
func (a *Array) Slice(start, shape []int) (*Array, error) {
	if len(shape) != a.NDim() || len(start) != a.NDim() {
		return nil, fmt.Errorf("%w: slice of %d axes at %d axes from a %d-d array", ErrShapeMismatch, len(shape), len(start), a.NDim())
	}
	for i, s := range shape {
		if start[i] < 0 || s <= 0 || start[i]+s > a.Shape[i] {
			return nil, fmt.Errorf("%w: slice [%d, %d) on axis %d of %d", ErrShapeMismatch, start[i], start[i]+s, i, a.Shape[i])
		}
	}
	if slices.Equal(shape, a.Shape) {
		return a, nil
	}
	out := NewArray(a.DType, shape...)
	inStrides := a.Strides()
	base := 0
	for d, v := range start {
		base += v * inStrides[d]
	}
	idx := make([]int, len(shape))
	for o := range out.Data {
		src := base
		for d, v := range idx {
			src += v * inStrides[d]
		}
		out.Data[o] = a.Data[src]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

func shapeSize(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func shapeStrides(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}
