package ndfilter

import (
	"fmt"
	"slices"
)

// Footprint is a binary structuring element in backend axis order.
// Its origin is the centre element, Shape[i]/2 along each axis.
type Footprint struct {
	Shape []int
	Mask  []bool
}

// OnesFootprint returns a footprint of the given shape with every element
// set. OnesFootprint(3, 3, 3) is the full corner-connected 3-D neighbourhood.
func OnesFootprint(shape ...int) *Footprint {
	return &Footprint{Shape: slices.Clone(shape), Mask: Fill(shapeSize(shape), true)}
}

// ConnectivityFootprint returns the full 3x3x...x3 footprint of dimension
// dim.
func ConnectivityFootprint(dim int) *Footprint {
	return OnesFootprint(Fill(dim, 3)...)
}

// BoxFootprint returns an all-ones footprint of extent 2*r+1 along each axis.
func BoxFootprint(radius []int) *Footprint {
	shape := make([]int, len(radius))
	for i, r := range radius {
		shape[i] = 2*r + 1
	}
	return OnesFootprint(shape...)
}

// Validate checks the footprint against an array of dimension dim.
func (f *Footprint) Validate(dim int) error {
	if f == nil {
		return fmt.Errorf("%w: nil footprint", ErrInvalidInput)
	}
	if len(f.Shape) != dim {
		return fmt.Errorf("%w: %d-d footprint for %d-d array", ErrShapeMismatch, len(f.Shape), dim)
	}
	if len(f.Mask) != shapeSize(f.Shape) {
		return fmt.Errorf("%w: footprint mask has %d entries for shape %v", ErrInvalidInput, len(f.Mask), f.Shape)
	}
	if f.Count() == 0 {
		return fmt.Errorf("%w: empty footprint", ErrInvalidInput)
	}
	return nil
}

// Count returns the number of set elements.
func (f *Footprint) Count() int {
	n := 0
	for _, m := range f.Mask {
		if m {
			n++
		}
	}
	return n
}

// Offsets returns the coordinate offsets of the set elements relative to
// the origin, in row-major order.
func (f *Footprint) Offsets() [][]int {
	dim := len(f.Shape)
	out := make([][]int, 0, f.Count())
	idx := make([]int, dim)
	for _, m := range f.Mask {
		if m {
			off := make([]int, dim)
			for d := range idx {
				off[d] = idx[d] - f.Shape[d]/2
			}
			out = append(out, off)
		}
		for d := dim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < f.Shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}
