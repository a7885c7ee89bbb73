package ndimage

// lineSet enumerates the 1-D lines of an array along one axis.
type lineSet struct {
	shape   []int
	strides []int
	axis    int

	// n is the line length, stride the element step along the line and
	// count the number of lines.
	n, stride, count int
}

func newLineSet(shape []int, axis int) lineSet {
	strides := Strides(shape)
	n := shape[axis]
	return lineSet{
		shape:   shape,
		strides: strides,
		axis:    axis,
		n:       n,
		stride:  strides[axis],
		count:   Size(shape) / n,
	}
}

// base returns the flat offset of the first element of line i.
func (l lineSet) base(i int) int {
	off := 0
	for d := len(l.shape) - 1; d >= 0; d-- {
		if d == l.axis {
			continue
		}
		off += (i % l.shape[d]) * l.strides[d]
		i /= l.shape[d]
	}
	return off
}

// Size returns the number of elements of an array of the given shape.
func Size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Strides returns the row-major element strides of shape.
func Strides(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

// unravel writes the coordinates of flat index i into idx.
func unravel(i int, shape, idx []int) {
	for d := len(shape) - 1; d >= 0; d-- {
		idx[d] = i % shape[d]
		i /= shape[d]
	}
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
