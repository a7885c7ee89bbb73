package ndfilter

import (
	"fmt"
	"math"
)

// PixelType identifies the storage type of image and array elements.
// Values are always held as float64 in memory; the pixel type controls
// rounding and clamping when results are written back.
type PixelType uint8

const (
	// Float32 is a 32-bit IEEE float pixel.
	Float32 PixelType = iota

	// Float64 is a 64-bit IEEE float pixel.
	Float64

	// Uint8 is an unsigned 8-bit integer pixel.
	Uint8

	// Uint16 is an unsigned 16-bit integer pixel.
	Uint16

	// Int16 is a signed 16-bit integer pixel.
	Int16

	// Bool is a binary pixel holding 0 or 1.
	Bool
)

// String returns the pixel type name.
func (t PixelType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("PixelType(%d)", uint8(t))
	}
}

// ParsePixelType returns the pixel type with the given name.
func ParsePixelType(name string) (PixelType, error) {
	for t := Float32; t <= Bool; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pixel type %q", ErrInvalidInput, name)
}

// IsInteger reports whether t is an integer pixel type (Bool excluded).
func (t PixelType) IsInteger() bool {
	return t == Uint8 || t == Uint16 || t == Int16
}

// IsFloat reports whether t is a floating-point pixel type.
func (t PixelType) IsFloat() bool {
	return t == Float32 || t == Float64
}

// Range returns the representable value range of t.
func (t PixelType) Range() (lo, hi float64) {
	switch t {
	case Uint8:
		return 0, math.MaxUint8
	case Uint16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Bool:
		return 0, 1
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Quantize converts v to the nearest value representable by t.
// Integer types round half away from zero and saturate; Bool maps any
// nonzero value to 1; Float32 rounds through float32 precision and keeps
// infinities and NaN.
func (t PixelType) Quantize(v float64) float64 {
	switch t {
	case Float64:
		return v
	case Float32:
		return float64(float32(v))
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := t.Range()
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
