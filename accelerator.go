package ndfilter

import "fmt"

// AcceleratedOp describes backend primitives for capability checking.
type AcceleratedOp uint32

const (
	// OpDistanceTransform is the unsigned Euclidean distance transform.
	OpDistanceTransform AcceleratedOp = 1 << iota

	// OpBinaryErosion is binary erosion with an arbitrary footprint.
	OpBinaryErosion

	// OpGaussian is separable discrete Gaussian (derivative) filtering.
	OpGaussian

	// OpDownscale is block-mean downsampling.
	OpDownscale

	// OpMedian is median filtering with an arbitrary footprint.
	OpMedian
)

// AllOps is the set of every primitive.
const AllOps = OpDistanceTransform | OpBinaryErosion | OpGaussian | OpDownscale | OpMedian

// BoundaryMode selects how filters read samples outside the array.
type BoundaryMode uint8

const (
	// BoundaryNearest extends the array with its edge values.
	BoundaryNearest BoundaryMode = iota

	// BoundaryConstant pads the array with zeros.
	BoundaryConstant
)

// String returns the mode name.
func (m BoundaryMode) String() string {
	if m == BoundaryConstant {
		return "constant"
	}
	return "nearest"
}

// GaussianParams configures Backend.GaussianFilter. All per-axis vectors are
// in backend axis order and have one entry per array axis.
type GaussianParams struct {
	// Sigma is the standard deviation per axis, in physical units.
	Sigma []float64

	// Order is the derivative order per axis; 0 smooths only.
	Order []int

	// Spacing is the pixel spacing per axis used to convert Sigma to pixels
	// and to scale derivatives.
	Spacing []float64

	// NormalizeAcrossScale multiplies derivatives by sigma^order.
	NormalizeAcrossScale bool

	// MaxError is the per-axis tolerated truncation error of the kernel.
	MaxError []float64

	// MaxHalfWidth bounds the kernel half width, in pixels.
	MaxHalfWidth int
}

// Validate checks p against an array of dimension dim.
func (p GaussianParams) Validate(dim int) error {
	if len(p.Sigma) != dim || len(p.Order) != dim || len(p.Spacing) != dim || len(p.MaxError) != dim {
		return fmt.Errorf("%w: gaussian parameters for %d axes (sigma %d, order %d, spacing %d, max error %d)",
			ErrShapeMismatch, dim, len(p.Sigma), len(p.Order), len(p.Spacing), len(p.MaxError))
	}
	for i := range dim {
		switch {
		case !(p.Sigma[i] >= 0):
			return fmt.Errorf("%w: sigma %v on axis %d", ErrInvalidInput, p.Sigma[i], i)
		case p.Order[i] < 0:
			return fmt.Errorf("%w: derivative order %d on axis %d", ErrInvalidInput, p.Order[i], i)
		case !(p.Spacing[i] > 0):
			return fmt.Errorf("%w: spacing %v on axis %d", ErrInvalidInput, p.Spacing[i], i)
		case !(p.MaxError[i] > 0 && p.MaxError[i] < 1):
			return fmt.Errorf("%w: maximum error %v on axis %d", ErrInvalidInput, p.MaxError[i], i)
		}
	}
	if p.MaxHalfWidth < 0 {
		return fmt.Errorf("%w: maximum half width %d", ErrInvalidInput, p.MaxHalfWidth)
	}
	return nil
}

// ValidateFactors checks block factors against an array of dimension dim.
func ValidateFactors(factors []int, dim int) error {
	if len(factors) != dim {
		return fmt.Errorf("%w: %d factors for a %d-d array", ErrShapeMismatch, len(factors), dim)
	}
	for i, f := range factors {
		if f < 1 {
			return fmt.Errorf("%w: factor %d on axis %d", ErrInvalidInput, f, i)
		}
	}
	return nil
}

// Backend is an array compute provider: the primitives every accelerated
// filter is assembled from.
//
// Primitives return freshly allocated arrays and never modify their inputs.
// Implementations are provided by backend packages and registered with
// RegisterBackend:
//
//	import _ "github.com/gogpu/ndfilter/gpu" // enables the wgpu backend
type Backend interface {
	// Name returns the backend name (e.g. "cpu", "wgpu").
	Name() string

	// Init acquires backend resources. Called once when the backend is
	// opened through the registry.
	Init() error

	// Close releases backend resources.
	Close()

	// CanAccelerate reports whether the backend runs op natively.
	CanAccelerate(op AcceleratedOp) bool

	// DistanceTransformEDT returns, for every nonzero element of mask, the
	// Euclidean distance to the nearest zero element, and 0 for zero
	// elements. sampling scales each axis; nil means unit spacing. Elements
	// of a mask without any zero element are +Inf.
	DistanceTransformEDT(mask *Array, sampling []float64) (*Array, error)

	// BinaryErosion erodes a binary mask with footprint. Footprint positions
	// outside the array are ignored.
	BinaryErosion(mask *Array, footprint *Footprint) (*Array, error)

	// GaussianFilter applies a separable discrete Gaussian (derivative)
	// filter with nearest-value boundary extension.
	GaussianFilter(in *Array, p GaussianParams) (*Array, error)

	// DownscaleLocalMean averages non-overlapping blocks of size factors.
	// The input is zero-padded up to a multiple of factors, so the result has
	// ceil(shape/factor) elements per axis.
	DownscaleLocalMean(in *Array, factors []int) (*Array, error)

	// MedianFilter replaces each element with the median of the footprint
	// neighbourhood.
	MedianFilter(in *Array, footprint *Footprint, mode BoundaryMode) (*Array, error)
}
