package reference

import (
	"fmt"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/internal/ndimage"
	"github.com/gogpu/ndfilter/internal/parallel"
)

// gaussianParams are the parameters shared by the Gaussian filters.
type gaussianParams struct {
	variance           []float64
	maximumError       []float64
	maximumKernelWidth int
	useImageSpacing    bool
}

func defaultGaussianParams() gaussianParams {
	return gaussianParams{
		variance:           []float64{0},
		maximumError:       []float64{0.01},
		maximumKernelWidth: 32,
		useImageSpacing:    true,
	}
}

// set reports whether key belongs to the shared parameters.
func (g *gaussianParams) set(key string, v any) (bool, error) {
	var err error
	switch key {
	case "variance":
		g.variance, err = asFloats(key, v)
	case "maximum_error":
		g.maximumError, err = asFloats(key, v)
	case "maximum_kernel_width":
		g.maximumKernelWidth, err = asInt(key, v)
	case "use_image_spacing":
		g.useImageSpacing, err = asBool(key, v)
	default:
		return false, nil
	}
	return true, err
}

func (g *gaussianParams) validate(dim int) error {
	variance, err := broadcast("variance", g.variance, dim)
	if err != nil {
		return err
	}
	maxErr, err := broadcast("maximum_error", g.maximumError, dim)
	if err != nil {
		return err
	}
	for i := range dim {
		if !(variance[i] >= 0) {
			return fmt.Errorf("%w: variance %v on axis %d", ErrInvalidParameter, variance[i], i)
		}
		if !(maxErr[i] > 0 && maxErr[i] < 1) {
			return fmt.Errorf("%w: maximum_error %v on axis %d, want (0, 1)", ErrInvalidParameter, maxErr[i], i)
		}
	}
	if g.maximumKernelWidth < 1 {
		return fmt.Errorf("%w: maximum_kernel_width %d", ErrInvalidParameter, g.maximumKernelWidth)
	}
	return nil
}

// Variance returns the per-axis variance in physical units squared,
// fastest axis first.
func (g *gaussianParams) Variance(dim int) []float64 { return mustBroadcast(g.variance, dim) }

// SetVariance sets the variance; a single value applies to every axis.
func (g *gaussianParams) SetVariance(v ...float64) { g.variance = append([]float64(nil), v...) }

// MaximumError returns the per-axis tolerated kernel truncation error.
func (g *gaussianParams) MaximumError(dim int) []float64 { return mustBroadcast(g.maximumError, dim) }

// SetMaximumError sets the truncation error; a single value applies to
// every axis.
func (g *gaussianParams) SetMaximumError(v ...float64) { g.maximumError = append([]float64(nil), v...) }

// MaximumKernelWidth returns the bound on the half kernel length, centre
// included.
func (g *gaussianParams) MaximumKernelWidth() int { return g.maximumKernelWidth }

// SetMaximumKernelWidth sets the bound on the half kernel length.
func (g *gaussianParams) SetMaximumKernelWidth(w int) { g.maximumKernelWidth = w }

// UseImageSpacing reports whether variance is in physical units.
func (g *gaussianParams) UseImageSpacing() bool { return g.useImageSpacing }

// SetUseImageSpacing selects physical (true) or pixel units.
func (g *gaussianParams) SetUseImageSpacing(v bool) { g.useImageSpacing = v }

// filter correlates the image with one kernel per axis.
func (g *gaussianParams) filter(in, out *ndfilter.Image, order []int, normalize bool) error {
	dim := in.Dim()
	variance := g.Variance(dim)
	maxErr := g.MaximumError(dim)
	spacing := ndfilter.Fill(dim, 1.0)
	if g.useImageSpacing {
		spacing = in.Spacing
	}

	// kernels in image axis order, applied in array order
	kernels := make([][]float64, dim)
	for i := range dim {
		kernels[i] = ndimage.GaussianDerivativeKernel(variance[i], spacing[i], order[i], normalize, maxErr[i], g.maximumKernelWidth)
	}
	arr := in.Array()
	data := ndimage.SeparableCorrelate(parallel.Shared(), arr.Shape, arr.Data, ndfilter.Reverse(kernels), ndimage.ModeNearest)
	result, err := ndfilter.ArrayFromSlice(ndfilter.Float64, data, arr.Shape...)
	if err != nil {
		return err
	}
	return out.WriteArray(result)
}

// DiscreteGaussian smooths an image with a separable discrete Gaussian
// built from modified Bessel functions. The output keeps the input pixel
// type.
//
// Options: variance (default 0), maximum_error (0.01),
// maximum_kernel_width (32), use_image_spacing (true).
type DiscreteGaussian struct {
	base
	gaussianParams
}

// NewDiscreteGaussian creates the filter with the toolkit defaults
// overridden by opts.
func NewDiscreteGaussian(opts Options) (*DiscreteGaussian, error) {
	f := &DiscreteGaussian{gaussianParams: defaultGaussianParams()}
	return newFilter(f, &f.base, "DiscreteGaussian", opts)
}

func (f *DiscreteGaussian) set(key string, v any) error {
	if ok, err := f.gaussianParams.set(key, v); ok {
		return err
	}
	return f.unknown(key)
}

// OutputInformation keeps the input metadata.
func (f *DiscreteGaussian) OutputInformation(in ndfilter.Info) (ndfilter.Info, error) {
	if err := f.validate(in.Dim()); err != nil {
		return ndfilter.Info{}, err
	}
	return in.Clone(), nil
}

func (f *DiscreteGaussian) generateData(in, out *ndfilter.Image) error {
	return f.filter(in, out, make([]int, in.Dim()), false)
}

// DiscreteGaussianDerivative computes per-axis derivatives of a discrete
// Gaussian smoothed image. The Gaussian kernel is extended with its edge
// values and convolved with a centred finite-difference operator of the
// requested order. The output pixel type is Float32.
//
// Options: those of DiscreteGaussian plus order (default 1) and
// normalize_across_scale (false).
type DiscreteGaussianDerivative struct {
	base
	gaussianParams

	order                []int
	normalizeAcrossScale bool
}

// NewDiscreteGaussianDerivative creates the filter with the toolkit
// defaults overridden by opts.
func NewDiscreteGaussianDerivative(opts Options) (*DiscreteGaussianDerivative, error) {
	f := &DiscreteGaussianDerivative{
		gaussianParams: defaultGaussianParams(),
		order:          []int{1},
	}
	return newFilter(f, &f.base, "DiscreteGaussianDerivative", opts)
}

func (f *DiscreteGaussianDerivative) set(key string, v any) error {
	if ok, err := f.gaussianParams.set(key, v); ok {
		return err
	}
	var err error
	switch key {
	case "order":
		f.order, err = asInts(key, v)
	case "normalize_across_scale":
		f.normalizeAcrossScale, err = asBool(key, v)
	default:
		err = f.unknown(key)
	}
	return err
}

// Order returns the per-axis derivative order, fastest axis first.
func (f *DiscreteGaussianDerivative) Order(dim int) []int { return mustBroadcast(f.order, dim) }

// SetOrder sets the derivative order; a single value applies to every axis.
func (f *DiscreteGaussianDerivative) SetOrder(o ...int) { f.order = append([]int(nil), o...) }

// NormalizeAcrossScale reports whether derivatives are scaled by
// variance^(order/2).
func (f *DiscreteGaussianDerivative) NormalizeAcrossScale() bool { return f.normalizeAcrossScale }

// SetNormalizeAcrossScale enables scale-space normalization.
func (f *DiscreteGaussianDerivative) SetNormalizeAcrossScale(v bool) { f.normalizeAcrossScale = v }

// OutputInformation keeps the input geometry with a Float32 pixel type.
func (f *DiscreteGaussianDerivative) OutputInformation(in ndfilter.Info) (ndfilter.Info, error) {
	dim := in.Dim()
	if err := f.validate(dim); err != nil {
		return ndfilter.Info{}, err
	}
	order, err := broadcast("order", f.order, dim)
	if err != nil {
		return ndfilter.Info{}, err
	}
	for i, o := range order {
		if o < 0 {
			return ndfilter.Info{}, fmt.Errorf("%w: order %d on axis %d", ErrInvalidParameter, o, i)
		}
	}
	out := in.Clone()
	out.PixelType = ndfilter.Float32
	return out, nil
}

func (f *DiscreteGaussianDerivative) generateData(in, out *ndfilter.Image) error {
	return f.filter(in, out, f.Order(in.Dim()), f.normalizeAcrossScale)
}
