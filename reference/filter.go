package reference

import (
	"fmt"

	"github.com/gogpu/ndfilter"
)

// Filter is a reference toolkit image filter.
//
// Parameters are set at construction from Options or later through typed
// setters. OutputInformation is the metadata-only pass; Update runs the
// full CPU computation into Output.
type Filter interface {
	// Name returns the toolkit name of the filter, e.g. "BinShrink".
	Name() string

	// Set applies named parameters. Unknown keys return ErrUnknownOption.
	Set(opts Options) error

	// SetInput sets the image the filter reads.
	SetInput(in *ndfilter.Image)

	// Input returns the current input image.
	Input() *ndfilter.Image

	// OutputInformation returns the output metadata for an input with the
	// given metadata without touching any pixel.
	OutputInformation(in ndfilter.Info) (ndfilter.Info, error)

	// UpdateOutputInformation computes the output metadata for the current
	// input and stores it on Output, without allocating pixels.
	UpdateOutputInformation() error

	// Output returns the output image. Its buffer is allocated by Update.
	Output() *ndfilter.Image

	// Update computes the output pixels on the CPU.
	Update() error
}

// impl is implemented by every concrete filter.
type impl interface {
	OutputInformation(in ndfilter.Info) (ndfilter.Info, error)
	set(key string, v any) error
	generateData(in, out *ndfilter.Image) error
}

// base carries the pipeline plumbing shared by every filter.
type base struct {
	name   string
	self   impl
	input  *ndfilter.Image
	output *ndfilter.Image
}

func (b *base) Name() string { return b.name }

func (b *base) SetInput(in *ndfilter.Image) { b.input = in }

func (b *base) Input() *ndfilter.Image { return b.input }

func (b *base) Output() *ndfilter.Image {
	if b.output == nil {
		b.output = &ndfilter.Image{}
	}
	return b.output
}

func (b *base) Set(opts Options) error {
	for _, key := range opts.sortedKeys() {
		if err := b.self.set(key, opts[key]); err != nil {
			return err
		}
	}
	return nil
}

func (b *base) unknown(key string) error {
	return fmt.Errorf("%w: %q for %s", ErrUnknownOption, key, b.name)
}

func (b *base) UpdateOutputInformation() error {
	if b.input == nil {
		return fmt.Errorf("%w: %s has no input", ErrInvalidParameter, b.name)
	}
	if err := b.input.Info.Validate(); err != nil {
		return err
	}
	info, err := b.self.OutputInformation(b.input.Info)
	if err != nil {
		return err
	}
	b.Output().CopyInformation(info)
	return nil
}

func (b *base) Update() error {
	if err := b.UpdateOutputInformation(); err != nil {
		return err
	}
	if !b.input.Allocated() {
		return fmt.Errorf("%w: %s input has no pixel buffer", ndfilter.ErrInvalidInput, b.name)
	}
	out := b.Output()
	out.Allocate()
	if err := b.self.generateData(b.input, out); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	ndfilter.Logger().Debug("reference: update", "filter", b.name, "size", out.Size, "pixel_type", out.PixelType)
	return nil
}

// newFilter finishes construction: it wires the base and applies opts.
func newFilter[F impl](f F, b *base, name string, opts Options) (F, error) {
	b.name = name
	b.self = f
	if err := b.Set(opts); err != nil {
		var zero F
		return zero, err
	}
	return f, nil
}

// New creates a filter by toolkit name: SignedMaurerDistanceMap,
// DiscreteGaussian, DiscreteGaussianDerivative, BinShrink or Median.
func New(name string, opts Options) (Filter, error) {
	var (
		f   Filter
		err error
	)
	switch name {
	case "SignedMaurerDistanceMap":
		f, err = nilOnError(NewSignedMaurerDistanceMap(opts))
	case "DiscreteGaussian":
		f, err = nilOnError(NewDiscreteGaussian(opts))
	case "DiscreteGaussianDerivative":
		f, err = nilOnError(NewDiscreteGaussianDerivative(opts))
	case "BinShrink":
		f, err = nilOnError(NewBinShrink(opts))
	case "Median":
		f, err = nilOnError(NewMedian(opts))
	default:
		err = fmt.Errorf("%w: unknown filter %q", ErrInvalidParameter, name)
	}
	return f, err
}

// nilOnError keeps a typed nil pointer out of the Filter interface.
func nilOnError[F Filter](f F, err error) (Filter, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Names lists the filters New can create.
func Names() []string {
	return []string{"SignedMaurerDistanceMap", "DiscreteGaussian", "DiscreteGaussianDerivative", "BinShrink", "Median"}
}
