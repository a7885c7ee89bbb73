package ndfilter

import (
	"fmt"
	"image"
	"image/color"
)

// AsImage normalizes the inputs accepted by the filters into one *Image:
//
//   - *Image is returned as is; Image is addressed.
//   - *Array is wrapped as a unit-geometry image sharing its data.
//   - image.Image (2-D) becomes a luminance image: 16-bit sources map to
//     Uint16, everything else to Uint8. Size is (width, height).
//
// Any other type is rejected with ErrInvalidInput.
func AsImage(input any) (*Image, error) {
	switch v := input.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil input", ErrInvalidInput)
	case *Image:
		if v == nil {
			return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
		}
		return v, nil
	case Image:
		return &v, nil
	case *Array:
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return NewImageFromArray(v), nil
	case image.Image:
		return imageFromStd(v), nil
	default:
		return nil, fmt.Errorf("%w: unsupported input type %T", ErrInvalidInput, input)
	}
}

func imageFromStd(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	pt := Uint8
	switch src.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		pt = Uint16
	}

	im := NewImage(NewInfo(pt, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			var v float64
			if pt == Uint16 {
				v = float64(color.Gray16Model.Convert(c).(color.Gray16).Y)
			} else {
				v = float64(color.GrayModel.Convert(c).(color.Gray).Y)
			}
			im.buffer[y*w+x] = v
		}
	}
	return im
}
