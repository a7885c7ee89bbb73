// Image file input and output.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/ndfilter"
)

// readImage decodes a PNG, TIFF or BMP file into a 2-D image. 16-bit
// sources become Uint16 images, all others Uint8.
func readImage(path string) (*ndfilter.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src image.Image
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		src, err = png.Decode(f)
	case ".tif", ".tiff":
		src, err = tiff.Decode(f)
	case ".bmp":
		src, err = bmp.Decode(f)
	default:
		return nil, fmt.Errorf("%s: unsupported image format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ndfilter.AsImage(src)
}

// writeImage encodes a 2-D image by file extension. Uint8 and Bool images
// are written as 8-bit gray, Uint16 as 16-bit gray. Int16 and float images
// are rescaled linearly from their value range to the full 16-bit range
// (8-bit for BMP), which loses the absolute values.
func writeImage(path string, im *ndfilter.Image) error {
	if im.Dim() != 2 {
		return fmt.Errorf("%s: cannot write a %d-d image", path, im.Dim())
	}
	ext := strings.ToLower(filepath.Ext(path))
	img := toStdImage(im, ext == ".bmp")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch ext {
	case ".png":
		err = png.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = fmt.Errorf("unsupported image format %q", ext)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func toStdImage(im *ndfilter.Image, eightBit bool) image.Image {
	w, h := im.Size[0], im.Size[1]
	buf := im.Buffer()
	rect := image.Rect(0, 0, w, h)

	switch im.PixelType {
	case ndfilter.Uint8:
		g := image.NewGray(rect)
		for i, v := range buf {
			g.Pix[i] = uint8(v)
		}
		return g
	case ndfilter.Bool:
		g := image.NewGray(rect)
		for i, v := range buf {
			if v != 0 {
				g.Pix[i] = math.MaxUint8
			}
		}
		return g
	case ndfilter.Uint16:
		if !eightBit {
			g := image.NewGray16(rect)
			for i, v := range buf {
				g.SetGray16(i%w, i/w, color.Gray16{Y: uint16(v)})
			}
			return g
		}
	}

	lo, hi := valueRange(buf)
	scale := 0.0
	if hi > lo {
		scale = 1 / (hi - lo)
	}
	ndfilter.Logger().Info("rescaling output", "type", im.PixelType, "min", lo, "max", hi)
	if eightBit {
		g := image.NewGray(rect)
		for i, v := range buf {
			g.Pix[i] = uint8(math.Round(normalized(v, lo, hi, scale) * math.MaxUint8))
		}
		return g
	}
	g := image.NewGray16(rect)
	for i, v := range buf {
		g.SetGray16(i%w, i/w, color.Gray16{Y: uint16(math.Round(normalized(v, lo, hi, scale) * math.MaxUint16))})
	}
	return g
}

// valueRange returns the finite value range of buf.
func valueRange(buf []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range buf {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// normalized maps v into [0, 1]; infinities saturate.
func normalized(v, lo, hi, scale float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, -1):
		return 0
	case math.IsInf(v, 1):
		return 1
	}
	return math.Min(math.Max((v-lo)*scale, 0), 1)
}
