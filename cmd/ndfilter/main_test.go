package main

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/reference"
)

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// squareMask is a 10x10 mask with the square [3,7) x [3,7) set.
func squareMask() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			g.Pix[y*10+x] = 255
		}
	}
	return g
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDistanceCommandCompare(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "mask.png", squareMask())
	out := filepath.Join(dir, "dist.tiff")

	stdout, err := execute(t, "distance", "--backend", "cpu", "--compare", "--squared-distance=false", in, out)
	require.NoError(t, err)

	line := strings.TrimSpace(stdout)
	require.True(t, strings.HasPrefix(line, "max abs difference vs reference: "), "stdout: %q", stdout)
	diff, err := strconv.ParseFloat(strings.TrimPrefix(line, "max abs difference vs reference: "), 64)
	require.NoError(t, err)
	assert.Less(t, diff, 4e-4)

	got, err := readImage(out)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10}, got.Size)
	assert.Equal(t, ndfilter.Uint16, got.PixelType)
}

func TestShrinkCommand(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 5)
	}
	in := writePNG(t, dir, "in.png", src)
	out := filepath.Join(dir, "small.png")

	_, err := execute(t, "shrink", "--backend", "cpu", "--shrink-factors", "2", in, out)
	require.NoError(t, err)

	got, err := readImage(out)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, got.Size)
	assert.Equal(t, ndfilter.Uint8, got.PixelType)

	// first block: rows 0-1, columns 0-1 of i*5
	want := (0 + 5 + 40 + 45) / 4.0
	assert.InDelta(t, want, got.Pixel(0, 0), 0.5)
}

func TestMedianCommandBMP(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 5, 5))
	src.Pix[12] = 200 // lone bright pixel is removed
	in := writePNG(t, dir, "in.png", src)
	out := filepath.Join(dir, "out.bmp")

	_, err := execute(t, "median", "--backend", "cpu", "--radius", "1", in, out)
	require.NoError(t, err)

	got, err := readImage(out)
	require.NoError(t, err)
	for _, v := range got.Buffer() {
		assert.Zero(t, v)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "mask.png", squareMask())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing args", []string{"median", in}, "accepts 2 arg(s)"},
		{"bad format", []string{"median", "--backend", "cpu", in, filepath.Join(dir, "out.jpg")}, "unsupported image format"},
		{"bad input", []string{"median", filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.png")}, "nope.png"},
		{"bad option", []string{"median", "--backend", "cpu", "--radius", "x", in, filepath.Join(dir, "out.png")}, "radius"},
		{"bad background", []string{"distance", "--backend", "cpu", "--background-value", "3", in, filepath.Join(dir, "out.png")}, "background"},
		{"bad log level", []string{"median", "--log-level", "loud", in, filepath.Join(dir, "out.png")}, "invalid log level"},
		{"bad spacing", []string{"gaussian", "--backend", "cpu", "--spacing", "1,2,3", in, filepath.Join(dir, "out.png")}, "spacing"},
		{"missing config", []string{"median", "--config", filepath.Join(dir, "none.yaml"), in, filepath.Join(dir, "out.png")}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ndfilter.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("variance: [1, 2]\nmaximum_error: 0.05\nmaximum_kernel_width: 9\n"), 0o644))
	t.Setenv("NDFILTER_MAXIMUM_ERROR", "0.02")

	cmd := &cobra.Command{Use: "test"}
	for _, k := range gaussianCmd.keys {
		k.register(cmd.Flags())
	}
	require.NoError(t, cmd.Flags().Set("maximum-kernel-width", "15"))

	v, err := loadConfig(cmd, cfg, gaussianCmd.keys)
	require.NoError(t, err)
	opts := filterOptions(v, gaussianCmd.keys)

	assert.Equal(t, "15", opts["maximum_kernel_width"], "flag beats config")
	assert.Equal(t, "0.02", opts["maximum_error"], "env beats config")
	assert.NotContains(t, opts, "use_image_spacing", "unset options keep defaults")

	f, err := reference.NewDiscreteGaussian(opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, f.Variance(2))
	assert.Equal(t, []float64{0.02, 0.02}, f.MaximumError(2))
	assert.Equal(t, 15, f.MaximumKernelWidth())
}

func TestMaxAbsDiff(t *testing.T) {
	inf := math.Inf(1)
	assert.Zero(t, maxAbsDiff([]float64{1, inf}, []float64{1, inf}))
	assert.InDelta(t, 0.5, maxAbsDiff([]float64{1, 2}, []float64{1.5, 2}), 1e-12)
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange([]float64{3, -2, 7})
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 7.0, hi)
	assert.Equal(t, 0.0, normalized(-2, lo, hi, 1/(hi-lo)))
	assert.Equal(t, 1.0, normalized(7, lo, hi, 1/(hi-lo)))
}
