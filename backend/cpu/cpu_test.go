package cpu

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ndfilter"
)

func newBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := New(opts...)
	require.NoError(t, b.Init())
	t.Cleanup(b.Close)
	return b
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, ndfilter.AvailableBackends(), ndfilter.BackendCPU)
}

func TestName(t *testing.T) {
	assert.Equal(t, ndfilter.BackendCPU, New().Name())
	assert.True(t, New().CanAccelerate(ndfilter.AllOps))
}

func TestDistanceTransformEDT(t *testing.T) {
	b := newBackend(t)
	mask, err := ndfilter.ArrayFromSlice(ndfilter.Bool, []float64{
		0, 1, 1, 1,
		1, 1, 1, 1,
	}, 2, 4)
	require.NoError(t, err)

	got, err := b.DistanceTransformEDT(mask, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, got.Shape)
	want := []float64{0, 1, 2, 3, 1, math.Sqrt2, math.Sqrt(5), math.Sqrt(10)}
	assert.InDeltaSlice(t, want, got.Data, 1e-12)

	got, err = b.DistanceTransformEDT(mask, []float64{2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.At(1, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(5), got.At(1, 1), 1e-12)
}

func TestDistanceTransformEDTErrors(t *testing.T) {
	b := newBackend(t)
	_, err := b.DistanceTransformEDT(nil, nil)
	assert.ErrorIs(t, err, ndfilter.ErrInvalidInput)

	mask := ndfilter.NewArray(ndfilter.Bool, 3, 3)
	_, err = b.DistanceTransformEDT(mask, []float64{1, 1, 1})
	assert.ErrorIs(t, err, ndfilter.ErrShapeMismatch)
}

func TestBinaryErosion(t *testing.T) {
	b := newBackend(t, WithWorkers(1))
	mask := ndfilter.NewArray(ndfilter.Bool, 5, 5)
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			mask.Set(1, y, x)
		}
	}
	got, err := b.BinaryErosion(mask, ndfilter.ConnectivityFootprint(2))
	require.NoError(t, err)
	assert.Equal(t, ndfilter.Bool, got.DType)
	for y := range 5 {
		for x := range 5 {
			want := 0.0
			if y == 2 && x == 2 {
				want = 1
			}
			assert.Equal(t, want, got.At(y, x), "(%d,%d)", y, x)
		}
	}

	_, err = b.BinaryErosion(mask, ndfilter.ConnectivityFootprint(3))
	assert.ErrorIs(t, err, ndfilter.ErrShapeMismatch)
}

func TestGaussianFilterConstant(t *testing.T) {
	b := newBackend(t)
	in := ndfilter.NewArray(ndfilter.Float32, 6, 7)
	for i := range in.Data {
		in.Data[i] = 4
	}
	p := ndfilter.GaussianParams{
		Sigma:        []float64{1, 2},
		Order:        []int{0, 0},
		Spacing:      []float64{1, 1},
		MaxError:     []float64{0.01, 0.01},
		MaxHalfWidth: 31,
	}
	got, err := b.GaussianFilter(in, p)
	require.NoError(t, err)
	for i, v := range got.Data {
		assert.InDelta(t, 4.0, v, 1e-12, "element %d", i)
	}

	// the derivative of a constant is zero
	p.Order = []int{1, 0}
	got, err = b.GaussianFilter(in, p)
	require.NoError(t, err)
	for i, v := range got.Data {
		assert.InDelta(t, 0.0, v, 1e-12, "element %d", i)
	}
}

func TestGaussianFilterParamErrors(t *testing.T) {
	b := newBackend(t)
	in := ndfilter.NewArray(ndfilter.Float32, 4, 4)
	_, err := b.GaussianFilter(in, ndfilter.GaussianParams{Sigma: []float64{1}})
	assert.ErrorIs(t, err, ndfilter.ErrShapeMismatch)

	_, err = b.GaussianFilter(in, ndfilter.GaussianParams{
		Sigma:    []float64{1, 1},
		Order:    []int{0, 0},
		Spacing:  []float64{1, 0},
		MaxError: []float64{0.01, 0.01},
	})
	assert.ErrorIs(t, err, ndfilter.ErrInvalidInput)
}

func TestDownscaleLocalMean(t *testing.T) {
	b := newBackend(t)
	in, err := ndfilter.ArrayFromSlice(ndfilter.Uint8, []float64{
		1, 2, 3,
		4, 5, 6,
	}, 2, 3)
	require.NoError(t, err)

	got, err := b.DownscaleLocalMean(in, []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.Shape)
	assert.InDeltaSlice(t, []float64{3, 9.0 / 4}, got.Data, 1e-12)

	_, err = b.DownscaleLocalMean(in, []int{0, 1})
	assert.True(t, errors.Is(err, ndfilter.ErrInvalidInput))
}

func TestMedianFilter(t *testing.T) {
	b := newBackend(t)
	in, err := ndfilter.ArrayFromSlice(ndfilter.Int16, []float64{
		1, 9, 1,
		1, 1, 1,
		1, 1, 1,
	}, 3, 3)
	require.NoError(t, err)

	got, err := b.MedianFilter(in, ndfilter.BoxFootprint([]int{1, 1}), ndfilter.BoundaryNearest)
	require.NoError(t, err)
	assert.Equal(t, ndfilter.Int16, got.DType)
	for _, v := range got.Data {
		assert.Equal(t, 1.0, v)
	}
}

func TestCloseReopen(t *testing.T) {
	b := New(WithWorkers(2))
	require.NoError(t, b.Init())
	b.Close()
	b.Close()

	mask := ndfilter.NewArray(ndfilter.Bool, 4)
	got, err := b.DistanceTransformEDT(mask, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, got.Data)
	b.Close()
}
