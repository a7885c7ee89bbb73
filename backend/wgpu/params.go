// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"math"
)

const (
	// maxDims is the largest array rank the shaders address; shapes are
	// padded with leading unit axes up to it.
	maxDims = 4

	// maxWindow is the largest median footprint, matching the private
	// array in median.wgsl.
	maxWindow = 256

	workgroupSize   = 64
	maxGroupsPerDim = 65535

	// infSentinel marks "no seed" in the distance passes. Squared
	// distances of real arrays stay far below it.
	infSentinel float32 = 1e30

	// paramsSize is the byte size of the Params uniform.
	paramsSize = 80
)

// Boundary modes as understood by the shaders.
const (
	modeNearest  uint32 = 0
	modeConstant uint32 = 1
)

// kernelParams is the GPU-compatible layout of the Params uniform shared by
// every shader. Must match struct Params in shaders/*.wgsl.
type kernelParams struct {
	Shape      [maxDims]uint32 // padded array shape, slowest axis first
	Strides    [maxDims]uint32 // element strides of Shape
	Extra      [maxDims]uint32 // block factors (downscale)
	AxisLen    uint32          // extent of the processed axis
	AxisStride uint32          // stride of the processed axis
	Count      uint32          // offsets, taps or block elements
	Mode       uint32          // boundary mode
	Total      uint32          // number of output elements
	Rank       uint32          // median rank
	Scale      float32         // squared spacing (distance passes)
	_          uint32
}

// bytes serializes p in little-endian order for upload.
func (p *kernelParams) bytes() []byte {
	buf, err := binary.Append(make([]byte, 0, paramsSize), binary.LittleEndian, p)
	if err != nil {
		// fixed-size struct; cannot fail
		panic(err)
	}
	return buf
}

// newParams returns parameters for an array of the given shape with Total
// set to its element count.
func newParams(shape []int) kernelParams {
	var p kernelParams
	p.Shape, p.Strides = padShape(shape)
	p.Total = uint32(sizeOf(shape)) //nolint:gosec // checked against maxElements
	return p
}

// axis selects axis (in the unpadded shape) as the processed axis.
func (p *kernelParams) axis(rank, axis int) {
	d := maxDims - rank + axis
	p.AxisLen = p.Shape[d]
	p.AxisStride = p.Strides[d]
}

// padShape prepends unit axes to shape up to maxDims and returns the padded
// shape and its strides.
func padShape(shape []int) (padded, strides [maxDims]uint32) {
	off := maxDims - len(shape)
	for d := range padded {
		padded[d] = 1
	}
	for d, s := range shape {
		padded[off+d] = uint32(s) //nolint:gosec // extents bounded by maxElements
	}
	stride := uint32(1)
	for d := maxDims - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= padded[d]
	}
	return padded, strides
}

// padFactors pads block factors like padShape pads shapes.
func padFactors(factors []int) [maxDims]uint32 {
	var out [maxDims]uint32
	off := maxDims - len(factors)
	for d := range out {
		out[d] = 1
	}
	for d, f := range factors {
		out[off+d] = uint32(f) //nolint:gosec // factors validated positive
	}
	return out
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// dispatchSize returns the workgroup grid covering total invocations.
// Grids wider than the per-dimension limit wrap into Y; the shaders
// recover the flat index from num_workgroups.
func dispatchSize(total uint32) (x, y uint32) {
	groups := (total + workgroupSize - 1) / workgroupSize
	if groups == 0 {
		return 1, 1
	}
	x = min(groups, maxGroupsPerDim)
	y = (groups + x - 1) / x
	return x, y
}

// packFloats converts values to little-endian float32.
func packFloats(v []float64) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(f)))
	}
	return out
}

// unpackFloats converts n little-endian float32 values back to float64.
func unpackFloats(b []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return out
}

// packOffsets converts footprint offsets to padded vec4<i32> values.
func packOffsets(offsets [][]int) []byte {
	out := make([]byte, 16*len(offsets))
	for i, off := range offsets {
		pad := maxDims - len(off)
		for d, v := range off {
			binary.LittleEndian.PutUint32(out[16*i+4*(pad+d):], uint32(int32(v))) //nolint:gosec // footprint radius fits int32
		}
	}
	return out
}

// seedDistances builds the input of the distance passes: 0 on background
// elements and the sentinel elsewhere.
func seedDistances(mask []float64) []float64 {
	out := make([]float64, len(mask))
	for i, v := range mask {
		if v != 0 {
			out[i] = float64(infSentinel)
		}
	}
	return out
}

// finishDistances takes the square root of the squared distances and maps
// unreached elements to +Inf.
func finishDistances(sq []float64) []float64 {
	for i, v := range sq {
		if v >= float64(infSentinel)/2 {
			sq[i] = math.Inf(1)
		} else {
			sq[i] = math.Sqrt(v)
		}
	}
	return sq
}
