// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu provides the GPU array backend using gogpu/wgpu compute
// shaders.
//
// Every primitive is a sequence of compute passes over float32 storage
// buffers recorded into one command encoder:
//
//	DistanceTransformEDT  one edt pass per axis (squared distances), sqrt on readback
//	BinaryErosion         one erode pass, footprint offsets in the aux table
//	GaussianFilter        one correlate pass per non-identity axis kernel
//	DownscaleLocalMean    one downscale pass
//	MedianFilter          one median pass, footprints up to 256 elements
//
// WGSL sources are embedded and compiled to SPIR-V with naga when the
// backend initializes. Arrays are limited to four dimensions and to the
// device's storage binding size. Requests outside those limits return
// ndfilter.ErrFallbackToCPU, or run on an internal CPU backend when the
// backend was created WithFallback(true).
//
// The backend is registered by importing github.com/gogpu/ndfilter/gpu.
// Results are computed in float32; expect agreement with the CPU backend to
// about 1e-4 relative.
package wgpu
