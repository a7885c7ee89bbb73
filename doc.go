// Package ndfilter provides GPU-accelerated drop-in replacements for a set of
// N-dimensional reference image filters.
//
// # Overview
//
// The reference toolkit (package reference) computes signed Maurer distance
// maps, discrete Gaussian smoothing and derivatives, bin-shrink downsampling
// and median filtering on the CPU. The drop-ins in package accel reproduce the
// reference output within tight tolerances while running the pixel work on an
// array Backend: the wgpu compute backend when a GPU is present, the CPU
// backend otherwise.
//
// # Axis order
//
// Two axis conventions meet in this package:
//
//   - Image and Info (the reference toolkit) order axes fastest-varying first:
//     Size[0] is the number of columns.
//   - Array (the backend) orders axes slowest-varying first: Shape[len-1] is
//     the number of columns.
//
// Both share the same memory layout, so Image.Array is a view. Every
// multi-axis parameter crossing the boundary goes through Reverse.
//
// # Signed distance
//
// SignedDistance assembles a signed Euclidean distance field from two calls
// to the backend's unsigned distance transform, eroding the foreground by one
// voxel with a full 3x3x...x3 footprint so that the zero level matches the
// Maurer boundary convention of the reference filter.
//
// # Backends
//
// Backends register themselves by name:
//
//	import _ "github.com/gogpu/ndfilter/backend/cpu" // always available
//	import _ "github.com/gogpu/ndfilter/gpu"         // wgpu compute, optional
//
// DefaultBackend picks the highest-priority registered backend.
//
// # Logging
//
// ndfilter is silent by default. Call SetLogger to route diagnostics to a
// log/slog logger.
package ndfilter
