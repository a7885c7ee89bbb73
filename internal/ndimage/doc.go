// Package ndimage implements the N-dimensional array kernels shared by the
// CPU backend and the reference filters: the exact Euclidean distance
// transform, binary erosion, separable correlation with discrete Gaussian
// operators, block-mean downsampling and median filtering.
//
// Every function works on a flat row-major buffer plus its shape (last axis
// fastest), never modifies its input, and spreads independent lines or
// output ranges over a parallel.WorkerPool. A nil pool runs inline.
package ndimage
