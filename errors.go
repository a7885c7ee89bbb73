package ndfilter

import "errors"

var (
	// ErrInvalidInput reports a mask or array that cannot be processed:
	// nil, zero-sized, or inconsistent with its shape.
	ErrInvalidInput = errors.New("ndfilter: invalid input")

	// ErrShapeMismatch reports a per-axis parameter whose length differs
	// from the dimensionality of the data it applies to.
	ErrShapeMismatch = errors.New("ndfilter: shape mismatch")

	// ErrUnsupportedConfiguration reports a parameter combination that the
	// accelerated path cannot compute. It is returned at filter construction,
	// before any buffer is allocated.
	ErrUnsupportedConfiguration = errors.New("ndfilter: unsupported configuration")

	// ErrFallbackToCPU indicates the GPU backend cannot handle this request.
	// The caller should transparently retry on the CPU backend.
	ErrFallbackToCPU = errors.New("ndfilter: falling back to CPU backend")

	// ErrNoBackend is returned when no backend is registered or the requested
	// backend name is unknown.
	ErrNoBackend = errors.New("ndfilter: no backend available")
)
