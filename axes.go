package ndfilter

// Reverse returns a copy of s with its elements in reverse order.
//
// It converts any per-axis vector between the reference toolkit convention
// (fastest-varying axis first) and the backend convention (slowest-varying
// axis first). Applying it twice yields the original order. A nil slice
// stays nil.
func Reverse[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// Fill returns a slice of n copies of v.
func Fill[T any](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// IsUnitSpacing reports whether every spacing entry equals 1.
// An empty spacing counts as unit spacing.
func IsUnitSpacing(spacing []float64) bool {
	for _, s := range spacing {
		if s != 1 {
			return false
		}
	}
	return true
}
