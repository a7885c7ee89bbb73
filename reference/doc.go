// Package reference models the reference image toolkit whose filters the
// accel package replaces.
//
// Each filter is a parameter object created from snake_case Options (the
// toolkit's keyword arguments), with typed Get/Set accessors, a
// metadata-only OutputInformation pass and a CPU Update. The accelerated
// drop-ins delegate their metadata to OutputInformation and read their
// parameters through the getters; Update is the oracle their pixels are
// compared against.
//
// Images follow the toolkit convention: per-axis vectors (size, spacing,
// radius, factors, variance, order) list the fastest-varying axis first.
//
//	f, err := reference.NewDiscreteGaussian(reference.Options{"variance": 4.0})
//	if err != nil { ... }
//	f.SetInput(img)
//	if err := f.Update(); err != nil { ... }
//	smoothed := f.Output()
package reference
