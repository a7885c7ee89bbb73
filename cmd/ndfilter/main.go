// Command ndfilter runs the accelerated image filters on image files.
//
// Usage:
//
//	ndfilter distance --inside-is-positive mask.png dist.tiff
//	ndfilter gaussian --variance 4 in.tiff out.tiff
//	ndfilter derivative --order 1,0 --compare in.png dx.tiff
//	ndfilter shrink --shrink-factors 2,3 in.png small.png
//	ndfilter median --radius 2 --backend cpu in.bmp out.bmp
//	ndfilter backends
//
// Parameters come from flags, NDFILTER_* environment variables and an
// optional YAML file (--config), in that order of precedence.
package main

import (
	"fmt"
	"os"

	_ "github.com/gogpu/ndfilter/backend/cpu" // always available
	_ "github.com/gogpu/ndfilter/gpu"         // wgpu backend
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
