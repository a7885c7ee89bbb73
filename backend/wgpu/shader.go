// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/edt.wgsl
var edtShaderWGSL string

//go:embed shaders/erode.wgsl
var erodeShaderWGSL string

//go:embed shaders/correlate.wgsl
var correlateShaderWGSL string

//go:embed shaders/downscale.wgsl
var downscaleShaderWGSL string

//go:embed shaders/median.wgsl
var medianShaderWGSL string

// kernelID names a compute kernel.
type kernelID int

const (
	kernelEDT kernelID = iota
	kernelErode
	kernelCorrelate
	kernelDownscale
	kernelMedian
	numKernels
)

type kernelSource struct {
	label string
	wgsl  string
}

var kernelSources = [numKernels]kernelSource{
	kernelEDT:       {"edt", edtShaderWGSL},
	kernelErode:     {"erode", erodeShaderWGSL},
	kernelCorrelate: {"correlate", correlateShaderWGSL},
	kernelDownscale: {"downscale", downscaleShaderWGSL},
	kernelMedian:    {"median", medianShaderWGSL},
}

func (k kernelID) String() string {
	if k >= 0 && k < numKernels {
		return kernelSources[k].label
	}
	return fmt.Sprintf("kernel(%d)", int(k))
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(label, wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile %s shader: SPIR-V length %d is not a multiple of 4", label, len(spirvBytes))
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}
