// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the wgpu compute backend.
//
// Import this package to let ndfilter.DefaultBackend pick the GPU when one
// is present. If device initialization fails (no Vulkan adapter), the
// registry moves on to the CPU backend.
//
// Usage:
//
//	import _ "github.com/gogpu/ndfilter/gpu" // enable GPU acceleration
//
// Build with -tags nogpu to leave the GPU backend out of a binary.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/backend/wgpu"
)

// shared is the instance handed to the registry. Init is a no-op once a
// device provider has been set.
var shared = wgpu.New()

func init() {
	ndfilter.RegisterBackend(ndfilter.BackendWGPU, func() ndfilter.Backend {
		return shared
	})
}

// SetDeviceProvider makes the wgpu backend compute on a GPU device shared
// with an external provider (e.g., a gogpu application) instead of opening
// its own. The provider must also expose HalDevice() and HalQueue().
//
// Call it before the wgpu backend is first opened. After
// ndfilter.CloseBackends the backend opens its own device again.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if err := shared.SetDeviceProvider(provider); err != nil {
		return err
	}
	// an earlier failed Init no longer applies
	ndfilter.RetryBackend(ndfilter.BackendWGPU)
	return nil
}
