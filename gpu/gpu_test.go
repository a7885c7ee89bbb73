// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/backend/wgpu"
)

func TestRegistered(t *testing.T) {
	names := ndfilter.AvailableBackends()
	if !slices.Contains(names, ndfilter.BackendWGPU) {
		t.Fatalf("AvailableBackends() = %v, want %q registered", names, ndfilter.BackendWGPU)
	}
	if names[0] != ndfilter.BackendWGPU {
		t.Errorf("wgpu should have the highest priority, got %v", names)
	}
}

func TestSetDeviceProviderNil(t *testing.T) {
	if err := SetDeviceProvider(nil); !errors.Is(err, wgpu.ErrNoHalAccess) {
		t.Errorf("SetDeviceProvider(nil) = %v, want ErrNoHalAccess", err)
	}
}
