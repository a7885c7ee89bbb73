// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoHalAccess is returned by SetDeviceProvider when the provider does not
// expose its HAL device and queue.
var ErrNoHalAccess = errors.New("wgpu: provider does not expose HAL types")

// gpuDevice is an open HAL device with its queue. External devices belong
// to a provider and are never destroyed here.
type gpuDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	external bool
}

// openDevice creates an instance on the Vulkan HAL and opens the first
// discrete or integrated adapter, or the first adapter of any kind.
func openDevice() (*gpuDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &gpuDevice{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

// deviceFromProvider wraps the HAL device of an external provider. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func deviceFromProvider(provider gpucontext.DeviceProvider) (*gpuDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNoHalAccess)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalAccess)
	}
	return &gpuDevice{
		device:   device,
		queue:    queue,
		name:     "shared",
		external: true,
	}, nil
}

func (d *gpuDevice) destroy() {
	if d == nil || d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}
