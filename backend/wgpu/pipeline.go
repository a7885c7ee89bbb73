// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelines holds the compute pipelines of every kernel. All kernels share
// one bind group layout:
//
//	0: uniform Params
//	1: read-only storage, source data
//	2: read-only storage, auxiliary table (weights, offsets)
//	3: read-write storage, destination data
type pipelines struct {
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	shaders    [numKernels]hal.ShaderModule
	compute    [numKernels]hal.ComputePipeline
}

func createPipelines(device hal.Device) (*pipelines, error) {
	p := &pipelines{}

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "ndfilter_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "ndfilter_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	for k := range numKernels {
		if err := p.createKernel(device, k); err != nil {
			p.destroy(device)
			return nil, err
		}
	}
	return p, nil
}

func (p *pipelines) createKernel(device hal.Device, k kernelID) error {
	src := kernelSources[k]
	code, err := compileSPIRV(src.label, src.wgsl)
	if err != nil {
		return err
	}
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  src.label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create %s shader module: %w", src.label, err)
	}
	p.shaders[k] = shader

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: src.label + "_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create %s compute pipeline: %w", src.label, err)
	}
	p.compute[k] = pipeline
	return nil
}

func (p *pipelines) destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	for k := range numKernels {
		if p.compute[k] != nil {
			device.DestroyComputePipeline(p.compute[k])
			p.compute[k] = nil
		}
		if p.shaders[k] != nil {
			device.DestroyShaderModule(p.shaders[k])
			p.shaders[k] = nil
		}
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
}
