// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds the fence wait of one submission.
const submitTimeout = 10 * time.Second

// step is one compute pass: a kernel, its parameters and its auxiliary
// table.
type step struct {
	kernel kernelID
	params kernelParams
	aux    []byte
}

// stepBindings are the per-pass resources of one step.
type stepBindings struct {
	uniform hal.Buffer
	aux     hal.Buffer
	group   hal.BindGroup
}

// execute uploads input, runs steps in order and reads back outLen values.
//
// Two data buffers are used in ping-pong fashion: step i reads the buffer
// step i-1 wrote. All passes are recorded into one command encoder and
// submitted with a single fence wait.
func (b *Backend) execute(input []float64, outLen int, steps []step) ([]float64, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("execute: no steps")
	}
	d, p := b.dev, b.pipes
	device, queue := d.device, d.queue

	elems := max(len(input), outLen, 1)
	dataSize := uint64(4 * elems)
	outSize := uint64(4 * outLen)

	var data [2]hal.Buffer
	for i := range data {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("ndfilter_data_%d", i), Size: dataSize,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("create data buffer: %w", err)
		}
		defer device.DestroyBuffer(buf)
		data[i] = buf
	}
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ndfilter_staging", Size: outSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	queue.WriteBuffer(data[0], 0, packFloats(input))

	bindings := make([]stepBindings, 0, len(steps))
	defer func() { b.releaseBindings(bindings) }()
	for i, s := range steps {
		src, dst := data[i%2], data[(i+1)%2]
		sb, err := b.createStepBindings(s, src, dst, dataSize)
		bindings = append(bindings, sb)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.kernel, err)
		}
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ndfilter_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ndfilter"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	// One compute pass per step; storage writes of a pass are visible to
	// the next.
	for i, s := range steps {
		x, y := dispatchSize(s.params.Total)
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: s.kernel.String()})
		pass.SetPipeline(p.compute[s.kernel])
		pass.SetBindGroup(0, bindings[i].group, nil)
		pass.Dispatch(x, y, 1)
		pass.End()
	}
	result := data[len(steps)%2]
	encoder.CopyBufferToBuffer(result, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: outSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, outSize)
	if err := queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return unpackFloats(readback, outLen), nil
}

func (b *Backend) createStepBindings(s step, src, dst hal.Buffer, dataSize uint64) (stepBindings, error) {
	device, queue := b.dev.device, b.dev.queue
	var sb stepBindings

	uniform, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ndfilter_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return sb, fmt.Errorf("create uniform buffer: %w", err)
	}
	sb.uniform = uniform
	queue.WriteBuffer(uniform, 0, s.params.bytes())

	aux := s.aux
	if len(aux) == 0 {
		// storage bindings must not be empty
		aux = make([]byte, 16)
	}
	auxBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ndfilter_aux", Size: uint64(len(aux)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return sb, fmt.Errorf("create aux buffer: %w", err)
	}
	sb.aux = auxBuf
	queue.WriteBuffer(auxBuf, 0, aux)

	group, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "ndfilter_bind", Layout: b.pipes.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: src.NativeHandle(), Offset: 0, Size: dataSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: auxBuf.NativeHandle(), Offset: 0, Size: uint64(len(aux))}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: dst.NativeHandle(), Offset: 0, Size: dataSize}},
		},
	})
	if err != nil {
		return sb, fmt.Errorf("create bind group: %w", err)
	}
	sb.group = group
	return sb, nil
}

func (b *Backend) releaseBindings(bindings []stepBindings) {
	device := b.dev.device
	for _, sb := range bindings {
		if sb.group != nil {
			device.DestroyBindGroup(sb.group)
		}
		if sb.aux != nil {
			device.DestroyBuffer(sb.aux)
		}
		if sb.uniform != nil {
			device.DestroyBuffer(sb.uniform)
		}
	}
}
