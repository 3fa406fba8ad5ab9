// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fxgraph

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// fxgraph RECEIVES the device from the host, it does NOT create one. The
// host application (a gogpu window, an offscreen export harness) implements
// DeviceHandle and passes it to the Engine, allowing fxgraph to record its
// dispatches on the shared device and queue. This keeps resource management
// consistent across the stack and adds zero device creation overhead here.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing an
// fxgraph-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only rendering where no GPU is available; the builtin
// kernel set executes against CPU-backed textures in that configuration.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports a software adapter, matching the CPU-only execution
// path the null device selects.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: "Software Renderer",
		Type: gpucontext.AdapterTypeSoftware,
	}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
