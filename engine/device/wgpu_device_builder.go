package device

import "github.com/cogentcore/webgpu/wgpu"

// WGPUDeviceBuilderOption is a functional option for configuring a WGPUDevice via NewWGPUDevice.
type WGPUDeviceBuilderOption func(*wgpuDevice)

// WithLabel is an option builder that sets the debug label used for the device and its buffers.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the label option to a device
func WithLabel(label string) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.label = label
	}
}

// WithForceFallbackAdapter is an option builder that requests the software fallback adapter,
// which is useful on headless machines.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the fallback option to a device
func WithForceFallbackAdapter(force bool) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithSurfaceSource is an option builder that makes the requested adapter compatible with the
// surface of the given source (usually a window).
//
// Parameters:
//   - src: the surface source
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the surface option to a device
func WithSurfaceSource(src SurfaceSource) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.surfaceSource = src
	}
}

// WithWGPUDevice is an option builder that wraps an existing WebGPU device instead of
// requesting a new one. The wrapped device is not released by Release.
//
// Parameters:
//   - dev: the existing device
//
// Returns:
//   - WGPUDeviceBuilderOption: a function that applies the device option to a device
func WithWGPUDevice(dev *wgpu.Device) WGPUDeviceBuilderOption {
	return func(d *wgpuDevice) {
		d.device = dev
	}
}
