package device

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*device)

// WithLabel sets the debug label of the logical device.
//
// Parameters:
//   - label: the label shown by validation layers and GPU debuggers
//
// Returns:
//   - DeviceBuilderOption: a function that applies the label option to a device
func WithLabel(label string) DeviceBuilderOption {
	return func(d *device) {
		if label != "" {
			d.label = label
		}
	}
}

// WithPowerPreference sets which class of adapter is preferred when several are present.
// The default is wgpu.PowerPreferenceHighPerformance.
//
// Parameters:
//   - preference: wgpu.PowerPreferenceLowPower or wgpu.PowerPreferenceHighPerformance
//
// Returns:
//   - DeviceBuilderOption: a function that applies the power preference option to a device
func WithPowerPreference(preference wgpu.PowerPreference) DeviceBuilderOption {
	return func(d *device) {
		d.powerPreference = preference
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the force fallback option to a device
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *device) {
		d.forceFallbackAdapter = force
	}
}

// WithCompatibleSurface creates a presentation surface from the descriptor and restricts
// adapter selection to adapters able to present to it.
//
// Parameters:
//   - descriptor: the platform surface descriptor, typically from window.Window.SurfaceDescriptor
//
// Returns:
//   - DeviceBuilderOption: a function that applies the surface option to a device
func WithCompatibleSurface(descriptor *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(d *device) {
		d.surfaceDescriptor = descriptor
	}
}
