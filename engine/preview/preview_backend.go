package preview

import "github.com/cogentcore/webgpu/wgpu"

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// surfacePresentMode returns the wgpu present mode for m.
func (m PresentMode) surfacePresentMode() wgpu.PresentMode {
	switch m {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

func (m PresentMode) String() string {
	switch m {
	case PresentModeUncapped:
		return "uncapped"
	default:
		return "vsync"
	}
}
