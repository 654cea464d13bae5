package preview

import (
	"github.com/Carmen-Shannon/oxy-compute/engine/profiler"
	"github.com/cogentcore/webgpu/wgpu"
)

// PreviewBuilderOption is a functional option used to configure a Preview during construction.
type PreviewBuilderOption func(*preview)

// WithClearColor sets the color every frame is cleared to.
//
// Parameters:
//   - c: the clear color, components in [0, 1]
//
// Returns:
//   - PreviewBuilderOption: a function that sets the clear color
func WithClearColor(c wgpu.Color) PreviewBuilderOption {
	return func(p *preview) {
		p.clearColor = c
	}
}

// WithPresentMode sets the surface present mode. Defaults to PresentModeVSync.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - PreviewBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) PreviewBuilderOption {
	return func(p *preview) {
		p.presentMode = mode
	}
}

// WithProfiler ticks the profiler once per presented frame.
//
// Parameters:
//   - prof: the profiler, nil disables frame statistics
//
// Returns:
//   - PreviewBuilderOption: a function that sets the profiler
func WithProfiler(prof *profiler.Profiler) PreviewBuilderOption {
	return func(p *preview) {
		p.profiler = prof
	}
}
