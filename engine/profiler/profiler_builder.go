package profiler

import "time"

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often Tick logs frame statistics.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}
