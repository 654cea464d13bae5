package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// StepStat is the measurement of one tracked step.
type StepStat struct {
	Step       string
	Duration   time.Duration
	AllocBytes uint64
	GCCount    uint32
}

// Profiler tracks step timings and frame rate along with memory statistics.
// A nil *Profiler is valid and does nothing, which is how profiling is disabled.
type Profiler struct {
	mu sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	steps []StepStat
}

// NewProfiler creates a new Profiler. The frame update interval defaults to 1 second.
//
// Parameters:
//   - options: builder options, see WithUpdateInterval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Track starts timing a step and returns the function that stops it. Stopping logs the step
// duration, the bytes allocated and the GC cycles that ran while it was open.
//
//	defer p.Track("compute")()
//
// Parameters:
//   - step: the name of the step
//
// Returns:
//   - func(): stops the measurement, safe to call more than once
func (p *Profiler) Track(step string) func() {
	if p == nil {
		return func() {}
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	var once sync.Once
	return func() {
		once.Do(func() {
			elapsed := time.Since(start)
			var after runtime.MemStats
			runtime.ReadMemStats(&after)

			stat := StepStat{
				Step:       step,
				Duration:   elapsed,
				AllocBytes: after.TotalAlloc - before.TotalAlloc,
				GCCount:    after.NumGC - before.NumGC,
			}
			_, maxPauseUs := gcPauses(&after, before.NumGC)
			log.Printf("[Profiler] %s: %s | Alloc: %.2f MB | GC: %d (max: %d µs) | Heap: %.2f MB",
				step, elapsed, toMB(stat.AllocBytes), stat.GCCount, maxPauseUs, toMB(after.Alloc))

			p.mu.Lock()
			p.steps = append(p.steps, stat)
			p.mu.Unlock()
		})
	}
}

// Steps returns the measurements of every stopped step, in stop order.
//
// Returns:
//   - []StepStat: a copy of the recorded measurements
func (p *Profiler) Steps() []StepStat {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StepStat(nil), p.steps...)
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc grows forever and tracks churn, Sys is the process footprint.
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := toMB(allocDelta) / max(elapsed.Seconds(), 1e-9)
	lastPauseUs, maxPauseUs := gcPauses(&p.memStats, p.lastGCCount)

	log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		fps, toMB(p.memStats.Alloc), allocRateMB, p.memStats.NumGC, lastPauseUs, maxPauseUs, toMB(p.memStats.Sys))

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// gcPauses returns the most recent GC pause and the longest pause since the sinceGC'th cycle,
// both in microseconds. PauseNs is a circular buffer of the last 256 pauses.
func gcPauses(ms *runtime.MemStats, sinceGC uint32) (lastPauseUs, maxPauseUs uint64) {
	gcCount := ms.NumGC
	if gcCount == 0 {
		return 0, 0
	}
	lastPauseUs = ms.PauseNs[(gcCount-1)%256] / 1000

	startIdx := sinceGC
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, ms.PauseNs[i%256]/1000)
	}
	return lastPauseUs, maxPauseUs
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
