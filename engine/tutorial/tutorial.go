// Package tutorial runs the buffer, compute and image walkthrough against a device. Each step is
// also callable on its own.
package tutorial

import (
	"fmt"
	"log"
	"runtime"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/profiler"
)

// Result collects what each executed step read back from the device.
type Result struct {
	// Adapter is the adapter the device was opened on.
	Adapter device.AdapterInfo

	// DataPair is set by StepDataPair.
	DataPair common.DataPair

	// Copied is set by StepCopy.
	Copied []uint32

	// Multiplied is set by StepCompute.
	Multiplied []uint32

	// ImagePath is set by StepImage.
	ImagePath string

	// Steps holds per-step timings when profiling is enabled.
	Steps []profiler.StepStat
}

// tutorial holds the options of a single Run.
type tutorial struct {
	steps     []Step
	imagePath string
	profiling bool
	workers   int
}

// Run executes the configured steps in order and stops at the first error.
//
// Parameters:
//   - dev: the device to run on
//   - options: functional options, see WithSteps, WithImagePath, WithProfiling and WithWorkers
//
// Returns:
//   - Result: the values read back by the steps that ran
//   - error: the first step error, wrapped with the step name
func Run(dev device.Device, options ...TutorialBuilderOption) (Result, error) {
	t := &tutorial{
		steps:     AllSteps,
		imagePath: DefaultImagePath,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(t)
	}

	var prof *profiler.Profiler
	if t.profiling {
		prof = profiler.NewProfiler()
	}
	v := NewVerifier(t.workers)

	res := Result{Adapter: dev.Info()}
	log.Printf("[Tutorial] running %d steps on %s", len(t.steps), res.Adapter.Name)
	for _, step := range t.steps {
		done := prof.Track(step.String())
		err := t.run(dev, v, step, &res)
		done()
		if err != nil {
			return res, fmt.Errorf("%s: %w", step, err)
		}
	}
	res.Steps = prof.Steps()
	return res, nil
}

// run executes a single step and records its output in res.
func (t *tutorial) run(dev device.Device, v *Verifier, step Step, res *Result) error {
	var err error
	switch step {
	case StepDataPair:
		res.DataPair, err = RunDataPair(dev)
	case StepCopy:
		res.Copied, err = RunCopy(dev, v)
	case StepCompute:
		res.Multiplied, err = RunCompute(dev, v)
	case StepImage:
		if err = RunImage(dev, v, t.imagePath); err == nil {
			res.ImagePath = t.imagePath
		}
	default:
		err = fmt.Errorf("unknown step %d", int(step))
	}
	return err
}
