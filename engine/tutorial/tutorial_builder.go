package tutorial

// TutorialBuilderOption is a functional option used to configure a Run.
type TutorialBuilderOption func(*tutorial)

// WithSteps selects which steps Run executes, in the given order. Defaults to AllSteps.
//
// Parameters:
//   - steps: the steps to run
//
// Returns:
//   - TutorialBuilderOption: a function that sets the steps
func WithSteps(steps ...Step) TutorialBuilderOption {
	return func(t *tutorial) {
		t.steps = steps
	}
}

// WithImagePath sets the file StepImage writes. Defaults to DefaultImagePath.
//
// Parameters:
//   - path: the output path, its extension selects the encoder
//
// Returns:
//   - TutorialBuilderOption: a function that sets the image path
func WithImagePath(path string) TutorialBuilderOption {
	return func(t *tutorial) {
		if path != "" {
			t.imagePath = path
		}
	}
}

// WithProfiling enables per-step timing logs.
//
// Parameters:
//   - enabled: true to track each step
//
// Returns:
//   - TutorialBuilderOption: a function that toggles profiling
func WithProfiling(enabled bool) TutorialBuilderOption {
	return func(t *tutorial) {
		t.profiling = enabled
	}
}

// WithWorkers sets the number of verification workers. Defaults to runtime.NumCPU().
//
// Parameters:
//   - workers: the worker count, values below 1 are raised to 1
//
// Returns:
//   - TutorialBuilderOption: a function that sets the worker count
func WithWorkers(workers int) TutorialBuilderOption {
	return func(t *tutorial) {
		t.workers = workers
	}
}
