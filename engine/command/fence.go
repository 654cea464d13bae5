package command

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
)

// fence is the implementation of the Fence interface.
type fence struct {
	label string
	wait  func()
	once  sync.Once
	done  chan struct{}
}

// Fence is the host-side handle of one submission.
type Fence interface {
	// Wait blocks until the device has finished the submitted work. There is no timeout.
	// Calling Wait again returns immediately.
	Wait()

	// Done returns a channel closed once Wait has observed completion.
	//
	// Returns:
	//   - <-chan struct{}: the completion channel
	Done() <-chan struct{}

	// Label returns the label of the command buffer the fence belongs to.
	//
	// Returns:
	//   - string: the label
	Label() string
}

var _ Fence = &fence{}

// newFence returns a fence that waits by blocking on the device until its queue is idle.
func newFence(dev device.Device, label string) *fence {
	return &fence{
		label: label,
		wait:  dev.WaitIdle,
		done:  make(chan struct{}),
	}
}

func (f *fence) Wait() {
	f.once.Do(func() {
		f.wait()
		close(f.done)
	})
}

func (f *fence) Done() <-chan struct{} {
	return f.done
}

func (f *fence) Label() string {
	return f.label
}

// SubmitAndWait submits the command buffer and blocks until the device finished it.
//
// Parameters:
//   - cb: the recorded command buffer
//
// Returns:
//   - error: the Submit error, if any
func SubmitAndWait(cb CommandBuffer) error {
	f, err := cb.Submit()
	if err != nil {
		return err
	}
	f.Wait()
	return nil
}
