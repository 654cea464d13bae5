package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrInvalidSize is returned when a buffer size is zero or not a multiple of 4 bytes.
	ErrInvalidSize = errors.New("buffer size must be a non-zero multiple of 4")

	// ErrNotMappable is returned when a buffer is mapped in a direction its host access does not allow.
	ErrNotMappable = errors.New("buffer is not host-visible in the requested direction")

	// ErrNotWritable is returned by Write when the buffer lacks CopyDst usage.
	ErrNotWritable = errors.New("buffer does not allow queue writes")

	// ErrMapFailed is returned when the device reports a map failure.
	ErrMapFailed = errors.New("buffer map failed")

	// ErrReleased is returned when a released buffer is used.
	ErrReleased = errors.New("buffer has been released")
)

// buffer is the implementation of the Buffer interface.
type buffer struct {
	mu  *sync.Mutex
	dev device.Device

	label      string
	size       uint64
	usage      wgpu.BufferUsage
	hostAccess HostAccess
	contents   []byte

	buffer *wgpu.Buffer
}

// Buffer is a GPU buffer together with the bookkeeping needed to upload to it and map it from the host.
type Buffer interface {
	// Label returns the buffer's debug label.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - uint64: the size
	Size() uint64

	// Usage returns the full set of usage flags the buffer was created with.
	//
	// Returns:
	//   - wgpu.BufferUsage: the usage flags
	Usage() wgpu.BufferUsage

	// HostAccess returns the direction in which the host may map the buffer.
	//
	// Returns:
	//   - HostAccess: the access mode
	HostAccess() HostAccess

	// Buffer returns the underlying WebGPU buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer handle, nil after Release
	Buffer() *wgpu.Buffer

	// Write uploads data at offset 0 through the device queue. The upload is ordered before any
	// work submitted afterwards.
	//
	// Parameters:
	//   - data: the bytes to upload, at most Size() bytes and a multiple of 4
	//
	// Returns:
	//   - error: ErrNotWritable if the buffer lacks CopyDst usage, or a size error
	Write(data []byte) error

	// Read maps the buffer for reading, blocks until the device finished all work touching it,
	// copies the mapped bytes out and unmaps the buffer.
	//
	// Returns:
	//   - []byte: a copy of the buffer contents
	//   - error: ErrNotMappable for buffers without HostAccessRead, ErrMapFailed on a map failure
	Read() ([]byte, error)

	// Update maps the buffer for writing, calls fn with the mapped bytes so it can mutate them in
	// place, then unmaps the buffer. The slice must not be retained after fn returns.
	//
	// Parameters:
	//   - fn: the in-place mutation
	//
	// Returns:
	//   - error: ErrNotMappable for buffers without HostAccessWrite, ErrMapFailed on a map failure
	Update(fn func(mapped []byte)) error

	// Release frees the GPU buffer. Safe to call more than once.
	Release()
}

var _ Buffer = &buffer{}

// NewBuffer creates a GPU buffer on the device.
//
// Parameters:
//   - dev: the device to allocate on
//   - size: the size in bytes; 0 takes the size from WithContents
//   - options: functional options for label, usage, contents and host access
//
// Returns:
//   - Buffer: the created buffer
//   - error: ErrInvalidSize for bad sizes, or the wrapped allocation error
func NewBuffer(dev device.Device, size uint64, options ...BufferBuilderOption) (Buffer, error) {
	b := &buffer{
		mu:    &sync.Mutex{},
		dev:   dev,
		label: "Buffer",
	}
	for _, opt := range options {
		opt(b)
	}

	b.size = common.Coalesce(size, uint64(len(b.contents)))
	if b.size == 0 || b.size%4 != 0 || uint64(len(b.contents)) > b.size {
		return nil, fmt.Errorf("%s: %w (size %d, contents %d)", b.label, ErrInvalidSize, b.size, len(b.contents))
	}
	b.usage |= b.hostAccess.usage()

	buf, err := dev.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label,
		Size:             b.size,
		Usage:            b.usage,
		MappedAtCreation: len(b.contents) > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", b.label, err)
	}
	if len(b.contents) > 0 {
		mapped := buf.GetMappedRange(0, uint(b.size))
		copy(mapped, b.contents)
		buf.Unmap()
	}
	b.buffer = buf
	b.contents = nil

	return b, nil
}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Size() uint64 {
	return b.size
}

func (b *buffer) Usage() wgpu.BufferUsage {
	return b.usage
}

func (b *buffer) HostAccess() HostAccess {
	return b.hostAccess
}

func (b *buffer) Buffer() *wgpu.Buffer {
	return b.buffer
}

func (b *buffer) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer == nil {
		return ErrReleased
	}
	if b.usage&wgpu.BufferUsageCopyDst == 0 || b.hostAccess == HostAccessRead {
		return fmt.Errorf("%s: %w", b.label, ErrNotWritable)
	}
	if uint64(len(data)) > b.size || len(data)%4 != 0 {
		return fmt.Errorf("%s: %w (write of %d bytes)", b.label, ErrInvalidSize, len(data))
	}
	b.dev.Queue().WriteBuffer(b.buffer, 0, data)
	return nil
}

func (b *buffer) Read() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hostAccess != HostAccessRead {
		return nil, fmt.Errorf("%s: %w (host access %s)", b.label, ErrNotMappable, b.hostAccess)
	}
	if err := b.mapSync(wgpu.MapModeRead); err != nil {
		return nil, err
	}
	defer b.buffer.Unmap()

	mapped := b.buffer.GetMappedRange(0, uint(b.size))
	out := make([]byte, len(mapped))
	copy(out, mapped)
	return out, nil
}

func (b *buffer) Update(fn func(mapped []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hostAccess != HostAccessWrite {
		return fmt.Errorf("%s: %w (host access %s)", b.label, ErrNotMappable, b.hostAccess)
	}
	if err := b.mapSync(wgpu.MapModeWrite); err != nil {
		return err
	}
	defer b.buffer.Unmap()

	fn(b.buffer.GetMappedRange(0, uint(b.size)))
	return nil
}

// mapSync does a MapAsync over the whole buffer and waits on the device until the map callback
// has fired. Callers must hold b.mu.
func (b *buffer) mapSync(mode wgpu.MapMode) error {
	if b.buffer == nil {
		return ErrReleased
	}

	var status wgpu.BufferMapAsyncStatus
	done := false
	err := b.buffer.MapAsync(mode, 0, b.size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %w", b.label, ErrMapFailed, err)
	}
	b.dev.WaitIdle()
	if !done {
		return fmt.Errorf("%s: %w: map callback did not fire", b.label, ErrMapFailed)
	}
	return mapStatusError(b.label, status)
}

// mapStatusError returns an error wrapping ErrMapFailed if the status is not success.
func mapStatusError(label string, status wgpu.BufferMapAsyncStatus) error {
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("%s: %w: status %s", label, ErrMapFailed, status.String())
	}
	return nil
}

func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer == nil {
		return
	}
	b.buffer.Release()
	b.buffer = nil
}
