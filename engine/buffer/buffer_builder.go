package buffer

import "github.com/cogentcore/webgpu/wgpu"

// BufferBuilderOption is a functional option applied to a buffer during construction via NewBuffer.
type BufferBuilderOption func(*buffer)

// WithLabel sets the debug label of the buffer.
//
// Parameters:
//   - label: the label shown by validation errors and GPU debuggers
//
// Returns:
//   - BufferBuilderOption: a function that applies the label option to a buffer
func WithLabel(label string) BufferBuilderOption {
	return func(b *buffer) {
		b.label = label
	}
}

// WithUsage adds usage flags to the buffer. The flags are ORed with the flags implied by WithHostAccess.
//
// Parameters:
//   - usage: extra wgpu.BufferUsage flags (e.g. wgpu.BufferUsageStorage)
//
// Returns:
//   - BufferBuilderOption: a function that applies the usage option to a buffer
func WithUsage(usage wgpu.BufferUsage) BufferBuilderOption {
	return func(b *buffer) {
		b.usage |= usage
	}
}

// WithContents sets the initial contents of the buffer. The buffer is created mapped and the
// contents are copied in before it is handed to the device. When NewBuffer is called with size 0
// the buffer size is taken from the contents.
//
// Parameters:
//   - contents: the initial bytes
//
// Returns:
//   - BufferBuilderOption: a function that applies the contents option to a buffer
func WithContents(contents []byte) BufferBuilderOption {
	return func(b *buffer) {
		b.contents = contents
	}
}

// WithHostAccess makes the buffer host-visible in the given direction.
//
// Parameters:
//   - access: HostAccessNone, HostAccessRead or HostAccessWrite
//
// Returns:
//   - BufferBuilderOption: a function that applies the host access option to a buffer
func WithHostAccess(access HostAccess) BufferBuilderOption {
	return func(b *buffer) {
		b.hostAccess = access
	}
}
