package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-compute/engine/buffer"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoLayout is returned by InitBindGroup when no bind group layout is given.
	ErrNoLayout = errors.New("bind group layout is nil; register the pipeline first")

	// ErrMissingBuffer is returned when the layout declares a binding the provider has no buffer for.
	ErrMissingBuffer = errors.New("no buffer for binding")

	// ErrIncompatibleBuffer is returned when a buffer lacks the usage or size its binding requires.
	ErrIncompatibleBuffer = errors.New("buffer is incompatible with binding")

	// ErrUnsupportedBinding is returned for texture and sampler bindings, which providers do not hold.
	ErrUnsupportedBinding = errors.New("binding type is not supported")
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is created by InitBindGroup and released by Release.
	bindGroup *wgpu.BindGroup

	// buffers are owned by the caller, keyed by binding index.
	buffers map[int]buffer.Buffer
}

// BindGroupProvider pairs the buffers a compute shader binds with the bind group created from them.
//
// Usage pattern:
//  1. Caller creates the buffers and a provider with WithBuffer for each binding
//  2. Caller registers the pipeline and calls InitBindGroup with the pipeline's layout and descriptor
//  3. The command buffer sets BindGroup() on the compute pass before dispatching
type BindGroupProvider interface {
	// Release releases the bind group. The buffers are left to their owner.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group, or nil before InitBindGroup.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer for a binding index, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - buffer.Buffer: the buffer or nil
	Buffer(binding int) buffer.Buffer

	// Buffers returns all buffers keyed by binding index.
	//
	// Returns:
	//   - map[int]buffer.Buffer: the buffers
	Buffers() map[int]buffer.Buffer

	// SetBuffer sets the buffer for a binding index. A bind group created earlier keeps
	// referencing the old buffer until InitBindGroup is called again.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf buffer.Buffer)

	// InitBindGroup creates the bind group from the provider's buffers. Every binding in the
	// descriptor must have a buffer with matching usage and at least MinBindingSize bytes.
	//
	// Parameters:
	//   - dev: the device to create the bind group on
	//   - layout: the bind group layout, usually Pipeline.BindGroupLayout(group)
	//   - descriptor: the layout descriptor, usually Pipeline.BindGroupLayoutDescriptor(group)
	//
	// Returns:
	//   - error: ErrNoLayout, ErrMissingBuffer, ErrIncompatibleBuffer, ErrUnsupportedBinding or a wgpu error
	InitBindGroup(dev device.Device, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor) error
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label, also used for the bind group
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider without a bind group
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]buffer.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) buffer.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]buffer.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) SetBuffer(binding int, buf buffer.Buffer) {
	if buf == nil {
		delete(p.buffers, binding)
		return
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) InitBindGroup(dev device.Device, layout *wgpu.BindGroupLayout, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if layout == nil {
		return fmt.Errorf("%s: %w", p.label, ErrNoLayout)
	}
	entries, err := p.bindGroupEntries(descriptor)
	if err != nil {
		return fmt.Errorf("%s: %w", p.label, err)
	}

	bg, err := dev.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create bind group: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	return nil
}

// bindGroupEntries matches each layout entry to a provider buffer and checks the buffer can
// serve the binding.
func (p *bindGroupProvider) bindGroupEntries(descriptor wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		var required wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			required = wgpu.BufferUsageUniform
		case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
			required = wgpu.BufferUsageStorage
		default:
			return nil, fmt.Errorf("binding %d: %w", binding, ErrUnsupportedBinding)
		}

		buf := p.buffers[binding]
		if buf == nil {
			return nil, fmt.Errorf("binding %d: %w", binding, ErrMissingBuffer)
		}
		if buf.Usage()&required == 0 {
			return nil, fmt.Errorf("binding %d (%s): %w: missing usage %v", binding, buf.Label(), ErrIncompatibleBuffer, required)
		}
		if buf.Size() < entry.Buffer.MinBindingSize {
			return nil, fmt.Errorf("binding %d (%s): %w: %d bytes, need at least %d", binding, buf.Label(), ErrIncompatibleBuffer, buf.Size(), entry.Buffer.MinBindingSize)
		}

		entries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf.Buffer(),
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	return entries, nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}
