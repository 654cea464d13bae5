package command

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-compute/engine/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-compute/engine/buffer"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/image"
	"github.com/Carmen-Shannon/oxy-compute/engine/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrAlreadySubmitted is returned when a command buffer is recorded into or submitted after Submit.
	ErrAlreadySubmitted = errors.New("command buffer already submitted")

	// ErrInvalidCopy is returned when a copy's size or usage does not fit its source or destination.
	ErrInvalidCopy = errors.New("invalid copy")

	// ErrNotRegistered is returned when dispatching a pipeline that has not been registered.
	ErrNotRegistered = errors.New("pipeline not registered")

	// ErrNoBindGroup is returned when dispatching with a provider whose bind group was never initialized.
	ErrNoBindGroup = errors.New("bind group not initialized")
)

// commandBuffer is the implementation of the CommandBuffer interface. It wraps a single
// command encoder that is finished and submitted exactly once.
type commandBuffer struct {
	mu *sync.Mutex

	label     string
	dev       device.Device
	encoder   *wgpu.CommandEncoder
	commands  int
	submitted bool
}

// CommandBuffer records GPU commands for one submission. Every recording method validates its
// arguments before touching the encoder; once Submit has been called every method returns
// ErrAlreadySubmitted.
type CommandBuffer interface {
	// Label returns the debug label of the command buffer.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Len returns the number of recorded commands.
	//
	// Returns:
	//   - int: the number of commands
	Len() int

	// CopyBuffer records a copy of the first size bytes of src into dst.
	//
	// Parameters:
	//   - src: the source buffer, needs CopySrc usage
	//   - dst: the destination buffer, needs CopyDst usage
	//   - size: the byte count, a non-zero multiple of 4 that fits both buffers
	//
	// Returns:
	//   - error: ErrAlreadySubmitted or ErrInvalidCopy
	CopyBuffer(src, dst buffer.Buffer, size uint64) error

	// Dispatch records a compute pass running the pipeline with the provider's bind group at group 0.
	//
	// Parameters:
	//   - p: a registered compute pipeline
	//   - provider: a provider whose bind group was initialized against p
	//   - groups: the workgroup count as [x, y, z], usually p.WorkgroupCount(n)
	//
	// Returns:
	//   - error: ErrAlreadySubmitted, ErrNotRegistered or ErrNoBindGroup
	Dispatch(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, groups [3]uint32) error

	// ClearImage records a render pass that clears the image to c and stores the result.
	//
	// Parameters:
	//   - img: the image to clear
	//   - c: the clear color, components in [0, 1]
	//
	// Returns:
	//   - error: ErrAlreadySubmitted or an error if the image was released
	ClearImage(img image.Image, c wgpu.Color) error

	// ClearView records a render pass that clears any color attachment view, such as a
	// surface texture, to c.
	//
	// Parameters:
	//   - view: the view to clear
	//   - c: the clear color, components in [0, 1]
	//
	// Returns:
	//   - error: ErrAlreadySubmitted or an error if view is nil
	ClearView(view *wgpu.TextureView, c wgpu.Color) error

	// CopyImageToBuffer records a copy of the whole image into dst using img.ReadbackDims().
	//
	// Parameters:
	//   - img: the source image
	//   - dst: the destination buffer, needs CopyDst usage and img.ReadbackDims().PaddedSize() bytes
	//
	// Returns:
	//   - error: ErrAlreadySubmitted or ErrInvalidCopy
	CopyImageToBuffer(img image.Image, dst buffer.Buffer) error

	// Submit finishes the recording and submits it to the device queue.
	//
	// Returns:
	//   - Fence: the fence signalled when the submitted work completes
	//   - error: ErrAlreadySubmitted or an encoder error
	Submit() (Fence, error)

	// Release releases the encoder of a command buffer that was never submitted.
	Release()
}

var _ CommandBuffer = &commandBuffer{}

// NewCommandBuffer creates a command buffer that records into a fresh command encoder.
//
// Parameters:
//   - dev: the device to record for
//   - label: the debug label of the encoder
//
// Returns:
//   - CommandBuffer: an empty command buffer
//   - error: an error if the encoder could not be created
func NewCommandBuffer(dev device.Device, label string) (CommandBuffer, error) {
	encoder, err := dev.Device().CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create command encoder: %w", label, err)
	}
	return &commandBuffer{
		mu:      &sync.Mutex{},
		label:   label,
		dev:     dev,
		encoder: encoder,
	}, nil
}

func (c *commandBuffer) Label() string {
	return c.label
}

func (c *commandBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands
}

func (c *commandBuffer) CopyBuffer(src, dst buffer.Buffer, size uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	if err := validateBufferCopy(src, dst, size); err != nil {
		return fmt.Errorf("%s: %w", c.label, err)
	}

	c.encoder.CopyBufferToBuffer(src.Buffer(), 0, dst.Buffer(), 0, size)
	c.commands++
	return nil
}

func (c *commandBuffer) Dispatch(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, groups [3]uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	if p.ComputePipeline() == nil {
		return fmt.Errorf("%s: %w: %s", c.label, ErrNotRegistered, p.PipelineKey())
	}
	if provider.BindGroup() == nil {
		return fmt.Errorf("%s: %w: %s", c.label, ErrNoBindGroup, provider.Label())
	}

	pass := c.encoder.BeginComputePass(nil)
	pass.SetPipeline(p.ComputePipeline())
	pass.SetBindGroup(0, provider.BindGroup(), nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()
	pass.Release()
	c.commands++
	return nil
}

func (c *commandBuffer) ClearImage(img image.Image, color wgpu.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	view := img.View()
	if view == nil {
		return fmt.Errorf("%s: image %s has been released", c.label, img.Label())
	}
	c.clear(view, color)
	return nil
}

func (c *commandBuffer) ClearView(view *wgpu.TextureView, color wgpu.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	if view == nil {
		return fmt.Errorf("%s: nil texture view", c.label)
	}
	c.clear(view, color)
	return nil
}

// clear records a render pass with a single color attachment that is cleared and stored.
// Callers must hold c.mu.
func (c *commandBuffer) clear(view *wgpu.TextureView, color wgpu.Color) {
	pass := c.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: color,
			},
		},
	})
	pass.End()
	pass.Release()
	c.commands++
}

func (c *commandBuffer) CopyImageToBuffer(img image.Image, dst buffer.Buffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	dims := img.ReadbackDims()
	if err := validateImageCopy(dims, dst); err != nil {
		return fmt.Errorf("%s: %w", c.label, err)
	}
	tex := img.Texture()
	if tex == nil {
		return fmt.Errorf("%s: image %s has been released", c.label, img.Label())
	}

	extent := img.Extent()
	c.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Layout: dims.DataLayout(),
			Buffer: dst.Buffer(),
		},
		&extent,
	)
	c.commands++
	return nil
}

func (c *commandBuffer) Submit() (Fence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitted {
		return nil, fmt.Errorf("%s: %w", c.label, ErrAlreadySubmitted)
	}
	c.submitted = true
	defer func() {
		c.encoder.Release()
		c.encoder = nil
	}()

	cmd, err := c.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to finish command encoder: %w", c.label, err)
	}
	defer cmd.Release()

	c.dev.Queue().Submit(cmd)
	return newFence(c.dev, c.label), nil
}

func (c *commandBuffer) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
	c.submitted = true
}

// validateBufferCopy checks a full-size copy from the start of src to the start of dst.
func validateBufferCopy(src, dst buffer.Buffer, size uint64) error {
	switch {
	case size == 0 || size%4 != 0:
		return fmt.Errorf("%w: size %d must be a non-zero multiple of 4", ErrInvalidCopy, size)
	case size > src.Size():
		return fmt.Errorf("%w: %d bytes exceed source %s (%d bytes)", ErrInvalidCopy, size, src.Label(), src.Size())
	case size > dst.Size():
		return fmt.Errorf("%w: %d bytes exceed destination %s (%d bytes)", ErrInvalidCopy, size, dst.Label(), dst.Size())
	case src.Usage()&wgpu.BufferUsageCopySrc == 0:
		return fmt.Errorf("%w: source %s lacks CopySrc usage", ErrInvalidCopy, src.Label())
	case dst.Usage()&wgpu.BufferUsageCopyDst == 0:
		return fmt.Errorf("%w: destination %s lacks CopyDst usage", ErrInvalidCopy, dst.Label())
	}
	return nil
}

// validateImageCopy checks that dst can receive an image with the given readback layout.
func validateImageCopy(dims image.ReadbackDims, dst buffer.Buffer) error {
	if dst.Size() < dims.PaddedSize() {
		return fmt.Errorf("%w: destination %s is %d bytes, need %d", ErrInvalidCopy, dst.Label(), dst.Size(), dims.PaddedSize())
	}
	if dst.Usage()&wgpu.BufferUsageCopyDst == 0 {
		return fmt.Errorf("%w: destination %s lacks CopyDst usage", ErrInvalidCopy, dst.Label())
	}
	return nil
}
