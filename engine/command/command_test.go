package command

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-compute/engine/buffer"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/image"
	"github.com/Carmen-Shannon/oxy-compute/engine/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bufferIface lets sizedBuffer embed buffer.Buffer without a field named Buffer hiding the
// Buffer() method.
type bufferIface = buffer.Buffer

// sizedBuffer is a buffer.Buffer stand-in that only reports its label, size and usage.
type sizedBuffer struct {
	bufferIface
	label string
	size  uint64
	usage wgpu.BufferUsage
}

func (b sizedBuffer) Label() string           { return b.label }
func (b sizedBuffer) Size() uint64            { return b.size }
func (b sizedBuffer) Usage() wgpu.BufferUsage { return b.usage }

func TestValidateBufferCopy(t *testing.T) {
	src := sizedBuffer{label: "src", size: 256, usage: wgpu.BufferUsageCopySrc}
	dst := sizedBuffer{label: "dst", size: 256, usage: wgpu.BufferUsageCopyDst}

	assert.NoError(t, validateBufferCopy(src, dst, 256))
	assert.NoError(t, validateBufferCopy(src, dst, 4))

	tests := []struct {
		name     string
		src, dst buffer.Buffer
		size     uint64
	}{
		{"zero size", src, dst, 0},
		{"unaligned size", src, dst, 6},
		{"source too small", src, dst, 512},
		{"destination too small", src, sizedBuffer{label: "dst", size: 128, usage: wgpu.BufferUsageCopyDst}, 256},
		{"source without CopySrc", dst, dst, 64},
		{"destination without CopyDst", src, src, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, validateBufferCopy(tt.src, tt.dst, tt.size), ErrInvalidCopy)
		})
	}
}

func TestValidateImageCopy(t *testing.T) {
	dims := image.NewReadbackDims(100, 10, wgpu.TextureFormatRGBA8Unorm)

	assert.NoError(t, validateImageCopy(dims, sizedBuffer{size: 5120, usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead}))
	assert.ErrorIs(t, validateImageCopy(dims, sizedBuffer{size: 4000, usage: wgpu.BufferUsageCopyDst}), ErrInvalidCopy)
	assert.ErrorIs(t, validateImageCopy(dims, sizedBuffer{size: 5120, usage: wgpu.BufferUsageMapRead}), ErrInvalidCopy)
}

func TestSubmittedCommandBuffer(t *testing.T) {
	cb := &commandBuffer{mu: &sync.Mutex{}, label: "done", submitted: true}
	src := sizedBuffer{size: 4, usage: wgpu.BufferUsageCopySrc}
	dst := sizedBuffer{size: 4, usage: wgpu.BufferUsageCopyDst}

	assert.ErrorIs(t, cb.CopyBuffer(src, dst, 4), ErrAlreadySubmitted)
	assert.ErrorIs(t, cb.Dispatch(pipeline.NewPipeline("p"), bind_group_provider.NewBindGroupProvider("b"), [3]uint32{1, 1, 1}), ErrAlreadySubmitted)
	assert.ErrorIs(t, cb.ClearImage(nil, wgpu.Color{}), ErrAlreadySubmitted)
	assert.ErrorIs(t, cb.ClearView(nil, wgpu.Color{}), ErrAlreadySubmitted)
	assert.ErrorIs(t, cb.CopyImageToBuffer(nil, dst), ErrAlreadySubmitted)
	_, err := cb.Submit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 0, cb.Len())
}

func TestDispatchRequiresRegisteredPipeline(t *testing.T) {
	cb := &commandBuffer{mu: &sync.Mutex{}, label: "dispatch"}
	err := cb.Dispatch(pipeline.NewPipeline("unregistered"), bind_group_provider.NewBindGroupProvider("b"), [3]uint32{1, 1, 1})
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestReleaseMarksSubmitted(t *testing.T) {
	cb := &commandBuffer{mu: &sync.Mutex{}, label: "released"}
	cb.Release()
	_, err := cb.Submit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestFenceWaitsOnce(t *testing.T) {
	calls := 0
	f := &fence{label: "f", wait: func() { calls++ }, done: make(chan struct{})}

	select {
	case <-f.Done():
		t.Fatal("fence done before Wait")
	default:
	}

	f.Wait()
	f.Wait()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "f", f.Label())
	_, open := <-f.Done()
	assert.False(t, open)
}

// failingCommandBuffer fails to submit.
type failingCommandBuffer struct {
	CommandBuffer
}

func (failingCommandBuffer) Submit() (Fence, error) {
	return nil, errors.New("submit failed")
}

func TestSubmitAndWait_Error(t *testing.T) {
	assert.EqualError(t, SubmitAndWait(failingCommandBuffer{}), "submit failed")
}

func TestCopyBufferOnDevice(t *testing.T) {
	if os.Getenv("OXY_GPU_TESTS") != "1" {
		t.Skip("Need GPU or software adapter; set OXY_GPU_TESTS=1")
	}
	dev, err := device.NewDevice()
	require.NoError(t, err)
	defer dev.Release()

	data := make([]byte, 64*4)
	for i := range 64 {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(i))
	}
	src, err := buffer.NewBuffer(dev, 0, buffer.WithLabel("src"), buffer.WithHostAccess(buffer.HostAccessWrite), buffer.WithContents(data))
	require.NoError(t, err)
	defer src.Release()
	dst, err := buffer.NewBuffer(dev, uint64(len(data)), buffer.WithLabel("dst"), buffer.WithHostAccess(buffer.HostAccessRead))
	require.NoError(t, err)
	defer dst.Release()

	cb, err := NewCommandBuffer(dev, "copy")
	require.NoError(t, err)
	defer cb.Release()
	require.NoError(t, cb.CopyBuffer(src, dst, uint64(len(data))))
	assert.Equal(t, 1, cb.Len())
	require.NoError(t, SubmitAndWait(cb))

	got, err := dst.Read()
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = cb.Submit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestClearViewRequiresView(t *testing.T) {
	cb := &commandBuffer{mu: &sync.Mutex{}, label: "clear"}
	assert.Error(t, cb.ClearView(nil, wgpu.Color{B: 1, A: 1}))
	assert.Equal(t, 0, cb.Len())
}
