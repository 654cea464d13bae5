package buffer

import (
	"os"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAccessUsage(t *testing.T) {
	assert.Equal(t, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst, HostAccessRead.usage())
	assert.Equal(t, wgpu.BufferUsageMapWrite|wgpu.BufferUsageCopySrc, HostAccessWrite.usage())
	assert.Equal(t, wgpu.BufferUsage(0), HostAccessNone.usage())
	assert.Equal(t, "read", HostAccessRead.String())
	assert.Equal(t, "none", HostAccess(42).String())
}

func TestNewBufferRejectsBadSizes(t *testing.T) {
	// size validation happens before the device is touched, so a nil device is fine here
	_, err := NewBuffer(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewBuffer(nil, 6)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewBuffer(nil, 4, WithContents(make([]byte, 8)))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestMapDirectionChecks(t *testing.T) {
	b := &buffer{mu: &sync.Mutex{}, label: "upload", size: 8, hostAccess: HostAccessWrite}
	_, err := b.Read()
	assert.ErrorIs(t, err, ErrNotMappable)

	b = &buffer{mu: &sync.Mutex{}, label: "readback", size: 8, hostAccess: HostAccessRead}
	err = b.Update(func([]byte) { t.Fatal("must not be called") })
	assert.ErrorIs(t, err, ErrNotMappable)

	b.usage = HostAccessRead.usage()
	assert.ErrorIs(t, b.Write(make([]byte, 8)), ErrReleased)
	// released buffers stay released
	b.Release()
	assert.Nil(t, b.Buffer())
}

func TestBuilderOptions(t *testing.T) {
	b := &buffer{}
	WithLabel("src")(b)
	WithUsage(wgpu.BufferUsageStorage)(b)
	WithUsage(wgpu.BufferUsageCopySrc)(b)
	WithContents([]byte{1, 2, 3, 4})(b)
	WithHostAccess(HostAccessRead)(b)

	assert.Equal(t, "src", b.label)
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, b.usage)
	assert.Equal(t, []byte{1, 2, 3, 4}, b.contents)
	assert.Equal(t, HostAccessRead, b.hostAccess)
}

func TestMapStatusError(t *testing.T) {
	assert.NoError(t, mapStatusError("ok", wgpu.BufferMapAsyncStatusSuccess))
	assert.ErrorIs(t, mapStatusError("bad", wgpu.BufferMapAsyncStatusValidationError), ErrMapFailed)
}

func TestHostVisibleRoundTrip(t *testing.T) {
	if os.Getenv("OXY_GPU_TESTS") != "1" {
		t.Skip("Need GPU or software adapter; set OXY_GPU_TESTS=1")
	}
	dev, err := device.NewDevice()
	require.NoError(t, err)
	defer dev.Release()

	upload, err := NewBuffer(dev, 0,
		WithLabel("upload"),
		WithHostAccess(HostAccessWrite),
		WithContents([]byte{1, 2, 3, 4, 5, 6, 7, 8}),
	)
	require.NoError(t, err)
	defer upload.Release()

	err = upload.Update(func(mapped []byte) {
		mapped[0] = 42
	})
	require.NoError(t, err)

	readback, err := NewBuffer(dev, 8, WithLabel("readback"), WithHostAccess(HostAccessRead))
	require.NoError(t, err)
	defer readback.Release()

	assert.ErrorIs(t, readback.Write(make([]byte, 8)), ErrNotWritable)

	enc, err := dev.Device().CreateCommandEncoder(nil)
	require.NoError(t, err)
	enc.CopyBufferToBuffer(upload.Buffer(), 0, readback.Buffer(), 0, 8)
	cmd, err := enc.Finish(nil)
	require.NoError(t, err)
	dev.Queue().Submit(cmd)
	cmd.Release()
	enc.Release()

	got, err := readback.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte{42, 2, 3, 4, 5, 6, 7, 8}, got)
}
