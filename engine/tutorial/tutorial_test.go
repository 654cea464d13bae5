package tutorial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deviceIface lets test doubles embed device.Device without a field named Device hiding the
// Device() method.
type deviceIface = device.Device

// infoDevice reports adapter info without opening a GPU.
type infoDevice struct {
	deviceIface
}

func (infoDevice) Info() device.AdapterInfo {
	return device.AdapterInfo{Name: "test adapter"}
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "data pair", StepDataPair.String())
	assert.Equal(t, "buffer copy", StepCopy.String())
	assert.Equal(t, "compute multiply", StepCompute.String())
	assert.Equal(t, "image clear", StepImage.String())
	assert.Equal(t, "unknown", Step(42).String())
}

func TestClearPixel(t *testing.T) {
	px := clearPixel(ClearColor)
	assert.InDelta(t, 26, float64(px.R), 1)
	assert.InDelta(t, 153, float64(px.G), 1)
	assert.InDelta(t, 179, float64(px.B), 1)
	assert.InDelta(t, 179, float64(px.A), 1)

	px = clearPixel(wgpu.Color{R: 0.5, G: -1, B: 2, A: 1})
	assert.Equal(t, uint8(128), px.R)
	assert.Equal(t, uint8(0), px.G)
	assert.Equal(t, uint8(255), px.B)
}

func TestMultiplyShaderSource(t *testing.T) {
	s, err := shader.NewShader("multiply", shader.ShaderTypeCompute, shader.WithSource(MultiplyShaderSource))
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())

	data, ok := s.BindGroupFromVarName(0, "data")
	require.True(t, ok)
	params, ok := s.BindGroupFromVarName(0, "params")
	require.True(t, ok)
	assert.Equal(t, 0, data)
	assert.Equal(t, 1, params)
	assert.Equal(t, 1, computeBinding(s, "params", 7))
	assert.Equal(t, 7, computeBinding(s, "missing", 7))
}

func TestOptions(t *testing.T) {
	tut := &tutorial{steps: AllSteps, imagePath: DefaultImagePath}
	WithSteps(StepCopy, StepCompute)(tut)
	WithImagePath("")(tut)
	WithProfiling(true)(tut)
	WithWorkers(3)(tut)

	assert.Equal(t, []Step{StepCopy, StepCompute}, tut.steps)
	assert.Equal(t, DefaultImagePath, tut.imagePath)
	assert.True(t, tut.profiling)
	assert.Equal(t, 3, tut.workers)

	WithImagePath("out.bmp")(tut)
	assert.Equal(t, "out.bmp", tut.imagePath)
}

func TestRunUnknownStep(t *testing.T) {
	res, err := Run(infoDevice{}, WithSteps(Step(9)), WithProfiling(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step 9")
	assert.Equal(t, "test adapter", res.Adapter.Name)
}

func TestRunNoSteps(t *testing.T) {
	res, err := Run(infoDevice{}, WithSteps())
	require.NoError(t, err)
	assert.Nil(t, res.Steps)
	assert.Empty(t, res.ImagePath)
}

func TestRunOnDevice(t *testing.T) {
	if os.Getenv("OXY_GPU_TESTS") != "1" {
		t.Skip("Need GPU or software adapter; set OXY_GPU_TESTS=1")
	}
	dev, err := device.NewDevice(device.WithLabel(t.Name()))
	require.NoError(t, err)
	defer dev.Release()

	path := filepath.Join(t.TempDir(), "image.png")
	res, err := Run(dev, WithImagePath(path), WithProfiling(true), WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, ExpectedDataPair, res.DataPair)
	assert.Equal(t, sequence(CopyElements), res.Copied)
	require.Len(t, res.Multiplied, ComputeElements)
	assert.Equal(t, uint32(65535*MultiplyFactor), res.Multiplied[ComputeElements-1])
	assert.Equal(t, path, res.ImagePath)
	assert.Len(t, res.Steps, len(AllSteps))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
