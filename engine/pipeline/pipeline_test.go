package pipeline

import (
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleSource = `//@oxy:group 0 0 storage_read_write data array<u32>

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
	if (id.x < arrayLength(&data)) {
		data[id.x] = data[id.x] * 2u;
	}
}
`

func newDoubleShader(t *testing.T) shader.Shader {
	t.Helper()
	s, err := shader.NewShader("double", shader.ShaderTypeCompute, shader.WithSource(doubleSource))
	require.NoError(t, err)
	return s
}

func TestWorkgroupCount(t *testing.T) {
	p := NewPipeline("double", WithComputeShader(newDoubleShader(t)))

	assert.Equal(t, [3]uint32{1024, 1, 1}, p.WorkgroupCount(65536))
	assert.Equal(t, [3]uint32{2, 1, 1}, p.WorkgroupCount(65))
	assert.Equal(t, [3]uint32{1, 1, 1}, p.WorkgroupCount(1))
	assert.Equal(t, [3]uint32{0, 1, 1}, p.WorkgroupCount(0))
}

func TestPipelineWithoutShader(t *testing.T) {
	p := NewPipeline("empty")

	assert.Nil(t, p.Shader())
	assert.Equal(t, [3]uint32{7, 1, 1}, p.WorkgroupCount(7))
	assert.Empty(t, p.BindGroupLayoutDescriptor(0).Entries)
	assert.ErrorIs(t, p.Register(nil), ErrNoComputeShader)
}

func TestPipelineBeforeRegister(t *testing.T) {
	p := NewPipeline("double", WithComputeShader(newDoubleShader(t)))

	assert.Equal(t, "double", p.PipelineKey())
	assert.Nil(t, p.ComputePipeline())
	assert.Nil(t, p.BindGroupLayout(0))
	assert.Nil(t, p.BindGroupLayout(-1))
	require.Len(t, p.BindGroupLayoutDescriptor(0).Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, p.BindGroupLayoutDescriptor(0).Entries[0].Buffer.Type)

	// Release before Register must be safe.
	p.Release()
}

func TestRegister(t *testing.T) {
	if os.Getenv("OXY_GPU_TESTS") != "1" {
		t.Skip("Need GPU or software adapter; set OXY_GPU_TESTS=1")
	}
	dev, err := device.NewDevice()
	require.NoError(t, err)
	defer dev.Release()

	p := NewPipeline("double", WithComputeShader(newDoubleShader(t)))
	require.NoError(t, p.Register(dev))
	defer p.Release()

	assert.NotNil(t, p.ComputePipeline())
	assert.NotNil(t, p.BindGroupLayout(0))
	assert.NoError(t, p.Register(dev))
}
