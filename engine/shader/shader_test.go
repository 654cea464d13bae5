package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiplySource = `//@oxy:include multiply_params
//@oxy:group 0 0 storage_read_write data array<u32>
//@oxy:group 0 1 storage_uniform params multiply_params

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
	let idx = id.x;
	if (idx >= params.count) {
		return;
	}
	data[idx] = data[idx] * params.factor;
}
`

func TestNewShader_Multiply(t *testing.T) {
	s, err := NewShader("multiply", ShaderTypeCompute, WithSource(multiplySource))
	require.NoError(t, err)

	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Contains(t, s.Source(), "struct MultiplyParams")
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<storage, read_write> data: array<u32>;")
	assert.Contains(t, s.Source(), "@group(0) @binding(1) var<uniform> params: MultiplyParams;")
	assert.Equal(t, "multiply", s.Module().Label)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)
	assert.Equal(t, uint32(0), desc.Entries[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, desc.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(4), desc.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageCompute, desc.Entries[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[1].Buffer.Type)
	assert.Equal(t, uint64(8), desc.Entries[1].Buffer.MinBindingSize)

	assert.Equal(t, "data", s.BindGroupVarName(0, 0))
	binding, ok := s.BindGroupFromVarName(0, "params")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
	_, ok = s.BindGroupFromVarName(3, "params")
	assert.False(t, ok)

	decls := s.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 0, *decls[0].Binding)
	assert.Equal(t, AnnotationArg("array<u32>"), decls[0].Args[2])
}

func TestNewShader_Errors(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeCompute)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewShader("no-entry", ShaderTypeCompute, WithSource("fn helper() {}"))
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShader("bad-annotation", ShaderTypeCompute, WithSource("//@oxy:include nope\n@compute @workgroup_size(1) fn main() {}"))
	assert.Error(t, err)

	_, err = NewShader("missing-file", ShaderTypeCompute, WithSourceFromPath(filepath.Join(t.TempDir(), "missing.wgsl")))
	assert.Error(t, err)
}

func TestNewShader_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multiply.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(multiplySource), 0o644))

	s, err := NewShader("multiply", ShaderTypeCompute, WithSourceFromPath(path))
	require.NoError(t, err)
	assert.Equal(t, "main", s.EntryPoint())
}

func TestParseWorkgroupSize(t *testing.T) {
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("fn main() {}"))
	assert.Equal(t, [3]uint32{8, 8, 1}, parseWorkgroupSize("@compute @workgroup_size(8, 8) fn main() {}"))
	assert.Equal(t, [3]uint32{4, 2, 3}, parseWorkgroupSize("@compute @workgroup_size(4,2,3) fn main() {}"))
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("// @workgroup_size(64)\nfn main() {}"))
}

func TestComputeStructSizes(t *testing.T) {
	src := `
struct DataPair { a: u32, b: u32, }
struct Padded { v: vec3<f32>, s: u32, t: u32, }
struct Outer { header: u32, pairs: array<DataPair, 4>, }
struct Tail { count: u32, values: array<vec4<f32>>, }
`
	sizes := computeStructSizes(parseStructBlocks(stripComments(src)))

	assert.Equal(t, wgslTypeLayout{8, 4}, sizes["DataPair"])
	assert.Equal(t, wgslTypeLayout{32, 16}, sizes["Padded"])
	assert.Equal(t, wgslTypeLayout{36, 4}, sizes["Outer"])
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Tail"])
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"DataPair": {8, 4}}

	layout, ok := resolveTypeLayout("array<DataPair>", known)
	assert.True(t, ok)
	assert.Equal(t, uint64(8), layout.size)

	layout, ok = resolveTypeLayout("array<vec3<f32>, 2>", known)
	assert.True(t, ok)
	assert.Equal(t, uint64(32), layout.size)

	_, ok = resolveTypeLayout("Unknown", known)
	assert.False(t, ok)
}

func TestClassifyResource(t *testing.T) {
	e := classifyResource(2, wgpu.ShaderStageCompute, "storage, read", "array<u32>")
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)

	e = classifyResource(0, wgpu.ShaderStageCompute, "", "texture_storage_2d<rgba8unorm, write>")
	assert.Equal(t, wgpu.TextureViewDimension2D, e.StorageTexture.ViewDimension)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, e.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, e.StorageTexture.Access)

	e = classifyResource(1, wgpu.ShaderStageCompute, "uniform", "MultiplyParams")
	assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type)

	e = classifyResource(3, wgpu.ShaderStageCompute, "storage, read_write", "array<u32>")
	assert.Equal(t, wgpu.BufferBindingTypeStorage, e.Buffer.Type)

	// Sampled textures and samplers are not classified.
	e = classifyResource(1, wgpu.ShaderStageCompute, "", "texture_2d<u32>")
	assert.Equal(t, wgpu.TextureSampleTypeUndefined, e.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimensionUndefined, e.StorageTexture.ViewDimension)
	e = classifyResource(2, wgpu.ShaderStageCompute, "", "sampler")
	assert.Equal(t, wgpu.SamplerBindingTypeUndefined, e.Sampler.Type)
}

func TestParseEntryPoint(t *testing.T) {
	src := "// @compute fn commented() {}\n@compute @workgroup_size(64)\nfn main(@builtin(global_invocation_id) id: vec3<u32>) {}"
	assert.Equal(t, "main", parseEntryPoint(src, ShaderTypeCompute))
	assert.Equal(t, "", parseEntryPoint("fn helper() {}", ShaderTypeCompute))
	assert.Equal(t, "", parseEntryPoint(src, ShaderType(99)))
}

func TestStripComments(t *testing.T) {
	src := "a /* one /* nested */ still */ b // tail\nc"
	assert.Equal(t, "a  b \nc\n", stripComments(src))
}

func TestSplitAtTopLevelCommas(t *testing.T) {
	parts := splitAtTopLevelCommas("a: u32, b: array<u32, 4>, c: f32")
	assert.Equal(t, []string{"a: u32", " b: array<u32, 4>", " c: f32"}, parts)
}

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("fn main() {}", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("//@oxy:include multiply_params", 3)
	require.NoError(t, err)
	assert.Equal(t, annotationTypeInclude, a.Type)
	assert.Equal(t, 3, a.Line)
	assert.Nil(t, a.Group)

	a, err = parseAnnotation("  //@oxy:group 1 2 storage_read params array<multiply_params>", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, *a.Group)
	assert.Equal(t, 2, *a.Binding)

	bad := []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:include u32",
		"//@oxy:group x 0 storage_read v u32",
		"//@oxy:group 0 y storage_read v u32",
		"//@oxy:group 0 0 private v u32",
		"//@oxy:group 0 0 storage_read v vec4",
		"//@oxy:group 0 0 storage_read v array<mat4>",
		"//@oxy:provider 0 0 camera",
	}
	for _, line := range bad {
		_, err := parseAnnotation(line, 1)
		assert.Error(t, err, line)
	}
}

func TestPreProcessor_ResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:group 0 0 storage_read_write data array<u32>")
	require.NoError(t, err)
	assert.Len(t, pp.Declarations(), 1)

	out, err := pp.Process("//@oxy:include multiply_params")
	require.NoError(t, err)
	assert.Contains(t, out, "struct MultiplyParams")
	assert.Empty(t, pp.Declarations())
}
