package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/definitions"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litSource = `//@oxy:include camera
//@oxy:group 0 0 storage_uniform camera camera

//@oxy:provider 1 0 material diffuse_texture
@group(1) @binding(0) var diffuse: texture_2d<f32>;
//@oxy:provider 1 1 material diffuse_sampler
@group(1) @binding(1) var diffuseSampler: sampler;

struct VertexInput {
  @location(1) uv: vec2f,
  @location(0) position: vec3f,
  @builtin(vertex_index) index: u32,
};

struct VertexOutput {
  @builtin(position) clip: vec4f,
  @location(0) uv: vec2f,
};

@vertex
fn vs_main(in: VertexInput, @location(2) color: vec4<f32>) -> VertexOutput {
  var out: VertexOutput;
  out.clip = camera.viewProj * vec4f(in.position, 1.0);
  out.uv = in.uv;
  return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4f {
  return textureSample(diffuse, diffuseSampler, in.uv);
}
`

const cullSource = `struct Params {
  count: u32,
};
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> visible: array<u32>;

@compute @workgroup_size(64, 2)
fn cull(@builtin(global_invocation_id) id: vec3u) {
  if (id.x < params.count) {
    visible[id.x] = 1u;
  }
}
`

func TestNewShaderRenderPipeline(t *testing.T) {
	s, err := NewShader("lit", WithSource(litSource), WithIncludes(testIncludes(t)))
	require.NoError(t, err)

	assert.Equal(t, "lit", s.Key())
	assert.Contains(t, s.Source(), "struct CameraUniform")
	assert.Equal(t, "lit", s.Module().Label)
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)

	vs, ok := s.EntryPoint(wgpu.ShaderStageVertex)
	require.True(t, ok)
	assert.Equal(t, "vs_main", vs)
	fs, ok := s.EntryPoint(wgpu.ShaderStageFragment)
	require.True(t, ok)
	assert.Equal(t, "fs_main", fs)
	_, ok = s.EntryPoint(wgpu.ShaderStageCompute)
	assert.False(t, ok)
	assert.Equal(t, [3]uint32{}, s.WorkgroupSize())

	cam, ok := s.Definitions().Uniforms["camera"]
	require.True(t, ok)
	assert.Equal(t, "CameraUniform", cam.Type)
	assert.Equal(t, uint64(80), cam.Size)

	assert.Equal(t, "diffuseSampler", s.BindGroupVarName(1, 1))
	assert.Equal(t, "", s.BindGroupVarName(3, 0))
	binding, ok := s.BindGroupFromVarName(1, "diffuse")
	require.True(t, ok)
	assert.Equal(t, 0, binding)
	_, ok = s.BindGroupFromVarName(0, "diffuse")
	assert.False(t, ok)

	require.Len(t, s.Declarations(), 3)
}

func TestShaderVertexLayouts(t *testing.T) {
	s, err := NewShader("lit", WithSource(litSource), WithIncludes(testIncludes(t)))
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	layout := layouts[0]
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, uint64(12+8+16), layout.ArrayStride)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
	}, layout.Attributes)
}

func TestShaderBindGroupLayouts(t *testing.T) {
	s, err := NewShader("lit", WithSource(litSource), WithIncludes(testIncludes(t)))
	require.NoError(t, err)

	layouts, err := s.BindGroupLayoutDescriptors(definitions.PipelineDescriptor{
		Vertex:   &definitions.ProgrammableStage{},
		Fragment: &definitions.ProgrammableStage{},
	})
	require.NoError(t, err)
	require.Len(t, layouts, 2)

	require.Len(t, layouts[0].Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex, layouts[0].Entries[0].Visibility)
	assert.Equal(t, uint64(80), layouts[0].Entries[0].Buffer.MinBindingSize)

	require.Len(t, layouts[1].Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, layouts[1].Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, layouts[1].Entries[1].Sampler.Type)
}

func TestShaderComputeFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cull.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(cullSource), 0o644))

	s, err := NewShader("cull", WithSourceFromPath(path))
	require.NoError(t, err)

	cs, ok := s.EntryPoint(wgpu.ShaderStageCompute)
	require.True(t, ok)
	assert.Equal(t, "cull", cs)
	assert.Equal(t, [3]uint32{64, 2, 1}, s.WorkgroupSize())
	assert.Empty(t, s.VertexLayouts())
	assert.Empty(t, s.Declarations())
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty")
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = NewShader("missing", WithSourceFromPath(filepath.Join(t.TempDir(), "missing.wgsl")))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewShader("broken", WithSource("struct S { a: f32 "))
	assert.ErrorIs(t, err, wgsl.ErrParse)

	_, err = NewShader("include", WithSource("//@oxy:include camera"))
	assert.ErrorIs(t, err, ErrAnnotation)
}
