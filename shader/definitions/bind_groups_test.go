package definitions

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bindGroupSource = `
struct Camera {
  viewProj: mat4x4f,
};

@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(2) var tex: texture_2d<f32>;
@group(0) @binding(1) var smp: sampler;

@group(2) @binding(0) var<storage, read_write> particles: array<vec4f>;
@group(2) @binding(1) var depth: texture_depth_2d;
@group(2) @binding(2) var dst: texture_storage_2d<rgba8unorm, write>;
@group(2) @binding(3) var shadowSmp: sampler_comparison;

@vertex
fn vs(@location(0) pos: vec3f) -> @builtin(position) vec4f {
  return camera.viewProj * vec4f(pos, 1.0);
}

@fragment
fn fs() -> @location(0) vec4f {
  return camera.viewProj[0] * textureSample(tex, smp, vec2f(0.0, 0.0));
}

@compute @workgroup_size(64)
fn cs() {
  let d = textureSampleCompareLevel(depth, shadowSmp, vec2f(0.0, 0.0), 0.5);
  particles[0] = vec4f(d);
  textureStore(dst, vec2i(0, 0), vec4f(1.0));
}
`

func TestBindGroupLayoutsRenderPipeline(t *testing.T) {
	defs, err := MakeShaderDataDefinitions(bindGroupSource)
	require.NoError(t, err)

	layouts, err := MakeBindGroupLayoutDescriptors(defs, PipelineDescriptor{
		Vertex:   &ProgrammableStage{},
		Fragment: &ProgrammableStage{EntryPoint: "fs"},
	})
	require.NoError(t, err)
	require.Len(t, layouts, 1)

	entries := layouts[0].Entries
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, uint32(i), entry.Binding, "entries sorted by binding")
	}

	camera := entries[0]
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, camera.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, camera.Buffer.Type)
	assert.Equal(t, uint64(64), camera.Buffer.MinBindingSize)

	smp := entries[1]
	assert.Equal(t, wgpu.ShaderStageFragment, smp.Visibility)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, smp.Sampler.Type)

	tex := entries[2]
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.Texture.ViewDimension)
	assert.False(t, tex.Texture.Multisampled)
}

func TestBindGroupLayoutsComputePipeline(t *testing.T) {
	defs, err := MakeShaderDataDefinitions(bindGroupSource)
	require.NoError(t, err)

	layouts, err := MakeBindGroupLayoutDescriptors(defs, PipelineDescriptor{
		Compute: &ProgrammableStage{EntryPoint: "cs"},
	})
	require.NoError(t, err)
	require.Len(t, layouts, 3)
	assert.Empty(t, layouts[0].Entries)
	assert.Empty(t, layouts[1].Entries)

	entries := layouts[2].Entries
	require.Len(t, entries, 4)
	for _, entry := range entries {
		assert.Equal(t, wgpu.ShaderStageCompute, entry.Visibility)
	}

	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[0].Buffer.Type)
	assert.Equal(t, uint64(16), entries[0].Buffer.MinBindingSize)

	assert.Equal(t, wgpu.TextureSampleTypeDepth, entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[1].Texture.ViewDimension)

	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, entries[2].StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, entries[2].StorageTexture.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[2].StorageTexture.ViewDimension)

	assert.Equal(t, wgpu.SamplerBindingTypeComparison, entries[3].Sampler.Type)
}

func TestBindGroupLayoutsStorageAccess(t *testing.T) {
	defs, err := MakeShaderDataDefinitions(`
struct Buf {
  count: u32,
  items: array<vec4f>,
};
@group(0) @binding(0) var<storage> src: Buf;
@group(0) @binding(1) var<storage, read_write> dst: Buf;

@compute @workgroup_size(1)
fn main() {
  dst.items[0] = src.items[src.count];
}
`)
	require.NoError(t, err)

	layouts, err := MakeBindGroupLayoutDescriptors(defs, PipelineDescriptor{Compute: &ProgrammableStage{}})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0].Entries, 2)

	src, dst := layouts[0].Entries[0], layouts[0].Entries[1]
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, src.Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, dst.Buffer.Type)
	assert.Equal(t, uint64(32), src.Buffer.MinBindingSize)
	assert.Equal(t, uint64(32), dst.Buffer.MinBindingSize)
}

func TestBindGroupLayoutsEntryPointErrors(t *testing.T) {
	defs, err := MakeShaderDataDefinitions(`
@compute @workgroup_size(1) fn a() {}
@compute @workgroup_size(1) fn b() {}
@fragment fn f() -> @location(0) vec4f { return vec4f(1.0); }
`)
	require.NoError(t, err)

	tests := []struct {
		name    string
		desc    PipelineDescriptor
		wantErr error
	}{
		{"ambiguous", PipelineDescriptor{Compute: &ProgrammableStage{}}, ErrAmbiguousEntryPoint},
		{"missing stage", PipelineDescriptor{Vertex: &ProgrammableStage{}}, ErrNoEntryPoint},
		{"wrong stage", PipelineDescriptor{Vertex: &ProgrammableStage{EntryPoint: "a"}}, ErrNoEntryPoint},
		{"unknown name", PipelineDescriptor{Compute: &ProgrammableStage{EntryPoint: "c"}}, ErrNoEntryPoint},
		{"named", PipelineDescriptor{Compute: &ProgrammableStage{EntryPoint: "b"}}, nil},
		{"single", PipelineDescriptor{Fragment: &ProgrammableStage{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layouts, err := MakeBindGroupLayoutDescriptors(defs, tt.desc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, layouts)
		})
	}
}
