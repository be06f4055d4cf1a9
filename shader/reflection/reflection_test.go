package reflection

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsicTable(t *testing.T) {
	tests := []struct {
		name  string
		size  uint64
		align uint64
	}{
		{"i32", 4, 4},
		{"u32", 4, 4},
		{"f32", 4, 4},
		{"f16", 2, 2},
		{"bool", 4, 4},
		{"vec2f", 8, 8},
		{"vec2<f32>", 8, 8},
		{"vec3f", 12, 16},
		{"vec3<i32>", 12, 16},
		{"vec4u", 16, 16},
		{"vec2h", 4, 4},
		{"vec3h", 6, 8},
		{"vec4<f16>", 8, 8},
		{"mat2x2f", 16, 8},
		{"mat2x3f", 32, 16},
		{"mat3x2<f32>", 24, 8},
		{"mat3x3f", 48, 16},
		{"mat4x3f", 64, 16},
		{"mat4x4<f32>", 64, 16},
		{"mat4x4h", 32, 8},
		{"mat3x3h", 24, 8},
		{"atomic<u32>", 4, 4},
		{"atomic<i32>", 4, 4},
		{"float32", 4, 4},
		{"int32", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := LookupIntrinsic(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.size, info.Size, "size")
			assert.Equal(t, tt.align, info.Align, "align")
		})
	}

	short, _ := LookupIntrinsic("vec3f")
	long, _ := LookupIntrinsic("vec3<f32>")
	assert.Equal(t, short, long)
	assert.Equal(t, "vec3f", long.Name)

	_, ok := LookupIntrinsic("vec5f")
	assert.False(t, ok)
}

func TestStructLayout(t *testing.T) {
	refl, err := ReflectSource(`struct S { foo: u32, bar: f32, moo: vec3<f32>, mrp: i32 }`)
	require.NoError(t, err)

	s, ok := refl.GetStructInfo("S")
	require.True(t, ok)

	offsets := map[string]uint64{}
	for _, m := range s.Members {
		offsets[m.Name] = m.Offset
	}
	assert.Equal(t, map[string]uint64{"foo": 0, "bar": 4, "moo": 16, "mrp": 28}, offsets)
	assert.Equal(t, uint64(32), s.Size)
	assert.Equal(t, uint64(16), s.Align)
}

func TestStructLayoutAttributesAndNesting(t *testing.T) {
	refl, err := ReflectSource(`
alias Color = vec4f;
struct Inner {
  a: vec3f,
  b: f32,
}
struct Outer {
  x: f32,
  inner: Inner,
  @size(32) padded: u32,
  @align(64) aligned: f32,
  lights: array<Inner, 3>,
  tint: Color,
}`)
	require.NoError(t, err)

	inner, ok := refl.GetStructInfo("Inner")
	require.True(t, ok)
	assert.Equal(t, uint64(16), inner.Size)

	outer, ok := refl.GetStructInfo("Outer")
	require.True(t, ok)

	want := []struct {
		name   string
		offset uint64
		size   uint64
	}{
		{"x", 0, 4},
		{"inner", 16, 16},
		{"padded", 32, 32},
		{"aligned", 64, 4},
		{"lights", 80, 48},
		{"tint", 128, 16},
	}
	require.Len(t, outer.Members, len(want))
	for i, w := range want {
		m := outer.Members[i]
		assert.Equal(t, w.name, m.Name)
		assert.Equal(t, w.offset, m.Offset, w.name)
		assert.Equal(t, w.size, m.Size, w.name)
	}
	assert.Equal(t, uint64(64), outer.Align)
	assert.Equal(t, uint64(192), outer.Size)

	lights := outer.Members[4]
	assert.True(t, lights.IsArray())
	assert.Equal(t, uint64(3), lights.ArrayCount())
	assert.Equal(t, uint64(16), lights.ArrayStride())
	assert.Equal(t, "Inner", lights.Format())
	assert.Len(t, lights.Members(), 2)

	tint := outer.Members[5]
	assert.Equal(t, "vec4f", tint.Format())
	assert.True(t, outer.Members[1].IsStruct())
}

func TestArrayLayout(t *testing.T) {
	refl, err := ReflectSource(`
const COUNT = 2u;
override LIGHTS: u32 = 4;
struct A {
  v: array<vec3f, 5>,
  s: @stride(32) array<f32, 2>,
  c: array<f32, COUNT * 2>,
  o: array<vec2f, LIGHTS>,
  rest: array<vec4f>,
}`)
	require.NoError(t, err)

	a, ok := refl.GetStructInfo("A")
	require.True(t, ok)

	v, _ := a.Member("v")
	assert.Equal(t, uint64(80), v.Size)
	assert.Equal(t, uint64(16), v.ArrayStride())

	s, _ := a.Member("s")
	assert.Equal(t, uint64(64), s.Size)
	assert.Equal(t, uint64(32), s.ArrayStride())

	c, _ := a.Member("c")
	assert.Equal(t, uint64(4), c.ArrayCount())
	assert.Equal(t, uint64(16), c.Size)

	o, _ := a.Member("o")
	assert.Equal(t, uint64(4), o.ArrayCount())

	rest, _ := a.Member("rest")
	assert.True(t, rest.Type.IsRuntimeSized())
	assert.Equal(t, uint64(0), rest.Size)
	assert.Equal(t, uint64(192), rest.Offset)
}

func TestArrayLayoutWithConstants(t *testing.T) {
	source := `override N: u32; struct B { items: array<u32, N> }`

	refl, err := ReflectSource(source)
	require.NoError(t, err)
	b, _ := refl.GetStructInfo("B")
	assert.False(t, b.Members[0].Resolved())

	refl, err = ReflectSource(source, WithConstants(map[string]int64{"N": 8}))
	require.NoError(t, err)
	b, _ = refl.GetStructInfo("B")
	require.True(t, b.Members[0].Resolved())
	assert.Equal(t, uint64(32), b.Size)
}

func TestLayoutAttributesWithConstants(t *testing.T) {
	refl, err := ReflectSource(`
const PAD = 16;
const WIDE = PAD * 2u;
struct S {
  @size(PAD) a: f32,
  b: f32,
  @align(WIDE) c: f32,
}
struct T {
  items: @stride(PAD) array<f32, 3>,
}`)
	require.NoError(t, err)

	s, ok := refl.GetStructInfo("S")
	require.True(t, ok)
	a, _ := s.Member("a")
	assert.Equal(t, uint64(16), a.Size)
	b, _ := s.Member("b")
	assert.Equal(t, uint64(16), b.Offset)
	c, _ := s.Member("c")
	assert.Equal(t, uint64(32), c.Offset)
	assert.Equal(t, uint64(32), s.Align)
	assert.Equal(t, uint64(64), s.Size)

	tt, ok := refl.GetStructInfo("T")
	require.True(t, ok)
	assert.Equal(t, uint64(16), tt.Members[0].Type.Stride)
	assert.Equal(t, uint64(48), tt.Size)
}

func TestUnfoldableLayoutAttribute(t *testing.T) {
	refl, err := ReflectSource(`
override PAD: u32;
struct S {
  @size(PAD) a: f32,
  b: f32,
}`)
	require.NoError(t, err)
	s, ok := refl.GetStructInfo("S")
	require.True(t, ok)
	a, _ := s.Member("a")
	assert.False(t, a.Resolved())
	b, _ := s.Member("b")
	assert.True(t, b.Resolved())
}

func TestInvalidBindings(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"negative group", "@group(-1) @binding(0) var<uniform> u: f32;"},
		{"negative binding", "@group(0) @binding(-1) var s: sampler;"},
		{"huge group", "@group(4294967295) @binding(0) var<uniform> u: f32;"},
		{"not constant", "override G: u32;\n@group(G) @binding(0) var<uniform> u: f32;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReflectSource(tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidBinding)
		})
	}

	refl, err := ReflectSource("const G = 3;\n@group(G) @binding(G + 1) var<uniform> u: f32;")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), refl.Uniforms[0].Group)
	assert.Equal(t, uint32(4), refl.Uniforms[0].Binding)
}

func TestConstantLocations(t *testing.T) {
	refl, err := ReflectSource(`
const UV = 3;
@vertex
fn vs(@location(UV) uv: vec2f, @location(0) p: vec3f) -> @builtin(position) vec4f {
  return vec4f(p, uv.x);
}`)
	require.NoError(t, err)
	require.Len(t, refl.EntryPoints.Vertex, 1)
	inputs := refl.EntryPoints.Vertex[0].Inputs
	require.Len(t, inputs, 2)
	assert.Equal(t, 3, inputs[0].Location)
	assert.Equal(t, 0, inputs[1].Location)
}

func TestUnresolvedTypes(t *testing.T) {
	refl, err := ReflectSource(`
struct Partial {
  a: f32,
  ext: ExternalThing,
  b: vec4f,
}
@group(0) @binding(0) var<uniform> u: Missing;`)
	require.NoError(t, err)

	p, ok := refl.GetStructInfo("Partial")
	require.True(t, ok)
	ext, _ := p.Member("ext")
	assert.False(t, ext.Resolved())
	assert.Nil(t, ext.Type)
	assert.Equal(t, "ExternalThing", ext.Format())

	b, _ := p.Member("b")
	assert.Equal(t, uint64(16), b.Offset)

	require.Len(t, refl.Uniforms, 1)
	assert.Nil(t, refl.Uniforms[0].TypeInfo)

	_, ok = refl.GetStructInfo("Missing")
	assert.False(t, ok)
}

func TestDuplicateDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"struct twice", "struct A { x: f32 }\nstruct A { y: f32 }"},
		{"alias shadows struct", "struct A { x: f32 }\nalias A = f32;"},
		{"var and const", "const x = 1;\nvar<private> x: f32;"},
		{"function twice", "fn f() {}\nfn f() {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReflectSource(tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateDeclaration))
		})
	}
}

func TestResourceClassification(t *testing.T) {
	refl, err := ReflectSource(`
struct Camera { viewProj: mat4x4f }
@group(4) @binding(1) var<uniform> uni1: f32;
@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(2) var<storage> ro: array<f32>;
@group(0) @binding(3) var<storage, read_write> rw: array<u32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var smp: sampler;
@group(1) @binding(3) var img: texture_storage_2d<rgba8unorm, write>;
@group(2) @binding(0) var video: texture_external;
var<private> scratch: f32;
var<workgroup> tile: array<f32, 64>;`)
	require.NoError(t, err)

	require.Len(t, refl.Uniforms, 2)
	uni := refl.Uniforms[0]
	assert.Equal(t, "uni1", uni.Name)
	assert.Equal(t, uint32(4), uni.Group)
	assert.Equal(t, uint32(1), uni.Binding)
	assert.Equal(t, uint64(4), uni.TypeInfo.Size)

	require.Len(t, refl.Storage, 2)
	assert.Equal(t, "read", refl.Storage[0].Access)
	assert.Equal(t, "read_write", refl.Storage[1].Access)

	require.Len(t, refl.Textures, 1)
	assert.Equal(t, "f32", refl.Textures[0].Format)
	assert.Equal(t, "texture_2d", refl.Textures[0].TextureName())
	require.Len(t, refl.Samplers, 1)
	require.Len(t, refl.StorageTextures, 1)
	assert.Equal(t, "rgba8unorm", refl.StorageTextures[0].Format)
	assert.Equal(t, "write", refl.StorageTextures[0].Access)
	require.Len(t, refl.ExternalTextures, 1)

	assert.Len(t, refl.Resources(), 8)
}

func TestGetBindGroups(t *testing.T) {
	refl, err := ReflectSource(`
@group(0) @binding(0) var<uniform> a: f32;
@group(0) @binding(2) var<uniform> b: f32;
@group(2) @binding(1) var s: sampler;
@binding(3) var<uniform> c: f32;`)
	require.NoError(t, err)

	groups := refl.GetBindGroups()
	require.Len(t, groups, 3)

	require.Len(t, groups[0], 4)
	assert.Equal(t, "a", groups[0][0].Name)
	assert.Nil(t, groups[0][1])
	assert.Equal(t, "b", groups[0][2].Name)
	assert.Equal(t, "c", groups[0][3].Name)

	assert.Nil(t, groups[1])

	require.Len(t, groups[2], 2)
	assert.Nil(t, groups[2][0])
	assert.Equal(t, "s", groups[2][1].Name)
}

func TestEntryPoints(t *testing.T) {
	refl, err := ReflectSource(`
const TILE = 8u;
struct VertexIn {
  @location(0) position: vec3f,
  @location(1) @interpolate(flat) id: u32,
}
struct VertexOut {
  @builtin(position) position: vec4f,
  @location(0) color: vec4f,
}
@group(0) @binding(0) var<uniform> camera: mat4x4f;
@group(0) @binding(1) var<uniform> tint: vec4f;
@group(0) @binding(2) var<storage, read_write> data: array<f32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var smp: sampler;

fn project(p: vec3f) -> vec4f {
  return camera * vec4f(p, 1.0);
}

fn shade(uv: vec2f) -> vec4f {
  return textureSample(tex, smp, uv) * tint;
}

@vertex
fn vs(in: VertexIn, @builtin(vertex_index) vi: u32) -> VertexOut {
  var out: VertexOut;
  out.position = project(in.position);
  return out;
}

@fragment
fn fs(@location(0) color: vec4f) -> @location(0) vec4f {
  let tint = color;
  return shade(tint.xy);
}

@compute @workgroup_size(TILE, TILE / 2)
fn cs(@builtin(global_invocation_id) id: vec3u) {
  data[id.x] = data[id.x] * 2.0;
}`)
	require.NoError(t, err)

	require.Len(t, refl.Functions, 5)
	require.Len(t, refl.EntryPoints.Vertex, 1)
	require.Len(t, refl.EntryPoints.Fragment, 1)
	require.Len(t, refl.EntryPoints.Compute, 1)

	project, ok := refl.FindFunction("project")
	require.True(t, ok)
	assert.False(t, project.IsEntryPoint())

	vs := refl.EntryPoints.Vertex[0]
	assert.Equal(t, wgpu.ShaderStageVertex, vs.Stage)
	require.Len(t, vs.Inputs, 3)
	assert.Equal(t, InOutInfo{Name: "position", TypeName: "vec3f", Location: 0}, vs.Inputs[0])
	assert.Equal(t, "flat", vs.Inputs[1].Interpolation)
	assert.Equal(t, "vertex_index", vs.Inputs[2].Builtin)
	assert.Equal(t, -1, vs.Inputs[2].Location)
	require.Len(t, vs.Outputs, 2)
	assert.Equal(t, "position", vs.Outputs[0].Builtin)
	assert.Equal(t, []string{"project"}, vs.Calls)
	assert.Equal(t, []string{"camera"}, resourceNames(vs.Resources))

	fs := refl.EntryPoints.Fragment[0]
	require.Len(t, fs.Outputs, 1)
	assert.Equal(t, 0, fs.Outputs[0].Location)
	// the local "tint" shadows the uniform only inside fs; shade still reads it
	assert.Equal(t, []string{"tint", "tex", "smp"}, resourceNames(fs.Resources))

	cs := refl.EntryPoints.Compute[0]
	assert.Equal(t, wgpu.ShaderStageCompute, cs.Stage)
	assert.Equal(t, [3]uint32{8, 4, 1}, cs.WorkgroupSize)
	assert.Equal(t, []string{"data"}, resourceNames(cs.Resources))
}

func TestLocalShadowing(t *testing.T) {
	refl, err := ReflectSource(`
@group(0) @binding(0) var<uniform> scale: f32;
@compute @workgroup_size(1)
fn main() {
  {
    let scale = 2.0;
    _ = scale;
  }
}`)
	require.NoError(t, err)
	assert.Empty(t, refl.EntryPoints.Compute[0].Resources)
}

func TestReflectionIsDeterministic(t *testing.T) {
	source := `
struct Light { position: vec3f, intensity: f32, color: vec3f }
struct Scene { ambient: vec4f, lights: array<Light, 4>, count: u32 }`

	first, err := ReflectSource(source)
	require.NoError(t, err)
	second, err := ReflectSource(source)
	require.NoError(t, err)

	require.Equal(t, len(first.Structs), len(second.Structs))
	for i := range first.Structs {
		a, b := first.Structs[i], second.Structs[i]
		assert.Equal(t, a.Size, b.Size)
		assert.Equal(t, a.Align, b.Align)
		for j := range a.Members {
			assert.Equal(t, a.Members[j].Offset, b.Members[j].Offset)
			assert.Equal(t, a.Members[j].Size, b.Members[j].Size)
			assert.Equal(t, a.Members[j].Align, b.Members[j].Align)
		}
	}
}

func resourceNames(vars []*VariableInfo) []string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Name)
	}
	return names
}
