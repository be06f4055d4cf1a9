package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cameraInclude = `struct CameraUniform {
  viewProj: mat4x4f,
  position: vec3f,
};`

const lightInclude = `struct Light {
  color: vec3f,
  intensity: f32,
};`

func testIncludes(t *testing.T) Includes {
	t.Helper()
	includes, err := IncludesFromFS(fstest.MapFS{
		"assets/camera.wgsl": {Data: []byte(cameraInclude)},
		"assets/light.wgsl":  {Data: []byte(lightInclude)},
		"assets/readme.txt":  {Data: []byte("not a shader")},
	}, "assets")
	require.NoError(t, err)
	return includes
}

func TestIncludesFromFS(t *testing.T) {
	includes := testIncludes(t)
	require.Len(t, includes, 2)
	assert.Equal(t, Include{Source: cameraInclude, Type: "CameraUniform"}, includes["camera"])
	assert.Equal(t, "Light", includes["light"].Type)

	_, err := IncludesFromFS(fstest.MapFS{
		"bad/consts.wgsl": {Data: []byte("const x = 1;")},
	}, "bad")
	assert.Error(t, err)
}

func TestPreProcessorProcess(t *testing.T) {
	pp := NewPreProcessor(testIncludes(t))
	out, err := pp.Process(strings.Join([]string{
		"//@oxy:include camera",
		"//@oxy:include light",
		"//@oxy:include camera",
		"//@oxy:group 0 0 storage_uniform camera camera",
		"//@oxy:group 1 0 storage_read lights array<light>",
		"//@oxy:provider 2 0 material diffuse_texture",
		"@group(2) @binding(0) var diffuse: texture_2d<f32>;",
	}, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, out, "@group(1) @binding(0) var<storage, read> lights: array<Light>;")
	assert.Contains(t, out, "//@oxy:provider 2 0 material diffuse_texture")

	decls := pp.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 4, decls[0].Line)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[1].Type)
	assert.Equal(t, AnnotationTypeProvider, decls[2].Type)
	assert.Equal(t, 2, *decls[2].Group)
}

func TestPreProcessorErrors(t *testing.T) {
	pp := NewPreProcessor(testIncludes(t))

	_, err := pp.Process("//@oxy:include shadow")
	assert.ErrorIs(t, err, ErrAnnotation)

	_, err = pp.Process("//@oxy:group 0 0 storage_uniform s array<shadow>")
	assert.ErrorIs(t, err, ErrAnnotation)

	_, err = pp.Process("//@oxy:group 0 0")
	assert.ErrorIs(t, err, ErrAnnotation)
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor(testIncludes(t))
	_, err := pp.Process("//@oxy:provider 0 0 material")
	require.NoError(t, err)
	first := pp.Declarations()
	require.Len(t, first, 1)

	_, err = pp.Process("struct S { a: f32 };")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
	assert.Len(t, first, 1)
}
