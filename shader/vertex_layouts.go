package shader

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslVertexFormatMap maps canonical WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":   {wgpu.VertexFormatFloat32, 4},
	"vec2f": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f": {wgpu.VertexFormatFloat32x4, 16},
	"i32":   {wgpu.VertexFormatSint32, 4},
	"vec2i": {wgpu.VertexFormatSint32x2, 8},
	"vec3i": {wgpu.VertexFormatSint32x3, 12},
	"vec4i": {wgpu.VertexFormatSint32x4, 16},
	"u32":   {wgpu.VertexFormatUint32, 4},
	"vec2u": {wgpu.VertexFormatUint32x2, 8},
	"vec3u": {wgpu.VertexFormatUint32x3, 12},
	"vec4u": {wgpu.VertexFormatUint32x4, 16},
	"vec2h": {wgpu.VertexFormatFloat16x2, 4},
	"vec4h": {wgpu.VertexFormatFloat16x4, 8},
}

// buildVertexBufferLayout converts the @location inputs of a vertex entry point into a
// single interleaved wgpu.VertexBufferLayout. Attributes are packed in location order
// and the array stride is the sum of their sizes. Builtin inputs are skipped. Returns
// false if there are no location inputs or an input type has no vertex format.
//
// Parameters:
//   - inputs: the entry point's inputs, with struct parameters already flattened
//
// Returns:
//   - wgpu.VertexBufferLayout: the constructed vertex buffer layout
//   - bool: false if no layout could be built
func buildVertexBufferLayout(inputs []reflection.InOutInfo) (wgpu.VertexBufferLayout, bool) {
	located := make([]reflection.InOutInfo, 0, len(inputs))
	for _, in := range inputs {
		if in.Location >= 0 {
			located = append(located, in)
		}
	}
	if len(located) == 0 {
		return wgpu.VertexBufferLayout{}, false
	}
	slices.SortFunc(located, func(a, b reflection.InOutInfo) int {
		return cmp.Compare(a.Location, b.Location)
	})

	attrs := make([]wgpu.VertexAttribute, 0, len(located))
	var offset uint64
	for _, in := range located {
		info, ok := vertexFormat(in.TypeName)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(in.Location),
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

func vertexFormat(typeName string) (vertexFormatInfo, bool) {
	in, ok := reflection.LookupIntrinsic(typeName)
	if !ok {
		return vertexFormatInfo{}, false
	}
	info, ok := wgslVertexFormatMap[in.Name]
	return info, ok
}
