// Package definitions maps reflected WGSL layouts to serializable data definitions
// and derives bind group layout descriptors from them.
package definitions

import (
	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
	"github.com/cogentcore/webgpu/wgpu"
)

// Definition is anything a typed view can be built from: a variable definition or
// any field definition.
type Definition interface {
	// Root returns the field definition describing the whole value.
	Root() FieldDefinition
}

// FieldDefinition is the byte layout of one value. It is one of
// *IntrinsicDefinition, *StructDefinition or *ArrayDefinition. Offsets are absolute
// from the start of the owning buffer.
type FieldDefinition interface {
	Definition
	ByteOffset() uint64
	ByteSize() uint64
	fieldDefinition()
}

// IntrinsicDefinition is a scalar, vector or matrix, or an array of one. For arrays
// Stride is the element stride and NumElements the element count, zero for a
// runtime-sized array.
type IntrinsicDefinition struct {
	Offset      uint64 `json:"offset" yaml:"offset"`
	Size        uint64 `json:"size" yaml:"size"`
	Type        string `json:"type" yaml:"type"`
	NumElements uint64 `json:"numElements,omitempty" yaml:"numElements,omitempty"`
	Stride      uint64 `json:"stride,omitempty" yaml:"stride,omitempty"`
}

// IsArray reports whether the definition covers an array of the intrinsic type.
func (d *IntrinsicDefinition) IsArray() bool {
	return d.Stride > 0
}

// IsRuntimeSized reports whether the definition is a runtime-sized array.
func (d *IntrinsicDefinition) IsRuntimeSized() bool {
	return d.IsArray() && d.NumElements == 0
}

// StructDefinition is a struct value. A nil entry in Fields marks a member whose
// type could not be resolved.
type StructDefinition struct {
	Name   string                     `json:"name" yaml:"name"`
	Offset uint64                     `json:"offset" yaml:"offset"`
	Size   uint64                     `json:"size" yaml:"size"`
	Fields map[string]FieldDefinition `json:"fields" yaml:"fields"`
}

// ArrayDefinition is an array of structs or of arrays. Element describes the first
// element; Elements holds one definition per element of a fixed-size array and is
// empty for a runtime-sized one.
type ArrayDefinition struct {
	Offset      uint64            `json:"offset" yaml:"offset"`
	Size        uint64            `json:"size" yaml:"size"`
	Stride      uint64            `json:"stride" yaml:"stride"`
	Align       uint64            `json:"align" yaml:"align"`
	NumElements uint64            `json:"numElements" yaml:"numElements"`
	Element     FieldDefinition   `json:"element" yaml:"element"`
	Elements    []FieldDefinition `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// IsRuntimeSized reports whether the definition is a runtime-sized array.
func (d *ArrayDefinition) IsRuntimeSized() bool {
	return d.NumElements == 0
}

func (d *IntrinsicDefinition) Root() FieldDefinition { return d }
func (d *StructDefinition) Root() FieldDefinition    { return d }
func (d *ArrayDefinition) Root() FieldDefinition     { return d }

func (d *IntrinsicDefinition) ByteOffset() uint64 { return d.Offset }
func (d *StructDefinition) ByteOffset() uint64    { return d.Offset }
func (d *ArrayDefinition) ByteOffset() uint64     { return d.Offset }

func (d *IntrinsicDefinition) ByteSize() uint64 { return d.Size }
func (d *StructDefinition) ByteSize() uint64    { return d.Size }
func (d *ArrayDefinition) ByteSize() uint64     { return d.Size }

func (*IntrinsicDefinition) fieldDefinition() {}
func (*StructDefinition) fieldDefinition()    {}
func (*ArrayDefinition) fieldDefinition()     {}

// VariableDefinition is a uniform or storage buffer variable. TypeDefinition is nil
// when the variable's type could not be resolved.
type VariableDefinition struct {
	Name           string          `json:"name" yaml:"name"`
	Group          uint32          `json:"group" yaml:"group"`
	Binding        uint32          `json:"binding" yaml:"binding"`
	Size           uint64          `json:"size" yaml:"size"`
	Access         string          `json:"access" yaml:"access"`
	Type           string          `json:"type" yaml:"type"`
	TypeDefinition FieldDefinition `json:"typeDefinition" yaml:"typeDefinition"`
}

func (v *VariableDefinition) Root() FieldDefinition {
	return v.TypeDefinition
}

// ResourceDefinition is a texture, storage texture, external texture or sampler.
// Type is the texture or sampler type name without template arguments.
type ResourceDefinition struct {
	Name    string `json:"name" yaml:"name"`
	Group   uint32 `json:"group" yaml:"group"`
	Binding uint32 `json:"binding" yaml:"binding"`
	Type    string `json:"type" yaml:"type"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Access  string `json:"access,omitempty" yaml:"access,omitempty"`
}

// ResourceUsage names a bound resource used by an entry point.
type ResourceUsage struct {
	Name    string `json:"name" yaml:"name"`
	Group   uint32 `json:"group" yaml:"group"`
	Binding uint32 `json:"binding" yaml:"binding"`
	Kind    string `json:"kind" yaml:"kind"`
}

// EntryPointDefinition describes one entry point and the resources it reaches.
type EntryPointDefinition struct {
	Name          string                 `json:"name" yaml:"name"`
	Stage         wgpu.ShaderStage       `json:"stage" yaml:"stage"`
	Resources     []ResourceUsage        `json:"resources" yaml:"resources"`
	WorkgroupSize [3]uint32              `json:"workgroupSize" yaml:"workgroupSize,flow"`
	Inputs        []reflection.InOutInfo `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs       []reflection.InOutInfo `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// ShaderDataDefinitions is the full data description of one shader module, keyed
// by declared name.
type ShaderDataDefinitions struct {
	Uniforms         map[string]*VariableDefinition   `json:"uniforms" yaml:"uniforms"`
	Storages         map[string]*VariableDefinition   `json:"storages" yaml:"storages"`
	Samplers         map[string]*ResourceDefinition   `json:"samplers" yaml:"samplers"`
	Textures         map[string]*ResourceDefinition   `json:"textures" yaml:"textures"`
	StorageTextures  map[string]*ResourceDefinition   `json:"storageTextures" yaml:"storageTextures"`
	ExternalTextures map[string]*ResourceDefinition   `json:"externalTextures" yaml:"externalTextures"`
	Structs          map[string]*StructDefinition     `json:"structs" yaml:"structs"`
	EntryPoints      map[string]*EntryPointDefinition `json:"entryPoints" yaml:"entryPoints"`
}
