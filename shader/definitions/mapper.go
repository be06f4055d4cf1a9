package definitions

import (
	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
)

// MakeShaderDataDefinitions parses and reflects WGSL source and returns the data
// definitions of its structs, resources and entry points.
//
// Parameters:
//   - code: the WGSL source text
//   - opts: reflector options, such as a debug logger
//
// Returns:
//   - *ShaderDataDefinitions: the module's data definitions
//   - error: a lex, parse or duplicate declaration error
func MakeShaderDataDefinitions(code string, opts ...reflection.ReflectorBuilderOption) (*ShaderDataDefinitions, error) {
	refl, err := reflection.ReflectSource(code, opts...)
	if err != nil {
		return nil, err
	}
	return FromReflection(refl), nil
}

// FromReflection builds data definitions from an already reflected module.
//
// Parameters:
//   - refl: the reflected module
//
// Returns:
//   - *ShaderDataDefinitions: the module's data definitions
func FromReflection(refl *reflection.Reflection) *ShaderDataDefinitions {
	defs := &ShaderDataDefinitions{
		Uniforms:         make(map[string]*VariableDefinition, len(refl.Uniforms)),
		Storages:         make(map[string]*VariableDefinition, len(refl.Storage)),
		Samplers:         make(map[string]*ResourceDefinition, len(refl.Samplers)),
		Textures:         make(map[string]*ResourceDefinition, len(refl.Textures)),
		StorageTextures:  make(map[string]*ResourceDefinition, len(refl.StorageTextures)),
		ExternalTextures: make(map[string]*ResourceDefinition, len(refl.ExternalTextures)),
		Structs:          make(map[string]*StructDefinition, len(refl.Structs)),
		EntryPoints:      make(map[string]*EntryPointDefinition),
	}

	for _, s := range refl.Structs {
		defs.Structs[s.Name] = structDefinition(s, 0)
	}
	for _, v := range refl.Uniforms {
		defs.Uniforms[v.Name] = variableDefinition(v)
	}
	for _, v := range refl.Storage {
		defs.Storages[v.Name] = variableDefinition(v)
	}
	for _, v := range refl.Samplers {
		defs.Samplers[v.Name] = resourceDefinition(v)
	}
	for _, v := range refl.Textures {
		defs.Textures[v.Name] = resourceDefinition(v)
	}
	for _, v := range refl.StorageTextures {
		defs.StorageTextures[v.Name] = resourceDefinition(v)
	}
	for _, v := range refl.ExternalTextures {
		defs.ExternalTextures[v.Name] = resourceDefinition(v)
	}

	for _, fn := range refl.Functions {
		if !fn.IsEntryPoint() {
			continue
		}
		ep := &EntryPointDefinition{
			Name:          fn.Name,
			Stage:         fn.Stage,
			Resources:     make([]ResourceUsage, 0, len(fn.Resources)),
			WorkgroupSize: fn.WorkgroupSize,
			Inputs:        fn.Inputs,
			Outputs:       fn.Outputs,
		}
		for _, v := range fn.Resources {
			ep.Resources = append(ep.Resources, ResourceUsage{
				Name:    v.Name,
				Group:   v.Group,
				Binding: v.Binding,
				Kind:    v.ResourceType.String(),
			})
		}
		defs.EntryPoints[fn.Name] = ep
	}
	return defs
}

func variableDefinition(v *reflection.VariableInfo) *VariableDefinition {
	def := &VariableDefinition{
		Name:    v.Name,
		Group:   v.Group,
		Binding: v.Binding,
		Access:  v.Access,
		Type:    v.TypeName(),
	}
	if v.TypeInfo != nil {
		def.Size = v.TypeInfo.Size
		def.TypeDefinition = fieldDefinition(v.TypeInfo, 0)
	}
	return def
}

func resourceDefinition(v *reflection.VariableInfo) *ResourceDefinition {
	return &ResourceDefinition{
		Name:    v.Name,
		Group:   v.Group,
		Binding: v.Binding,
		Type:    v.TextureName(),
		Format:  v.Format,
		Access:  v.Access,
	}
}

// fieldDefinition maps a resolved type placed at the absolute offset to its
// definition. Arrays of intrinsics collapse into one definition carrying the
// element count; arrays of structs and of arrays list one definition per element
// at offset + stride*i.
func fieldDefinition(info *reflection.TypeInfo, offset uint64) FieldDefinition {
	if info == nil {
		return nil
	}
	switch info.Kind {
	case reflection.KindIntrinsic:
		return &IntrinsicDefinition{Offset: offset, Size: info.Size, Type: info.Intrinsic.Name}
	case reflection.KindStruct:
		return structDefinition(info.Struct, offset)
	case reflection.KindArray:
		if info.Element.Kind == reflection.KindIntrinsic {
			return &IntrinsicDefinition{
				Offset:      offset,
				Size:        info.Size,
				Type:        info.Element.Intrinsic.Name,
				NumElements: info.Count,
				Stride:      info.Stride,
			}
		}
		arr := &ArrayDefinition{
			Offset:      offset,
			Size:        info.Size,
			Stride:      info.Stride,
			Align:       info.Align,
			NumElements: info.Count,
			Element:     fieldDefinition(info.Element, offset),
		}
		if info.Count > 0 {
			arr.Elements = make([]FieldDefinition, info.Count)
			arr.Elements[0] = arr.Element
			for i := uint64(1); i < info.Count; i++ {
				arr.Elements[i] = fieldDefinition(info.Element, offset+i*info.Stride)
			}
		}
		return arr
	}
	return nil
}

func structDefinition(s *reflection.StructInfo, offset uint64) *StructDefinition {
	def := &StructDefinition{
		Name:   s.Name,
		Offset: offset,
		Size:   s.Size,
		Fields: make(map[string]FieldDefinition, len(s.Members)),
	}
	for _, m := range s.Members {
		def.Fields[m.Name] = widen(fieldDefinition(m.Type, offset+m.Offset), m.Size)
	}
	return def
}

// widen raises the size of a member definition to the member's @size.
func widen(fd FieldDefinition, size uint64) FieldDefinition {
	switch d := fd.(type) {
	case *IntrinsicDefinition:
		d.Size = max(d.Size, size)
	case *StructDefinition:
		d.Size = max(d.Size, size)
	case *ArrayDefinition:
		d.Size = max(d.Size, size)
	}
	return fd
}
