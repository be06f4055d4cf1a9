package reflection

import (
	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
)

// TypeKind discriminates the resolved forms of a host-shareable type.
type TypeKind uint8

const (
	KindIntrinsic TypeKind = iota
	KindStruct
	KindArray
)

func (k TypeKind) String() string {
	switch k {
	case KindIntrinsic:
		return "intrinsic"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// TypeInfo is the resolved memory layout of a type. Exactly one of Intrinsic,
// Struct or Element is meaningful, selected by Kind.
type TypeInfo struct {
	Name  string
	Kind  TypeKind
	Size  uint64
	Align uint64

	Intrinsic Intrinsic
	Struct    *StructInfo

	// Element, Count and Stride describe arrays. Count is zero for a
	// runtime-sized array, whose Size is then zero as well.
	Element *TypeInfo
	Count   uint64
	Stride  uint64
}

// IsRuntimeSized reports whether t is a runtime-sized array.
func (t *TypeInfo) IsRuntimeSized() bool {
	return t.Kind == KindArray && t.Count == 0
}

// StructInfo is the computed layout of a struct declaration.
type StructInfo struct {
	Name       string
	Members    []*MemberInfo
	Size       uint64
	Align      uint64
	Attributes wgsl.Attributes
	Line       int
}

// Member returns the member with the given name.
func (s *StructInfo) Member(name string) (*MemberInfo, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// MemberInfo is the placement of a single struct member. Type is nil when the
// member's type could not be resolved; such a member occupies no space.
type MemberInfo struct {
	Name       string
	TypeName   string
	Attributes wgsl.Attributes
	Offset     uint64
	Size       uint64
	Align      uint64
	Type       *TypeInfo
}

func (m *MemberInfo) Resolved() bool {
	return m.Type != nil
}

func (m *MemberInfo) IsArray() bool {
	return m.Type != nil && m.Type.Kind == KindArray
}

func (m *MemberInfo) IsStruct() bool {
	return m.Type != nil && m.Type.Kind == KindStruct
}

// ArrayCount returns the element count of an array member, zero for runtime-sized
// arrays and non-arrays.
func (m *MemberInfo) ArrayCount() uint64 {
	if !m.IsArray() {
		return 0
	}
	return m.Type.Count
}

// ArrayStride returns the byte distance between elements of an array member.
func (m *MemberInfo) ArrayStride() uint64 {
	if !m.IsArray() {
		return 0
	}
	return m.Type.Stride
}

// Members returns the nested members of a struct member, or of the element struct
// of an array-of-struct member.
func (m *MemberInfo) Members() []*MemberInfo {
	t := m.Type
	for t != nil && t.Kind == KindArray {
		t = t.Element
	}
	if t == nil || t.Struct == nil {
		return nil
	}
	return t.Struct.Members
}

// Format returns the name of the innermost element type for arrays, otherwise the
// resolved type name.
func (m *MemberInfo) Format() string {
	t := m.Type
	if t == nil {
		return m.TypeName
	}
	for t.Kind == KindArray && t.Element != nil {
		t = t.Element
	}
	return t.Name
}

// typeLayout resolves t to its layout. Names are looked up in the alias table, then
// the struct table, then the intrinsic table. Pointer, sampler and texture types
// have no host layout and report false.
func (r *reflector) typeLayout(t wgsl.Type) (*TypeInfo, bool) {
	switch t := t.(type) {
	case *wgsl.NamedType:
		info, ok := r.resolveName(t.Name)
		if !ok {
			return nil, false
		}
		return r.applySizeAlign(info, t.Attributes)
	case *wgsl.TemplateType:
		return r.templateLayout(t)
	case *wgsl.ArrayType:
		return r.arrayLayout(t)
	}
	return nil, false
}

func (r *reflector) resolveName(name string) (*TypeInfo, bool) {
	if alias, ok := r.aliases[name]; ok {
		if r.resolving[alias] {
			r.logger.Debug("alias cycle", "alias", name)
			return nil, false
		}
		r.resolving[alias] = true
		defer delete(r.resolving, alias)
		return r.typeLayout(alias.Type)
	}
	if decl, ok := r.structs[name]; ok {
		s, ok := r.structLayout(decl)
		if !ok {
			return nil, false
		}
		return &TypeInfo{Name: s.Name, Kind: KindStruct, Size: s.Size, Align: s.Align, Struct: s}, true
	}
	if in, ok := LookupIntrinsic(name); ok {
		return &TypeInfo{Name: in.Name, Kind: KindIntrinsic, Size: in.Size, Align: in.Align, Intrinsic: in}, true
	}
	r.logger.Debug("unresolved type", "type", name)
	return nil, false
}

// templateLayout resolves vecN<T>, matCxR<T> and atomic<T>, following an alias used
// as the component type.
func (r *reflector) templateLayout(t *wgsl.TemplateType) (*TypeInfo, bool) {
	name := t.TypeName()
	if in, ok := LookupIntrinsic(name); ok {
		return r.applySizeAlign(&TypeInfo{Name: in.Name, Kind: KindIntrinsic, Size: in.Size, Align: in.Align, Intrinsic: in}, t.Attributes)
	}
	if t.Format == nil {
		r.logger.Debug("unresolved type", "type", name)
		return nil, false
	}
	component, ok := r.typeLayout(t.Format)
	if !ok || component.Kind != KindIntrinsic {
		r.logger.Debug("unresolved type", "type", name)
		return nil, false
	}
	return r.templateLayout(&wgsl.TemplateType{
		Name:       t.Name,
		Format:     &wgsl.NamedType{Name: component.Intrinsic.Scalar},
		Attributes: t.Attributes,
	})
}

// arrayLayout computes align = AlignOf(E), stride = @stride or
// roundUp(AlignOf(E), SizeOf(E)) and size = N * stride.
func (r *reflector) arrayLayout(t *wgsl.ArrayType) (*TypeInfo, bool) {
	if t.Element == nil {
		return nil, false
	}
	elem, ok := r.typeLayout(t.Element)
	if !ok {
		return nil, false
	}

	info := &TypeInfo{
		Name:    t.TypeName(),
		Kind:    KindArray,
		Align:   elem.Align,
		Element: elem,
		Stride:  common.RoundUp(elem.Align, elem.Size),
	}
	stride, present, ok := r.layoutAttr(t.Attributes, "stride")
	if !ok {
		return nil, false
	}
	if present && stride > 0 {
		info.Stride = stride
	}
	if t.Count != nil {
		n, ok := r.evalInt(t.Count)
		if !ok || n < 0 {
			r.logger.Debug("array count is not a constant", "type", info.Name)
			return nil, false
		}
		info.Count = uint64(n)
	}
	info.Size = info.Count * info.Stride
	return r.applySizeAlign(info, t.Attributes)
}

// layoutAttr evaluates a @size, @align, @stride or @offset attribute, folding named
// constants. ok is false when the attribute is present but does not evaluate to a
// non-negative integer.
func (r *reflector) layoutAttr(attrs wgsl.Attributes, name string) (value uint64, present, ok bool) {
	if _, found := attrs.Find(name); !found {
		return 0, false, true
	}
	v, ok := r.attrInt(attrs, name, 0)
	if !ok || v < 0 {
		r.logger.Debug("layout attribute is not a constant", "attribute", name)
		return 0, true, false
	}
	return uint64(v), true, true
}

// applySizeAlign widens a layout by explicit @size and @align attributes. Both take
// the larger of the explicit and computed values. Reports false if either attribute
// cannot be evaluated.
func (r *reflector) applySizeAlign(info *TypeInfo, attrs wgsl.Attributes) (*TypeInfo, bool) {
	size, hasSize, ok := r.layoutAttr(attrs, "size")
	if !ok {
		return nil, false
	}
	align, hasAlign, ok := r.layoutAttr(attrs, "align")
	if !ok {
		return nil, false
	}
	if (!hasSize || size <= info.Size) && (!hasAlign || align <= info.Align) {
		return info, true
	}
	widened := *info
	if hasSize {
		widened.Size = max(widened.Size, size)
	}
	if hasAlign {
		widened.Align = max(widened.Align, align)
	}
	return &widened, true
}

// structLayout places members in declaration order at
// offset = roundUp(align, previousOffset + previousSize) and sizes the struct to
// roundUp(maxAlign, lastOffset + lastSize). Results are cached per declaration.
func (r *reflector) structLayout(decl *wgsl.Struct) (*StructInfo, bool) {
	if s, ok := r.structInfos[decl]; ok {
		return s, true
	}
	if r.resolving[decl] {
		r.logger.Debug("recursive struct", "struct", decl.Name)
		return nil, false
	}
	r.resolving[decl] = true
	defer delete(r.resolving, decl)

	s := &StructInfo{
		Name:       decl.Name,
		Members:    make([]*MemberInfo, 0, len(decl.Members)),
		Align:      1,
		Attributes: decl.Attributes,
		Line:       decl.Line,
	}

	var end uint64
	for _, m := range decl.Members {
		member := &MemberInfo{
			Name:       m.Name,
			TypeName:   m.Type.TypeName(),
			Attributes: m.Attributes,
			Align:      1,
		}
		if info, ok := r.typeLayout(m.Type); ok {
			member.Type = info
			member.Size = info.Size
			member.Align = info.Align
		} else {
			r.logger.Debug("unresolved member type", "struct", decl.Name, "member", m.Name, "type", member.TypeName)
		}
		size, hasSize, sizeOK := r.layoutAttr(m.Attributes, "size")
		align, hasAlign, alignOK := r.layoutAttr(m.Attributes, "align")
		offset, hasOffset, offsetOK := r.layoutAttr(m.Attributes, "offset")
		if !sizeOK || !alignOK || !offsetOK {
			r.logger.Debug("unresolved member layout", "struct", decl.Name, "member", m.Name)
			member.Type = nil
		}
		if hasSize {
			member.Size = max(member.Size, size)
		}
		if hasAlign {
			member.Align = max(member.Align, align)
		}

		member.Offset = common.RoundUp(member.Align, end)
		if hasOffset && offset > member.Offset {
			member.Offset = offset
		}
		end = member.Offset + member.Size
		s.Align = max(s.Align, member.Align)
		s.Members = append(s.Members, member)
	}
	s.Size = common.RoundUp(s.Align, end)

	r.structInfos[decl] = s
	return s, true
}
