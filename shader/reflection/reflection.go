// Package reflection walks parsed WGSL declarations to recover struct layouts,
// resource bindings and entry point metadata.
package reflection

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrDuplicateDeclaration is returned when two module-scope declarations share a name.
	ErrDuplicateDeclaration = errors.New("reflection: duplicate declaration")

	// ErrInvalidBinding is returned when a @group or @binding is negative, too large
	// or not a constant expression.
	ErrInvalidBinding = errors.New("reflection: invalid binding")
)

// maxBindingIndex bounds @group and @binding values.
const maxBindingIndex = 1 << 16

// ResourceType classifies a module-scope resource variable.
type ResourceType uint8

const (
	ResourceUniform ResourceType = iota
	ResourceStorage
	ResourceTexture
	ResourceSampler
	ResourceStorageTexture
	ResourceExternalTexture
)

func (t ResourceType) String() string {
	switch t {
	case ResourceUniform:
		return "uniform"
	case ResourceStorage:
		return "storage"
	case ResourceTexture:
		return "texture"
	case ResourceSampler:
		return "sampler"
	case ResourceStorageTexture:
		return "storageTexture"
	case ResourceExternalTexture:
		return "externalTexture"
	}
	return "unknown"
}

// VariableInfo describes a bound module-scope variable. TypeInfo is nil for
// texture and sampler handles and for buffers whose type could not be resolved.
type VariableInfo struct {
	Name         string
	Group        uint32
	Binding      uint32
	ResourceType ResourceType
	AddressSpace string

	// Access is the buffer access mode ("read" or "read_write") or the storage
	// texture access mode. Uniforms are always "read".
	Access string

	// Format is the sampled component type of a texture or the texel format of a
	// storage texture.
	Format string

	Type       wgsl.Type
	TypeInfo   *TypeInfo
	Attributes wgsl.Attributes
	Line       int

	handleType *wgsl.SamplerType
}

// TypeName returns the variable's type as written.
func (v *VariableInfo) TypeName() string {
	if v.Type == nil {
		return ""
	}
	return v.Type.TypeName()
}

// TextureName returns the texture or sampler type name without template arguments.
func (v *VariableInfo) TextureName() string {
	if v.handleType != nil {
		return v.handleType.Name
	}
	return v.TypeName()
}

// AliasInfo is a type alias declaration.
type AliasInfo struct {
	Name string
	Type wgsl.Type
}

// OverrideInfo is a pipeline-overridable constant. ID is -1 without an @id.
type OverrideInfo struct {
	Name    string
	ID      int
	Type    wgsl.Type
	Default wgsl.Expr
}

// EntryPoints groups entry point functions by stage, in declaration order.
type EntryPoints struct {
	Vertex   []*FunctionInfo
	Fragment []*FunctionInfo
	Compute  []*FunctionInfo
}

// Reflection holds the classified module-scope declarations of one shader. It is
// read-only once Reflect returns.
type Reflection struct {
	Structs          []*StructInfo
	Uniforms         []*VariableInfo
	Storage          []*VariableInfo
	Textures         []*VariableInfo
	StorageTextures  []*VariableInfo
	ExternalTextures []*VariableInfo
	Samplers         []*VariableInfo
	Aliases          []*AliasInfo
	Overrides        []*OverrideInfo
	Functions        []*FunctionInfo
	EntryPoints      EntryPoints

	// resources holds every bound variable in declaration order.
	resources []*VariableInfo
	r         *reflector
}

// reflector carries the name tables used while resolving a module.
type reflector struct {
	aliases      map[string]*wgsl.Alias
	structs      map[string]*wgsl.Struct
	functions    map[string]*wgsl.Function
	initializers map[string]wgsl.Expr
	constants    map[string]int64
	structInfos  map[*wgsl.Struct]*StructInfo
	resolving    map[wgsl.Node]bool
	logger       *slog.Logger
}

type ReflectorBuilderOption func(*reflector)

// WithLogger sets the logger receiving debug records for unresolved types and
// non-constant array counts.
//
// Parameters:
//   - logger: the destination logger
//
// Returns:
//   - ReflectorBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) ReflectorBuilderOption {
	return func(r *reflector) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConstants supplies values for override declarations, or replaces const values,
// used when folding array counts and workgroup sizes.
//
// Parameters:
//   - constants: values keyed by declaration name
//
// Returns:
//   - ReflectorBuilderOption: a function that records the constant values
func WithConstants(constants map[string]int64) ReflectorBuilderOption {
	return func(r *reflector) {
		for k, v := range constants {
			r.constants[k] = v
		}
	}
}

// ReflectSource parses WGSL source and reflects its declarations.
//
// Parameters:
//   - source: the WGSL source text
//   - opts: reflector options
//
// Returns:
//   - *Reflection: the reflected module
//   - error: a lex, parse or duplicate declaration error
func ReflectSource(source string, opts ...ReflectorBuilderOption) (*Reflection, error) {
	decls, err := wgsl.Parse(source)
	if err != nil {
		return nil, err
	}
	return Reflect(decls, opts...)
}

// Reflect classifies module-scope declarations and computes the layout of every
// struct and resource. Unresolvable types do not fail reflection; they surface as
// members and variables with a nil type layout.
//
// Parameters:
//   - decls: the declarations returned by wgsl.Parse
//   - opts: reflector options
//
// Returns:
//   - *Reflection: the reflected module
//   - error: wraps ErrDuplicateDeclaration if two declarations share a name, or
//     ErrInvalidBinding for an out-of-range @group or @binding
func Reflect(decls []wgsl.Decl, opts ...ReflectorBuilderOption) (*Reflection, error) {
	r := &reflector{
		aliases:      make(map[string]*wgsl.Alias),
		structs:      make(map[string]*wgsl.Struct),
		functions:    make(map[string]*wgsl.Function),
		initializers: make(map[string]wgsl.Expr),
		constants:    make(map[string]int64),
		structInfos:  make(map[*wgsl.Struct]*StructInfo),
		resolving:    make(map[wgsl.Node]bool),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.index(decls); err != nil {
		return nil, err
	}

	refl := &Reflection{r: r}
	for _, d := range decls {
		switch d := d.(type) {
		case *wgsl.Struct:
			if s, ok := r.structLayout(d); ok {
				refl.Structs = append(refl.Structs, s)
			}
		case *wgsl.Alias:
			refl.Aliases = append(refl.Aliases, &AliasInfo{Name: d.Name, Type: d.Type})
		case *wgsl.Override:
			id := -1
			if v, ok := r.attrInt(d.Attributes, "id", 0); ok {
				id = int(v)
			}
			refl.Overrides = append(refl.Overrides, &OverrideInfo{Name: d.Name, ID: id, Type: d.Type, Default: d.Value})
		case *wgsl.Var:
			v, ok, err := r.variable(d)
			if err != nil {
				return nil, err
			}
			if ok {
				refl.addResource(v)
			}
		}
	}

	for _, d := range decls {
		if fn, ok := d.(*wgsl.Function); ok {
			refl.Functions = append(refl.Functions, r.function(fn, refl.resources))
		}
	}
	for _, fn := range refl.Functions {
		switch fn.Stage {
		case wgpu.ShaderStageVertex:
			refl.EntryPoints.Vertex = append(refl.EntryPoints.Vertex, fn)
		case wgpu.ShaderStageFragment:
			refl.EntryPoints.Fragment = append(refl.EntryPoints.Fragment, fn)
		case wgpu.ShaderStageCompute:
			refl.EntryPoints.Compute = append(refl.EntryPoints.Compute, fn)
		}
	}
	return refl, nil
}

// index builds the module-scope name tables, rejecting redeclared names.
func (r *reflector) index(decls []wgsl.Decl) error {
	lines := make(map[string]int)
	declare := func(name string, line int) error {
		if first, ok := lines[name]; ok {
			return fmt.Errorf("%w: %q at line %d, first declared at line %d", ErrDuplicateDeclaration, name, line, first)
		}
		lines[name] = line
		return nil
	}

	for _, d := range decls {
		var err error
		switch d := d.(type) {
		case *wgsl.Struct:
			err = declare(d.Name, d.Line)
			r.structs[d.Name] = d
		case *wgsl.Alias:
			err = declare(d.Name, d.Line)
			r.aliases[d.Name] = d
		case *wgsl.Function:
			err = declare(d.Name, d.Line)
			r.functions[d.Name] = d
		case *wgsl.Var:
			err = declare(d.Name, d.Line)
		case *wgsl.Const:
			err = declare(d.Name, d.Line)
			r.initializers[d.Name] = d.Value
		case *wgsl.Let:
			err = declare(d.Name, d.Line)
			r.initializers[d.Name] = d.Value
		case *wgsl.Override:
			err = declare(d.Name, d.Line)
			r.initializers[d.Name] = d.Value
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// variable classifies a module-scope var. Private, workgroup and function scope
// variables are not bound resources and report false.
func (r *reflector) variable(d *wgsl.Var) (*VariableInfo, bool, error) {
	v := &VariableInfo{
		Name:         d.Name,
		AddressSpace: d.AddressSpace,
		Type:         d.Type,
		Attributes:   d.Attributes,
		Line:         d.Line,
	}
	var err error
	if v.Group, err = r.bindingIndex(d, "group"); err != nil {
		return nil, false, err
	}
	if v.Binding, err = r.bindingIndex(d, "binding"); err != nil {
		return nil, false, err
	}

	switch d.AddressSpace {
	case "uniform":
		v.ResourceType = ResourceUniform
		v.Access = "read"
	case "storage":
		v.ResourceType = ResourceStorage
		v.Access = d.Access
		if v.Access == "" {
			v.Access = "read"
		}
	case "":
		h, ok := r.handle(v)
		return h, ok, nil
	default:
		return nil, false, nil
	}

	if info, ok := r.typeLayout(d.Type); ok {
		v.TypeInfo = info
	} else {
		r.logger.Debug("unresolved resource type", "var", d.Name, "type", v.TypeName())
	}
	return v, true, nil
}

// bindingIndex evaluates the @group or @binding of d. A missing attribute is 0.
func (r *reflector) bindingIndex(d *wgsl.Var, name string) (uint32, error) {
	if _, ok := d.Attributes.Find(name); !ok {
		return 0, nil
	}
	n, ok := r.attrInt(d.Attributes, name, 0)
	if !ok || n < 0 || n >= maxBindingIndex {
		value, _ := d.Attributes.Value(name)
		return 0, fmt.Errorf("%w: @%s(%s) on %q at line %d", ErrInvalidBinding, name, value, d.Name, d.Line)
	}
	return uint32(n), nil
}

// handle classifies texture and sampler variables, which have no address space.
func (r *reflector) handle(v *VariableInfo) (*VariableInfo, bool) {
	t := v.Type
	if named, ok := t.(*wgsl.NamedType); ok {
		if alias, ok := r.aliases[named.Name]; ok {
			t = alias.Type
		}
	}
	st, ok := t.(*wgsl.SamplerType)
	if !ok {
		return nil, false
	}

	v.handleType = st
	v.Format = st.Format
	switch {
	case st.Name == "sampler" || st.Name == "sampler_comparison":
		v.ResourceType = ResourceSampler
	case st.Name == "texture_external":
		v.ResourceType = ResourceExternalTexture
	case strings.HasPrefix(st.Name, "texture_storage_"):
		v.ResourceType = ResourceStorageTexture
		v.Access = st.Access
		if v.Access == "" {
			v.Access = "write"
		}
	default:
		v.ResourceType = ResourceTexture
	}
	return v, true
}

func (refl *Reflection) addResource(v *VariableInfo) {
	refl.resources = append(refl.resources, v)
	switch v.ResourceType {
	case ResourceUniform:
		refl.Uniforms = append(refl.Uniforms, v)
	case ResourceStorage:
		refl.Storage = append(refl.Storage, v)
	case ResourceTexture:
		refl.Textures = append(refl.Textures, v)
	case ResourceSampler:
		refl.Samplers = append(refl.Samplers, v)
	case ResourceStorageTexture:
		refl.StorageTextures = append(refl.StorageTextures, v)
	case ResourceExternalTexture:
		refl.ExternalTextures = append(refl.ExternalTextures, v)
	}
}

// Resources returns every bound variable in declaration order.
func (refl *Reflection) Resources() []*VariableInfo {
	return refl.resources
}

// GetStructInfo returns the layout of the named struct.
//
// Parameters:
//   - name: the struct name
//
// Returns:
//   - *StructInfo: the struct layout
//   - bool: false if no struct has that name
func (refl *Reflection) GetStructInfo(name string) (*StructInfo, bool) {
	for _, s := range refl.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// TypeLayout resolves a type against this module's aliases and structs.
//
// Parameters:
//   - t: the type reference
//
// Returns:
//   - *TypeInfo: the resolved layout
//   - bool: false if the type has no host layout or names an unknown type
func (refl *Reflection) TypeLayout(t wgsl.Type) (*TypeInfo, bool) {
	return refl.r.typeLayout(t)
}

// GetBindGroups arranges the bound variables into a table indexed by group then
// binding. Unused group and binding slots are nil.
//
// Returns:
//   - [][]*VariableInfo: the sparse binding table
func (refl *Reflection) GetBindGroups() [][]*VariableInfo {
	var groups [][]*VariableInfo
	for _, v := range refl.resources {
		for int(v.Group) >= len(groups) {
			groups = append(groups, nil)
		}
		group := groups[v.Group]
		for int(v.Binding) >= len(group) {
			group = append(group, nil)
		}
		group[v.Binding] = v
		groups[v.Group] = group
	}
	return groups
}

// FindResource returns the bound variable with the given name.
func (refl *Reflection) FindResource(name string) (*VariableInfo, bool) {
	for _, v := range refl.resources {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// FindFunction returns the function with the given name.
func (refl *Reflection) FindFunction(name string) (*FunctionInfo, bool) {
	for _, fn := range refl.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}
