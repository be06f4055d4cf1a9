// Package shader loads WGSL shaders: it runs the @oxy: pre-processor, reflects the
// result and derives the layouts a pipeline needs from the reflected data.
package shader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/definitions"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSource is returned by NewShader when neither WithSource nor
// WithSourceFromPath is given.
var ErrNoSource = errors.New("shader has no source")

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and resource binding.
type shader struct {
	key        string
	rawSource  string
	sourcePath string
	source     string
	includes   Includes
	logger     *slog.Logger

	refl          *reflection.Reflection
	defs          *definitions.ShaderDataDefinitions
	vertexLayouts []wgpu.VertexBufferLayout
	module        *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader defines the interface for a loaded and reflected WGSL shader. It exposes the
// shader's unique key, processed source, data definitions, entry points, layouts and
// pre-processor declarations needed for pipeline creation and resource wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Definitions retrieves the data definitions of the shader's structs, resources
	// and entry points.
	//
	// Returns:
	//   - *definitions.ShaderDataDefinitions: the shader's data definitions
	Definitions() *definitions.ShaderDataDefinitions

	// Reflection retrieves the full reflection of the shader module.
	//
	// Returns:
	//   - *reflection.Reflection: the reflected module
	Reflection() *reflection.Reflection

	// EntryPoint returns the name of the first entry point declared for a stage.
	//
	// Parameters:
	//   - stage: wgpu.ShaderStageVertex, wgpu.ShaderStageFragment or wgpu.ShaderStageCompute
	//
	// Returns:
	//   - string: the entry point name
	//   - bool: false if the shader has no entry point for the stage
	EntryPoint(stage wgpu.ShaderStage) (string, bool)

	// WorkgroupSize returns the workgroup size of the shader's compute entry point.
	// Returns [0, 0, 0] for shaders without one and defaults omitted dimensions to 1.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// VertexLayouts retrieves the vertex buffer layouts built from the @location
	// inputs of the vertex entry point. Empty when there is no vertex entry point
	// or an input has no vertex format.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors derives bind group layout descriptors for the
	// given pipeline stages.
	//
	// Parameters:
	//   - desc: the active pipeline stages
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: layout descriptors indexed by group
	//   - error: an error if a stage's entry point cannot be resolved
	BindGroupLayoutDescriptors(desc definitions.PipelineDescriptor) ([]wgpu.BindGroupLayoutDescriptor, error)

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and provider annotations parsed from the
	// shader source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader creates a new Shader with all specified options applied. The source is
// pre-processed, reflected and mapped to data definitions before NewShader returns.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - opts: a variadic list of ShaderBuilderOption functions; WithSource or WithSourceFromPath is required
//
// Returns:
//   - Shader: the loaded shader
//   - error: ErrNoSource, a read error, an ErrAnnotation, or a lex, parse or duplicate declaration error
func NewShader(key string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:    key,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rawSource == "" && s.sourcePath != "" {
		data, err := os.ReadFile(s.sourcePath)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", key, err)
		}
		s.rawSource = string(data)
	}
	if s.rawSource == "" {
		return nil, fmt.Errorf("shader %s: %w", key, ErrNoSource)
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// load pre-processes and reflects the raw source and builds the derived layouts.
func (s *shader) load() error {
	s.pp = NewPreProcessor(s.includes)
	source, err := s.pp.Process(s.rawSource)
	if err != nil {
		return err
	}
	s.source = source

	s.refl, err = reflection.ReflectSource(source, reflection.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.defs = definitions.FromReflection(s.refl)

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}

	if len(s.refl.EntryPoints.Vertex) > 0 {
		vs := s.refl.EntryPoints.Vertex[0]
		if layout, ok := buildVertexBufferLayout(vs.Inputs); ok {
			s.vertexLayouts = []wgpu.VertexBufferLayout{layout}
		} else {
			s.logger.Debug("vertex inputs have no vertex format", "shader", s.key, "entryPoint", vs.Name)
		}
	}

	s.logger.Debug("shader loaded",
		"shader", s.key,
		"structs", len(s.refl.Structs),
		"resources", len(s.refl.Resources()),
		"entryPoints", len(s.defs.EntryPoints))
	return nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Definitions() *definitions.ShaderDataDefinitions {
	return s.defs
}

func (s *shader) Reflection() *reflection.Reflection {
	return s.refl
}

func (s *shader) EntryPoint(stage wgpu.ShaderStage) (string, bool) {
	var fns []*reflection.FunctionInfo
	switch stage {
	case wgpu.ShaderStageVertex:
		fns = s.refl.EntryPoints.Vertex
	case wgpu.ShaderStageFragment:
		fns = s.refl.EntryPoints.Fragment
	case wgpu.ShaderStageCompute:
		fns = s.refl.EntryPoints.Compute
	}
	if len(fns) == 0 {
		return "", false
	}
	return fns[0].Name, true
}

func (s *shader) WorkgroupSize() [3]uint32 {
	if len(s.refl.EntryPoints.Compute) == 0 {
		return [3]uint32{}
	}
	return s.refl.EntryPoints.Compute[0].WorkgroupSize
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors(desc definitions.PipelineDescriptor) ([]wgpu.BindGroupLayoutDescriptor, error) {
	return definitions.MakeBindGroupLayoutDescriptors(s.defs, desc)
}

func (s *shader) BindGroupVarName(group, binding int) string {
	for _, v := range s.refl.Resources() {
		if int(v.Group) == group && int(v.Binding) == binding {
			return v.Name
		}
	}
	return ""
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	v, ok := s.refl.FindResource(varName)
	if !ok || int(v.Group) != group {
		return -1, false
	}
	return int(v.Binding), true
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}
