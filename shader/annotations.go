// annotations.go defines the annotation types and parser for the Oxy WGSL shader
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that
// drive struct injection, bind group declaration, and resource provider registration.
// The parsed results are stored as Annotation values and exposed through
// Shader.Declarations so callers can wire resources without matching variable names.
package shader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// ErrAnnotation is returned for malformed @oxy: annotations.
var ErrAnnotation = errors.New("invalid annotation")

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL source of a registered include at the
	// annotation site. It does not produce a declaration.
	//
	// Syntax: //@oxy:include <include_key>
	//
	// Example: //@oxy:include camera
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// for a registered include type and records a declaration.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// The type is an include key or array<include_key>.
	//
	// Example: //@oxy:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider records a resource provider identity for a group and
	// binding without generating any WGSL. The binding declaration stays hand-written
	// below the annotation. An optional role names the binding's purpose within a
	// multi-binding provider.
	//
	// Syntax:
	//   //@oxy:provider <group> <binding> <provider_identity>
	//   //@oxy:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Example: //@oxy:provider 2 0 material diffuse_texture
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = include key
	//   - group:    [0] = address space, [1] = var name, [2] = type key or array<type key>
	//   - provider: [0] = provider identity, [1] = binding role (optional)
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source.
	Line int

	// Group is the @group index for group and provider annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a single annotation argument.
type AnnotationArg string

// Address space arguments accepted by @oxy:group.
const (
	AnnotationArgStorageUniform   AnnotationArg = "storage_uniform"
	AnnotationArgStorageRead      AnnotationArg = "storage_read"
	AnnotationArgStorageReadWrite AnnotationArg = "storage_read_write"
)

// addressSpaces maps address space arguments to WGSL var<> syntax.
var addressSpaces = map[AnnotationArg]string{
	AnnotationArgStorageUniform:   "var<uniform>",
	AnnotationArgStorageRead:      "var<storage, read>",
	AnnotationArgStorageReadWrite: "var<storage, read_write>",
}

// TypeKey returns the include key of a group annotation's type argument with any
// array<> wrapper removed, and whether the type is an array.
func (a Annotation) TypeKey() (AnnotationArg, bool) {
	if a.Type != AnnotationTypeBindingGroup || len(a.Args) < 3 {
		return "", false
	}
	if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
		return AnnotationArg(strings.TrimSuffix(inner, ">")), true
	}
	return a.Args[2], false
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: an ErrAnnotation describing the problem if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, annotationError(lineNum, "empty @oxy annotation")
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, annotationError(lineNum, "@oxy include annotation requires exactly one argument")
		}
		if !isIdentifier(args[1]) {
			return nil, annotationError(lineNum, "invalid include key %q", args[1])
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, annotationError(lineNum, "@oxy group annotation requires five arguments (group, binding, address space, var name, type)")
		}
		group, binding, err := groupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if _, ok := addressSpaces[AnnotationArg(args[3])]; !ok {
			return nil, annotationError(lineNum, "unknown address space %q", args[3])
		}
		if !isIdentifier(args[4]) {
			return nil, annotationError(lineNum, "invalid variable name %q", args[4])
		}
		a := &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}
		if key, _ := a.TypeKey(); !isIdentifier(string(key)) {
			return nil, annotationError(lineNum, "invalid type %q", args[5])
		}
		return a, nil
	case AnnotationTypeProvider:
		if len(args) < 4 || len(args) > 5 {
			return nil, annotationError(lineNum, "@oxy provider annotation requires three or four arguments (group, binding, provider identity[, binding role])")
		}
		group, binding, err := groupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		providerArgs := make([]AnnotationArg, 0, 2)
		for _, arg := range args[3:] {
			if !isIdentifier(arg) {
				return nil, annotationError(lineNum, "invalid provider argument %q", arg)
			}
			providerArgs = append(providerArgs, AnnotationArg(arg))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	}
	return nil, annotationError(lineNum, "unknown @oxy annotation type %q", args[0])
}

func groupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, annotationError(lineNum, "invalid group number %q", groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, annotationError(lineNum, "invalid binding number %q", bindingArg)
	}
	return group, binding, nil
}

// isIdentifier reports whether s lexes as a single WGSL identifier.
func isIdentifier(s string) bool {
	tokens, err := wgsl.Tokenize(s)
	return err == nil && len(tokens) == 2 && tokens[0].Kind == wgsl.TokenIdent
}

func annotationError(lineNum int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrAnnotation, lineNum, fmt.Sprintf(format, args...))
}
