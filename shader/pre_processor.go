// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected include source, and collects a declarations list that callers use to
// wire GPU resources to bind groups without string lookups on variable names.

package shader

import (
	"fmt"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// includes maps include keys to the WGSL source injected by @oxy:include and the
	// type name emitted by @oxy:group.
	includes Includes

	// declarations accumulates group and provider annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations,
// replacing them with generated declarations or injected include sources while
// collecting a declarations list.
type PreProcessor interface {
	// Process replaces @oxy: annotations with their WGSL output. @oxy:include lines
	// are replaced with the include source, once per key. @oxy:group lines are
	// replaced with generated @group/@binding variable declarations. @oxy:provider
	// lines are kept as comments and recorded in the declarations list.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an ErrAnnotation if any annotation is malformed or references an unknown include
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations collected during the
	// most recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor that resolves includes from the given registry.
//
// Parameters:
//   - includes: the include registry, may be nil
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(includes Includes) PreProcessor {
	return &preProcessor{includes: includes}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			key := a.Args[0]
			entry, ok := p.includes[string(key)]
			if !ok {
				return "", annotationError(a.Line, "unknown include %q", key)
			}
			if included[key] {
				out = append(out, "")
				continue
			}
			included[key] = true
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			key, isArray := a.TypeKey()
			entry, ok := p.includes[string(key)]
			if !ok || entry.Type == "" {
				return "", annotationError(a.Line, "unknown include type %q", key)
			}
			wgslType := entry.Type
			if isArray {
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addressSpaces[a.Args[0]], a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			out = append(out, line)
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
