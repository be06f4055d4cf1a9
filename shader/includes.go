package shader

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
)

// Include is a WGSL snippet injected by @oxy:include.
type Include struct {
	// Source is the WGSL text injected at the annotation site.
	Source string

	// Type is the WGSL type name emitted by @oxy:group declarations that reference
	// the include's key.
	Type string
}

// Includes maps include keys to their snippets.
type Includes map[string]Include

// NewInclude builds an include from WGSL source, taking its Type from the first
// struct the source declares.
//
// Parameters:
//   - source: the WGSL snippet
//
// Returns:
//   - Include: the include
//   - error: a lex or parse error, or an error if the source declares no struct
func NewInclude(source string) (Include, error) {
	decls, err := wgsl.Parse(source)
	if err != nil {
		return Include{}, err
	}
	for _, d := range decls {
		if s, ok := d.(*wgsl.Struct); ok {
			return Include{Source: source, Type: s.Name}, nil
		}
	}
	return Include{}, fmt.Errorf("include declares no struct")
}

// IncludesFromFS loads every .wgsl file in dir, keyed by file name without the
// extension. It pairs with an embed.FS of shader assets.
//
// Parameters:
//   - fsys: the file system to read
//   - dir: the directory holding the .wgsl files
//
// Returns:
//   - Includes: the loaded includes
//   - error: an error if a file cannot be read or declares no struct
func IncludesFromFS(fsys fs.FS, dir string) (Includes, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.wgsl"))
	if err != nil {
		return nil, err
	}
	includes := make(Includes, len(matches))
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		inc, err := NewInclude(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		includes[strings.TrimSuffix(path.Base(name), ".wgsl")] = inc
	}
	return includes, nil
}
