package shader

import "log/slog"

// ShaderBuilderOption is a functional option for configuring a Shader during creation.
type ShaderBuilderOption func(*shader)

// WithSource sets the raw WGSL source of the shader. It takes precedence over
// WithSourceFromPath.
//
// Parameters:
//   - source: the WGSL source, which may contain @oxy: annotations
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithSourceFromPath reads the raw WGSL source from a file when the shader is created.
//
// Parameters:
//   - path: the file path to read WGSL source from
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source path option
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.sourcePath = path
	}
}

// WithIncludes sets the include registry used by @oxy:include and @oxy:group.
//
// Parameters:
//   - includes: the include registry
//
// Returns:
//   - ShaderBuilderOption: a function that applies the includes option
func WithIncludes(includes Includes) ShaderBuilderOption {
	return func(s *shader) {
		s.includes = includes
	}
}

// WithLogger sets the logger that receives debug output while the shader is reflected.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ShaderBuilderOption: a function that applies the logger option
func WithLogger(logger *slog.Logger) ShaderBuilderOption {
	return func(s *shader) {
		if logger != nil {
			s.logger = logger
		}
	}
}
