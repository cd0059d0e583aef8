package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithSource sets the raw WGSL source of the shader. It takes precedence over WithSourcePath.
//
// Parameters:
//   - source: the WGSL source, optionally containing @oxy: annotations
//
// Returns:
//   - ShaderBuilderOption: a function that sets the shader source
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithSourcePath sets the file the WGSL source is read from.
//
// Parameters:
//   - path: the path of a .wgsl file
//
// Returns:
//   - ShaderBuilderOption: a function that sets the source path
func WithSourcePath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.sourcePath = path
	}
}

// WithCompiler sets the compiler used to compile the pre-processed source.
//
// Parameters:
//   - c: the compiler to use
//
// Returns:
//   - ShaderBuilderOption: a function that sets the compiler
func WithCompiler(c Compiler) ShaderBuilderOption {
	return func(s *shader) {
		s.compiler = c
	}
}
