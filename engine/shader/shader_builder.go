package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithSource sets the raw WGSL source of the shader, typically an embedded .wgsl file.
//
// Parameters:
//   - source: the WGSL source code, may contain @oxy: annotations
//
// Returns:
//   - ShaderBuilderOption: a function that sets the shader source
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.source = source
	}
}

// WithSourceFromPath reads the WGSL source from a file when the shader is created.
// It takes precedence over WithSource.
//
// Parameters:
//   - path: the file path of the .wgsl source
//
// Returns:
//   - ShaderBuilderOption: a function that sets the shader source path
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		s.sourcePath = path
	}
}
