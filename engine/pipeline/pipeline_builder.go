package pipeline

import "github.com/Carmen-Shannon/oxy-compute/engine/shader"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithComputeShader sets the compute shader of the pipeline.
//
// Parameters:
//   - s: a parsed compute shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the compute shader
func WithComputeShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		if s != nil && s.ShaderType() == shader.ShaderTypeCompute {
			p.computeShader = s
		}
	}
}
