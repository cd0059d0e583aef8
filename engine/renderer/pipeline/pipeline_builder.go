package pipeline

import (
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
)

// PipelineBuilderOption configures a Pipeline before NewPipeline checks its stages.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader places s in the vertex slot. NewPipeline fails with ErrStageMismatch unless s
// was compiled as a vertex shader.
//
// Parameters:
//   - s: the vertex stage
//
// Returns:
//   - PipelineBuilderOption: the option
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader places s in the fragment slot. Its uniforms and texture bindings are merged
// with the vertex stage's into one symbol table.
//
// Parameters:
//   - s: the fragment stage
//
// Returns:
//   - PipelineBuilderOption: the option
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithComputeShader places s in the compute slot of a PipelineTypeCompute pipeline.
func WithComputeShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeShader = s
	}
}

// WithShaders places each shader in the slot of the stage it was compiled for, as returned by
// Loader.LoadShader. A later shader replaces an earlier one of the same stage; nil shaders are skipped.
//
// Parameters:
//   - shaders: the stages of the pipeline, in any order
//
// Returns:
//   - PipelineBuilderOption: the option
func WithShaders(shaders ...shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		for _, s := range shaders {
			if s == nil {
				continue
			}
			switch s.ShaderType() {
			case shader.ShaderTypeVertex:
				p.vertexShader = s
			case shader.ShaderTypeFragment:
				p.fragmentShader = s
			case shader.ShaderTypeCompute:
				p.computeShader = s
			}
		}
	}
}
