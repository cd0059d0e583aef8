package renderer

import (
	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline registers a Pipeline when the renderer is created.
//
// Parameters:
//   - p: the Pipeline to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPipelines = append(r.pendingPipelines, p)
	}
}

// WithBackend uses the given backend instead of creating a WebGPU one.
//
// Parameters:
//   - backend: the RendererBackend to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithDevice builds the WebGPU backend on a device owned by the host. The device must have
// the BC texture compression feature enabled and is not released by the renderer.
//
// Parameters:
//   - device: the host's WebGPU device
//
// Returns:
//   - RendererBuilderOption: a function that applies the device option to a renderer
func WithDevice(device *wgpu.Device) RendererBuilderOption {
	return func(r *renderer) {
		r.device = device
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Ignored when WithDevice or WithBackend is used.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithScreenSize sets the initial render target size written to screen uniforms.
func WithScreenSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.screenWidth, r.screenHeight = width, height
	}
}

// WithProfiler shares a profiler with the renderer.
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}
