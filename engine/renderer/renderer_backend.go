package renderer

// RendererBackend is the GPU device a Renderer uploads compressed mip chains to and flushes
// resolved uniforms through. NewRenderer uses the WebGPU implementation unless WithBackend
// supplies another one; the renderer never talks to the device directly.
type RendererBackend interface {
	wgpuRendererBackend
}
