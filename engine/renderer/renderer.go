package renderer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUnknownPipeline is returned when a pipeline key has not been registered.
	ErrUnknownPipeline = errors.New("pipeline is not registered")

	// ErrUnalignedTexture is returned when a compressed texture's base size is not a multiple of the block size.
	ErrUnalignedTexture = errors.New("compressed texture size is not a multiple of the block size")
)

// samplerKey identifies the texture and sampler configuration a GPU sampler was created from.
type samplerKey struct {
	source  Texture
	version uint64
}

// groupState tracks what has been bound to one bind group of a registered pipeline.
type groupState struct {
	descriptor wgpu.BindGroupLayoutDescriptor
	textures   map[int]Texture
	samplers   map[int]samplerKey
	built      bool
	dirty      bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	providers     map[string]map[int]bind_group_provider.BindGroupProvider
	groups        map[string]map[int]*groupState
	textures      []*gpuTexture

	backend  RendererBackend
	profiler *profiler.Profiler

	screenWidth, screenHeight int

	// Pre-creation config collected from builder options
	device               *wgpu.Device
	forceFallbackAdapter bool
	pendingPipelines     []pipeline.Pipeline
}

// Renderer defines the interface for the texture and uniform side of a rendering system.
//
// The Renderer uploads compressed textures with their full mip chains, owns the bind group
// resources of every registered pipeline, and applies the uniform bindings collected by a
// uniform.Binder right before a draw. Issuing the draw itself is left to the host, which reads
// the prepared bind groups through BindGroups.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the registered Pipelines keyed by PipelineKey.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates a BindGroupProvider for every bind group of each pipeline,
	// allocates uniform staging memory and GPU buffers, then caches the pipeline by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if buffer creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// UploadTexture creates a GPU texture holding every mip level of a compressed texture.
	//
	// Parameters:
	//   - tex: the compressed texture to upload
	//
	// Returns:
	//   - Texture: the GPU resident texture, bindable through uniform.Texture
	//   - error: ErrUnalignedTexture for base sizes that are not block aligned, or a backend error
	UploadTexture(tex texture.CompressedTexture) (Texture, error)

	// SetScreenSize sets the render target size written to screen uniforms.
	//
	// Parameters:
	//   - width: the render target width in pixels
	//   - height: the render target height in pixels
	SetScreenSize(width, height int)

	// ScreenSize returns the render target size written to screen uniforms.
	ScreenSize() (int, int)

	// PrepareDraw resolves the binder's pending uniforms against a pipeline, stages and flushes the
	// resulting buffer writes, binds textures and rebuilds the bind groups that changed.
	// Bindings that resolve are applied even when others fail. Failed bindings are returned as
	// joined *uniform.BindingError values and the caller should skip the draw.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - binder: the binder holding the pending uniform values, consumed by this call
	//
	// Returns:
	//   - error: ErrUnknownPipeline, or the joined binding and bind group errors
	PrepareDraw(pipelineKey string, binder uniform.Binder) error

	// BindGroupProvider returns the provider of one bind group of a registered pipeline, or nil.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered pipeline
	//   - group: the bind group index
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider or nil
	BindGroupProvider(pipelineKey string, group int) bind_group_provider.BindGroupProvider

	// BindGroups returns the providers of a registered pipeline ordered by group index.
	BindGroups(pipelineKey string) []bind_group_provider.BindGroupProvider

	// Backend returns the GPU backend used by the renderer.
	Backend() RendererBackend

	// Profiler returns the profiler collecting upload and draw statistics.
	Profiler() *profiler.Profiler

	// Release releases every provider, uploaded texture and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer. Without WithBackend or WithDevice a headless WebGPU device
// with BC texture compression is requested.
//
// Parameters:
//   - options: functional options configuring the renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: an error if the GPU device could not be acquired or a pipeline could not be registered
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		providers:     make(map[string]map[int]bind_group_provider.BindGroupProvider),
		groups:        make(map[string]map[int]*groupState),
	}
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch {
		case r.device != nil:
			r.backend = newWGPURendererBackend(r.device)
		default:
			b, err := newHeadlessWGPURendererBackend(r.forceFallbackAdapter)
			if err != nil {
				return nil, err
			}
			r.backend = b
		}
	}
	if r.profiler == nil {
		r.profiler = profiler.NewProfiler()
	}

	if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
		r.Release()
		return nil, err
	}
	r.pendingPipelines = nil

	return r, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}

		layouts := p.BindGroupLayoutDescriptors()
		providers := make(map[int]bind_group_provider.BindGroupProvider, len(layouts))
		states := make(map[int]*groupState, len(layouts))
		for g, desc := range layouts {
			provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s/%d", key, g),
				bind_group_provider.WithGroup(g))
			for _, entry := range desc.Entries {
				if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
					provider.AllocateStaging(int(entry.Binding), common.RoundUp(16, entry.Buffer.MinBindingSize))
				}
			}
			if err := r.backend.InitUniformBuffers(provider, desc); err != nil {
				provider.Release()
				for _, created := range providers {
					created.Release()
				}
				return fmt.Errorf("register pipeline %q group %d: %w", key, g, err)
			}
			providers[g] = provider
			states[g] = &groupState{
				descriptor: desc,
				textures:   make(map[int]Texture),
				samplers:   make(map[int]samplerKey),
			}
		}

		r.pipelineCache[key] = p
		r.providers[key] = providers
		r.groups[key] = states
		common.Logger().Info("pipeline registered", "pipeline", key, "groups", len(layouts), "uniforms", len(p.Uniforms()))
	}

	return nil
}

func (r *renderer) UploadTexture(tex texture.CompressedTexture) (Texture, error) {
	if tex == nil {
		return nil, errors.New("upload texture: nil texture")
	}
	w, h, err := tex.Dimensions(0)
	if err != nil {
		return nil, err
	}
	if w%texture.BlockDim != 0 || h%texture.BlockDim != 0 {
		return nil, fmt.Errorf("upload texture %q (%dx%d): %w", tex.Label(), w, h, ErrUnalignedTexture)
	}

	gpuTex, view, err := r.backend.InitTexture(tex.Label(), tex.Format().WGPUFormat(), uint32(w), uint32(h), tex.StagingLevels())
	if err != nil {
		return nil, fmt.Errorf("upload texture %q: %w", tex.Label(), err)
	}

	t := newGPUTexture(tex, gpuTex, view)
	r.mu.Lock()
	r.textures = append(r.textures, t)
	r.mu.Unlock()

	r.profiler.RecordUpload(tex.ByteSize())
	common.Logger().Debug("texture uploaded", "label", tex.Label(), "format", tex.Format().String(),
		"width", w, "height", h, "levels", tex.MipmapCount())
	return t, nil
}

func (r *renderer) SetScreenSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screenWidth, r.screenHeight = width, height
}

func (r *renderer) ScreenSize() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screenWidth, r.screenHeight
}

func (r *renderer) PrepareDraw(pipelineKey string, binder uniform.Binder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pipelineCache[pipelineKey]
	if !ok {
		binder.Reset()
		return fmt.Errorf("%w: %q", ErrUnknownPipeline, pipelineKey)
	}
	providers := r.providers[pipelineKey]
	states := r.groups[pipelineKey]

	res, resolveErr := binder.Resolve(p)
	errs := []error{resolveErr}

	writes := make([]bind_group_provider.BufferWrite, 0, len(res.Writes)+1)
	for _, w := range res.Writes {
		provider := providers[w.Group]
		if provider == nil {
			errs = append(errs, &uniform.BindingError{Name: w.Name, Reason: fmt.Sprintf("group %d has no provider", w.Group)})
			continue
		}
		bw, err := provider.Stage(w.Binding, w.Offset, w.Data)
		if err != nil {
			errs = append(errs, &uniform.BindingError{Name: w.Name, Reason: err.Error()})
			continue
		}
		writes = append(writes, bw)
	}

	for _, tw := range res.Textures {
		tex, ok := tw.Ref.(Texture)
		if !ok {
			errs = append(errs, &uniform.BindingError{Name: tw.Name, Reason: fmt.Sprintf("%T is not an uploaded texture", tw.Ref)})
			continue
		}
		state := states[tw.Group]
		if state == nil {
			errs = append(errs, &uniform.BindingError{Name: tw.Name, Reason: fmt.Sprintf("group %d has no provider", tw.Group)})
			continue
		}
		if state.textures[tw.Binding] != tex {
			state.textures[tw.Binding] = tex
			providers[tw.Group].SetTextureView(tw.Binding, tex.View())
			state.dirty = true
		}
	}

	screenWrites, err := r.stageScreen(p, providers)
	errs = append(errs, err)
	writes = append(writes, screenWrites...)

	if len(writes) > 0 {
		r.backend.WriteBuffers(writes)
	}

	errs = append(errs, r.buildBindGroups(p, providers, states)...)

	joined := errors.Join(errs...)
	n := countErrors(joined)
	r.profiler.RecordDraw(n)
	r.profiler.Tick()
	if joined != nil {
		common.Logger().Warn("draw prepared with errors", "pipeline", pipelineKey, "errors", n, "err", joined)
	}
	return joined
}

// stageScreen writes the screen size into every buffer binding declared with the screen identity.
func (r *renderer) stageScreen(p pipeline.Pipeline, providers map[int]bind_group_provider.BindGroupProvider) ([]bind_group_provider.BufferWrite, error) {
	var writes []bind_group_provider.BufferWrite
	var errs []error
	seen := make(map[[2]int]bool)
	screen := uniform.NewGPUScreenUniform(r.screenWidth, r.screenHeight)

	for _, decl := range p.Declarations() {
		if decl.Identity() != shader.AnnotationArgScreen || decl.Group == nil || decl.Binding == nil {
			continue
		}
		key := [2]int{*decl.Group, *decl.Binding}
		if seen[key] {
			continue
		}
		seen[key] = true

		provider := providers[*decl.Group]
		if provider == nil || provider.StagingData(*decl.Binding) == nil {
			continue
		}
		w, err := provider.Stage(*decl.Binding, 0, screen.Marshal())
		if err != nil {
			errs = append(errs, fmt.Errorf("screen uniform: %w", err))
			continue
		}
		writes = append(writes, w)
	}
	return writes, errors.Join(errs...)
}

// buildBindGroups creates samplers and bind groups for every group whose bound resources changed.
// Groups with an unbound texture are reported and left without a bind group.
func (r *renderer) buildBindGroups(p pipeline.Pipeline, providers map[int]bind_group_provider.BindGroupProvider, states map[int]*groupState) []error {
	var errs []error

	groups := make([]int, 0, len(states))
	for g := range states {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	for _, g := range groups {
		state := states[g]
		provider := providers[g]

		missing := false
		for _, entry := range state.descriptor.Entries {
			b := int(entry.Binding)
			if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined && state.textures[b] == nil {
				errs = append(errs, &uniform.BindingError{Name: p.BindGroupVarName(g, b), Reason: "no texture bound"})
				missing = true
			}
		}
		if missing {
			continue
		}

		for _, entry := range state.descriptor.Entries {
			if entry.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
				continue
			}
			b := int(entry.Binding)
			want := samplerKey{}
			staging := DefaultSamplerStagingData()
			if src := state.textures[b-1]; src != nil {
				want = samplerKey{source: src, version: src.SamplerVersion()}
				staging = src.Sampler()
			}
			if have, ok := state.samplers[b]; ok && have == want {
				continue
			}
			if err := r.backend.InitSampler(provider, b, staging); err != nil {
				errs = append(errs, fmt.Errorf("%s sampler %d: %w", provider.Label(), b, err))
				continue
			}
			state.samplers[b] = want
			state.dirty = true
		}

		if state.built && !state.dirty {
			continue
		}
		if err := r.backend.InitBindGroup(provider, state.descriptor); err != nil {
			errs = append(errs, fmt.Errorf("%s bind group: %w", provider.Label(), err))
			continue
		}
		state.built = true
		state.dirty = false
	}

	return errs
}

func (r *renderer) BindGroupProvider(pipelineKey string, group int) bind_group_provider.BindGroupProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.providers[pipelineKey][group]
}

func (r *renderer) BindGroups(pipelineKey string) []bind_group_provider.BindGroupProvider {
	r.mu.Lock()
	defer r.mu.Unlock()

	providers := r.providers[pipelineKey]
	out := make([]bind_group_provider.BindGroupProvider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Group() < out[j].Group()
	})
	return out
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Profiler() *profiler.Profiler {
	return r.profiler
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, providers := range r.providers {
		for _, p := range providers {
			p.Release()
		}
		delete(r.providers, key)
	}
	clear(r.groups)
	clear(r.pipelineCache)
	for _, t := range r.textures {
		t.Release()
	}
	r.textures = nil
	if r.backend != nil {
		r.backend.Release()
	}
}

// countErrors returns the number of leaf errors in a tree built with errors.Join.
func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += countErrors(e)
		}
		return n
	}
	return 1
}
