package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrStagingOutOfRange is returned when a staged write does not fit the binding's buffer.
var ErrStagingOutOfRange = errors.New("staged write exceeds binding size")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// group is the @group index this provider feeds.
	group int

	// The following fields are GPU allocated resources populated by the renderer backend.

	// bindGroup is the GPU bind group created for this provider, or nil until all bindings are ready.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout created for this provider.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU uniform buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds borrowed texture views keyed by binding index. They are owned by the
	// uploaded textures and are not released with the provider.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers created for this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// staging holds the CPU copy of each uniform buffer, keyed by binding index.
	staging map[int][]byte
}

// BindGroupProvider owns the resources of one bind group of a pipeline: the uniform buffers
// and their CPU staging copies, the samplers, the borrowed texture views and the bind group.
//
// Usage pattern:
//  1. The renderer creates a provider per group when a pipeline is registered
//  2. The backend allocates uniform buffers and staging memory via InitUniformBuffers
//  3. Resolved uniform writes are staged with Stage and flushed with the backend's WriteBuffers
//  4. Once every texture binding has a view, the backend creates the bind group
type BindGroupProvider interface {
	// Release releases the GPU resources owned by this provider. Borrowed texture views are dropped but not released.
	Release()

	// Label returns the debug label for this provider.
	Label() string

	// Group returns the @group index this provider feeds.
	Group() int

	// BindGroup returns the created bind group, or nil if it has not been created yet.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout, or nil if not initialized.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the uniform buffer at a binding, or nil if not initialized.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns all uniform buffers keyed by binding index.
	Buffers() map[int]*wgpu.Buffer

	// TextureView returns the texture view at a binding, or nil if not set.
	TextureView(binding int) *wgpu.TextureView

	// TextureViews returns all texture views keyed by binding index.
	TextureViews() map[int]*wgpu.TextureView

	// Sampler returns the sampler at a binding, or nil if not set.
	Sampler(binding int) *wgpu.Sampler

	// Samplers returns all samplers keyed by binding index.
	Samplers() map[int]*wgpu.Sampler

	// StagingData returns the CPU copy of the uniform buffer at a binding, or nil if none was allocated.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - []byte: the staging memory, shared with the provider
	StagingData(binding int) []byte

	// AllocateStaging allocates zeroed CPU staging memory of size bytes for a binding,
	// replacing any previous allocation.
	//
	// Parameters:
	//   - binding: the binding index
	//   - size: the buffer size in bytes
	AllocateStaging(binding int, size uint64)

	// Stage copies data into the staging memory of a binding at offset and returns the
	// matching BufferWrite for the backend to flush.
	//
	// Parameters:
	//   - binding: the binding index
	//   - offset: the byte offset within the binding
	//   - data: the bytes to stage
	//
	// Returns:
	//   - BufferWrite: the write covering the staged bytes
	//   - error: ErrStagingOutOfRange if the binding has no staging memory or data does not fit
	Stage(binding int, offset uint64, data []byte) (BufferWrite, error)

	// SetBindGroup sets the bind group after GPU initialization, releasing the previous one.
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer sets the uniform buffer for a binding.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores a borrowed texture view for a binding.
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores a sampler for a binding, releasing the previous one.
	SetSampler(binding int, s *wgpu.Sampler)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: a debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
		staging:      make(map[int][]byte),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) TextureViews() map[int]*wgpu.TextureView {
	return p.textureViews
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) Samplers() map[int]*wgpu.Sampler {
	return p.samplers
}

func (p *bindGroupProvider) StagingData(binding int) []byte {
	return p.staging[binding]
}

func (p *bindGroupProvider) AllocateStaging(binding int, size uint64) {
	p.staging[binding] = make([]byte, size)
}

func (p *bindGroupProvider) Stage(binding int, offset uint64, data []byte) (BufferWrite, error) {
	buf, ok := p.staging[binding]
	if !ok {
		return BufferWrite{}, fmt.Errorf("%s binding %d has no uniform buffer: %w", p.label, binding, ErrStagingOutOfRange)
	}
	end := offset + uint64(len(data))
	if end > uint64(len(buf)) || end < offset {
		return BufferWrite{}, fmt.Errorf("%s binding %d: write [%d, %d) exceeds %d bytes: %w",
			p.label, binding, offset, end, len(buf), ErrStagingOutOfRange)
	}
	copy(buf[offset:end], data)
	return BufferWrite{
		Provider: p,
		Binding:  binding,
		Offset:   offset,
		Data:     buf[offset:end:end],
	}, nil
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if old := p.samplers[binding]; old != nil && old != s {
		old.Release()
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	clear(p.textureViews)
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.staging)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
