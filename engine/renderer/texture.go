package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultSamplerStagingData is the sampler configuration of a freshly uploaded texture:
// linear filtering, clamped addressing and no mipmap filtering, so only the base level is sampled.
func DefaultSamplerStagingData() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   0,
		MaxAnisotropy: 1,
	}
}

// gpuTexture is the implementation of the Texture interface.
type gpuTexture struct {
	mu *sync.Mutex

	source texture.CompressedTexture
	tex    *wgpu.Texture
	view   *wgpu.TextureView

	sampler        common.SamplerStagingData
	samplerVersion uint64
	mipmapFilter   bool
	lodBias        float32

	released bool
}

// Texture is a compressed texture resident on the GPU together with its sampler state.
// It satisfies uniform.TextureRef so it can be bound to texture uniforms through a Binder.
type Texture interface {
	uniform.TextureRef

	// Source returns the CPU-side compressed texture the GPU texture was created from.
	Source() texture.CompressedTexture

	// Width returns the base level width in texels.
	Width() int

	// Height returns the base level height in texels.
	Height() int

	// MipmapCount returns the number of mip levels uploaded to the GPU.
	MipmapCount() int

	// View returns the texture view covering every mip level.
	View() *wgpu.TextureView

	// GPUTexture returns the underlying GPU texture.
	GPUTexture() *wgpu.Texture

	// Sampler returns the sampler configuration used wherever this texture is bound.
	Sampler() common.SamplerStagingData

	// SamplerVersion increases every time the sampler configuration changes.
	SamplerVersion() uint64

	// SetFilter sets the minification and magnification filters.
	//
	// Parameters:
	//   - min: the minification filter
	//   - mag: the magnification filter
	SetFilter(min, mag wgpu.FilterMode)

	// SetWrap sets the horizontal and vertical addressing modes.
	//
	// Parameters:
	//   - u: the addressing mode along the horizontal axis
	//   - v: the addressing mode along the vertical axis
	SetWrap(u, v wgpu.AddressMode)

	// SetMipmapFilter enables sampling across the mip chain with the given filter. Mipmap filtering
	// needs a chain that continues down to 1x1.
	//
	// Parameters:
	//   - mode: the filter used between mip levels
	//
	// Returns:
	//   - error: an error wrapping texture.ErrIncompleteMipChain when the chain is incomplete
	SetMipmapFilter(mode wgpu.MipmapFilterMode) error

	// DisableMipmapFilter restricts sampling to the base level.
	DisableMipmapFilter()

	// MipmapFilterEnabled reports whether mipmap filtering is active.
	MipmapFilterEnabled() bool

	// SetLodBias sets the level of detail bias reported through TexelInfo.
	SetLodBias(bias float32)

	// TexelInfo returns the values for a TexelInfo uniform describing this texture.
	TexelInfo() uniform.GPUTexelInfo

	// Release releases the GPU texture and view. It is safe to call more than once.
	Release()
}

var _ Texture = &gpuTexture{}

func newGPUTexture(source texture.CompressedTexture, tex *wgpu.Texture, view *wgpu.TextureView) *gpuTexture {
	return &gpuTexture{
		mu:      &sync.Mutex{},
		source:  source,
		tex:     tex,
		view:    view,
		sampler: DefaultSamplerStagingData(),
	}
}

func (t *gpuTexture) Label() string {
	return t.source.Label()
}

func (t *gpuTexture) Source() texture.CompressedTexture {
	return t.source
}

func (t *gpuTexture) Width() int {
	w, _, _ := t.source.Dimensions(0)
	return w
}

func (t *gpuTexture) Height() int {
	_, h, _ := t.source.Dimensions(0)
	return h
}

func (t *gpuTexture) MipmapCount() int {
	return t.source.MipmapCount()
}

func (t *gpuTexture) View() *wgpu.TextureView {
	return t.view
}

func (t *gpuTexture) GPUTexture() *wgpu.Texture {
	return t.tex
}

func (t *gpuTexture) Sampler() common.SamplerStagingData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sampler
}

func (t *gpuTexture) SamplerVersion() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.samplerVersion
}

func (t *gpuTexture) SetFilter(min, mag wgpu.FilterMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler.MinFilter = min
	t.sampler.MagFilter = mag
	t.samplerVersion++
}

func (t *gpuTexture) SetWrap(u, v wgpu.AddressMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler.AddressModeU = u
	t.sampler.AddressModeV = v
	t.samplerVersion++
}

func (t *gpuTexture) SetMipmapFilter(mode wgpu.MipmapFilterMode) error {
	if err := t.source.ValidateMipmapFiltering(); err != nil {
		return fmt.Errorf("set mipmap filter on %q: %w", t.source.Label(), err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler.MipmapFilter = mode
	t.sampler.LodMaxClamp = float32(t.source.MipmapCount())
	t.mipmapFilter = true
	t.samplerVersion++
	return nil
}

func (t *gpuTexture) DisableMipmapFilter() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sampler.MipmapFilter = wgpu.MipmapFilterModeNearest
	t.sampler.LodMaxClamp = 0
	t.mipmapFilter = false
	t.samplerVersion++
}

func (t *gpuTexture) MipmapFilterEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mipmapFilter
}

func (t *gpuTexture) SetLodBias(bias float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lodBias = bias
}

func (t *gpuTexture) TexelInfo() uniform.GPUTexelInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, h, _ := t.source.Dimensions(0)
	return uniform.GPUTexelInfo{
		Size:     [2]float32{float32(w), float32(h)},
		MipCount: float32(t.source.MipmapCount()),
		LodBias:  t.lodBias,
	}
}

func (t *gpuTexture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}
