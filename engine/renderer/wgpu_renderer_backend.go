package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	// ownsDevice is true when the backend requested the device itself and must release it.
	ownsDevice bool
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// InitTexture creates a GPU texture holding every level of a block-compressed mip chain and
	// a view over all of its levels. Each level is written with its own WriteTexture call using
	// block-based row pitch and block-aligned copy extents.
	//
	// Parameters:
	//   - label: a debug label for the texture
	//   - format: the compressed wgpu texture format
	//   - width: the base level width in texels
	//   - height: the base level height in texels
	//   - levels: the staging data for each mip level, base level first
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - *wgpu.TextureView: a view covering all mip levels
	//   - error: an error if the texture or view could not be created
	InitTexture(label string, format wgpu.TextureFormat, width, height uint32, levels []common.TextureLevelStagingData) (*wgpu.Texture, *wgpu.TextureView, error)

	// InitUniformBuffers creates a GPU buffer for every buffer entry in the descriptor that the
	// provider does not hold yet. Uniform buffers are sized from the provider's staging memory
	// when present, otherwise from MinBindingSize.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - descriptor: the layout descriptor of the provider's group
	//
	// Returns:
	//   - error: an error if a buffer could not be created
	InitUniformBuffers(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitSampler creates a GPU sampler based on the provided staging data, and stores it on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the integer key identifying the bind group layout entry for this sampler
	//   - samplerStagingData: the SamplerStagingData containing the configuration for creating the sampler
	//
	// Returns:
	//   - error: an error if the sampler could not be created or initialized, otherwise nil
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// InitBindGroup creates the bind group for a provider from its buffers, texture views and samplers.
	// The layout is created on first use and cached on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the bound resources
	//   - descriptor: the BindGroupLayoutDescriptor describing the layout of the bind group
	//
	// Returns:
	//   - error: an error if a resource is missing or the bind group could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// Release releases the device and instance when the backend created them.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend wraps a device created by the host. The host keeps ownership of the device.
func newWGPURendererBackend(device *wgpu.Device) wgpuRendererBackend {
	return &wgpuRendererBackendImpl{
		mu:     &sync.Mutex{},
		device: device,
		queue:  device.GetQueue(),
	}
}

// newHeadlessWGPURendererBackend requests an adapter and a device with BC texture compression
// enabled. No surface is created.
func newHeadlessWGPURendererBackend(forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	w := &wgpuRendererBackendImpl{
		mu:         &sync.Mutex{},
		instance:   wgpu.CreateInstance(nil),
		ownsDevice: true,
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "oxy-tex Device",
		RequiredFeatures: []wgpu.FeatureName{wgpu.FeatureNameTextureCompressionBC},
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, fmt.Errorf("request device with BC compression: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) InitTexture(label string, format wgpu.TextureFormat, width, height uint32, levels []common.TextureLevelStagingData) (*wgpu.Texture, *wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(levels) == 0 {
		return nil, nil, errors.New("texture has no mip levels")
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: uint32(len(levels)),
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, lvl := range levels {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: lvl.Level,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			lvl.Data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  lvl.BytesPerRow,
				RowsPerImage: lvl.RowsPerImage,
			},
			&wgpu.Extent3D{
				Width:              lvl.CopyWidth,
				Height:             lvl.CopyHeight,
				DepthOrArrayLayers: 1,
			},
		)
		common.Logger().Debug("texture level written", "label", label, "level", lvl.Level,
			"width", lvl.Width, "height", lvl.Height, "bytes", len(lvl.Data))
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}

	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) InitUniformBuffers(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if entry.Buffer.Type == wgpu.BufferBindingTypeUndefined || provider.Buffer(binding) != nil {
			continue
		}

		var usage wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
			usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		}

		size := common.RoundUp(16, entry.Buffer.MinBindingSize)
		if staged := provider.StagingData(binding); staged != nil {
			size = uint64(len(staged))
		}
		if size == 0 {
			return fmt.Errorf("%s binding %d has no known size", provider.Label(), binding)
		}

		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			return err
		}
		provider.SetBuffer(binding, buf)
	}

	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("texture binding %d has no texture view", binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		case isSampler:
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("sampler binding %d has no sampler", binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				return fmt.Errorf("buffer binding %d has no buffer", binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(samplerDescriptor(provider.Label()+" Sampler", samplerStagingData))
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

// samplerDescriptor copies the staging state into a sampler descriptor unchanged. Zero values are
// meaningful here: AddressModeRepeat, FilterModeNearest and a LodMaxClamp of 0 are all valid
// states. Only MaxAnisotropy is raised to 1, the lowest value WebGPU accepts.
func samplerDescriptor(label string, staging common.SamplerStagingData) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  staging.AddressModeU,
		AddressModeV:  staging.AddressModeV,
		AddressModeW:  staging.AddressModeW,
		MagFilter:     staging.MagFilter,
		MinFilter:     staging.MinFilter,
		MipmapFilter:  staging.MipmapFilter,
		LodMinClamp:   staging.LodMinClamp,
		LodMaxClamp:   staging.LodMaxClamp,
		MaxAnisotropy: max(staging.MaxAnisotropy, 1),
		Compare:       staging.Compare,
	}
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ownsDevice {
		return
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
