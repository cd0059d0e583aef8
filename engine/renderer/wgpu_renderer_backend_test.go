package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tex/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerDescriptor_KeepsZeroValuedModes(t *testing.T) {
	staging := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeMirrorRepeat,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
		LodMaxClamp:  0,
	}

	d := samplerDescriptor("pixel art", staging)
	assert.Equal(t, "pixel art", d.Label)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeV)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, d.AddressModeW)
	assert.Equal(t, wgpu.FilterModeNearest, d.MagFilter)
	assert.Equal(t, wgpu.FilterModeNearest, d.MinFilter)
	assert.Equal(t, wgpu.MipmapFilterModeLinear, d.MipmapFilter)
	assert.Equal(t, float32(0), d.LodMaxClamp)
	assert.Equal(t, uint16(1), d.MaxAnisotropy)
}

func TestSamplerDescriptor_MatchesTextureState(t *testing.T) {
	r, _ := newTestRenderer(t)
	tex, err := r.UploadTexture(dxt1Texture(t))
	require.NoError(t, err)

	tex.SetWrap(wgpu.AddressModeRepeat, wgpu.AddressModeRepeat)
	tex.SetFilter(wgpu.FilterModeNearest, wgpu.FilterModeNearest)
	tex.SetLodBias(2)

	staging := tex.Sampler()
	d := samplerDescriptor("diffuse", staging)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeV)
	assert.Equal(t, wgpu.AddressModeClampToEdge, d.AddressModeW)
	assert.Equal(t, wgpu.FilterModeNearest, d.MinFilter)
	assert.Equal(t, wgpu.FilterModeNearest, d.MagFilter)
	assert.Equal(t, staging.LodMinClamp, d.LodMinClamp)
	assert.Equal(t, staging.MaxAnisotropy, d.MaxAnisotropy)
}
