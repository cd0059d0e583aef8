package texture

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionFormat_BlockSize(t *testing.T) {
	tests := []struct {
		format CompressionFormat
		want   int
	}{
		{FormatDXT1, 8},
		{FormatDXT3, 16},
		{FormatDXT5, 16},
		{FormatBC4, 8},
		{FormatBC4s, 8},
		{FormatBC5, 16},
		{FormatBC6H, 16},
		{FormatBC7, 16},
		{FormatDXT1sRGB, 8},
		{FormatUndefined, 0},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.BlockSize())
		})
	}
}

func TestCompressionFormat_LevelByteSize(t *testing.T) {
	tests := []struct {
		name          string
		format        CompressionFormat
		width, height int
		want          int
	}{
		{"dxt1 256", FormatDXT1, 256, 256, 64 * 64 * 8},
		{"dxt5 256", FormatDXT5, 256, 256, 64 * 64 * 16},
		{"dxt1 partial block", FormatDXT1, 5, 3, 2 * 1 * 8},
		{"dxt1 1x1", FormatDXT1, 1, 1, 8},
		{"bc5 2x2", FormatBC5, 2, 2, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.LevelByteSize(tt.width, tt.height))
		})
	}
}

func TestCompressionFormat_WGPUFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBC1RGBAUnorm, FormatDXT1.WGPUFormat())
	assert.Equal(t, wgpu.TextureFormatBC3RGBAUnorm, FormatDXT5.WGPUFormat())
	assert.Equal(t, wgpu.TextureFormatBC5RGUnorm, FormatBC5.WGPUFormat())
	assert.Equal(t, wgpu.TextureFormatBC7RGBAUnormSrgb, FormatBC7sRGB.WGPUFormat())
	assert.Equal(t, wgpu.TextureFormatUndefined, CompressionFormat(99).WGPUFormat())
}

func TestParseCompressionFormat(t *testing.T) {
	tests := []struct {
		name string
		want CompressionFormat
	}{
		{"DXT1", FormatDXT1},
		{"dxt5", FormatDXT5},
		{"BC3", FormatDXT5},
		{"3Dc", FormatBC5},
		{"ati2", FormatBC5},
		{" bc7srgb ", FormatBC7sRGB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompressionFormat(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCompressionFormat("PVRTC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "PVRTC", ufe.Format)
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	assert.Len(t, formats, 14)
	assert.Equal(t, FormatDXT1, formats[0])
	for _, f := range formats {
		assert.True(t, IsSupported(f))
	}
	assert.False(t, IsSupported(FormatUndefined))
}

func TestCompressionFormat_String(t *testing.T) {
	assert.Equal(t, "DXT5", FormatDXT5.String())
	assert.Equal(t, "Undefined", FormatUndefined.String())
	assert.Equal(t, "Unknown(42)", CompressionFormat(42).String())
	assert.True(t, FormatDXT1sRGB.IsSRGB())
	assert.False(t, FormatDXT1.IsSRGB())
}
