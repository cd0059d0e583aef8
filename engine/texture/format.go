package texture

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// CompressionFormat identifies a GPU-native block compression codec.
// Every supported codec encodes 4x4 texel blocks into either 8 or 16 bytes.
type CompressionFormat int

const (
	// FormatUndefined is the zero value and is never a supported codec.
	FormatUndefined CompressionFormat = iota

	// FormatDXT1 is BC1: RGB with optional 1-bit alpha, 8 bytes per block.
	FormatDXT1

	// FormatDXT3 is BC2: RGB with explicit 4-bit alpha, 16 bytes per block.
	FormatDXT3

	// FormatDXT5 is BC3: RGB with interpolated alpha, 16 bytes per block.
	FormatDXT5

	// FormatBC4 is a single unsigned normalized channel, 8 bytes per block.
	FormatBC4

	// FormatBC4s is a single signed normalized channel, 8 bytes per block.
	FormatBC4s

	// FormatBC5 (3Dc / ATI2) holds two unsigned normalized channels, 16 bytes per block.
	FormatBC5

	// FormatBC5s holds two signed normalized channels, 16 bytes per block.
	FormatBC5s

	// FormatBC6H is unsigned half-float HDR RGB, 16 bytes per block.
	FormatBC6H

	// FormatBC6Hs is signed half-float HDR RGB, 16 bytes per block.
	FormatBC6Hs

	// FormatBC7 is high quality RGBA, 16 bytes per block.
	FormatBC7

	// FormatDXT1sRGB is FormatDXT1 with sRGB encoded color.
	FormatDXT1sRGB

	// FormatDXT3sRGB is FormatDXT3 with sRGB encoded color.
	FormatDXT3sRGB

	// FormatDXT5sRGB is FormatDXT5 with sRGB encoded color.
	FormatDXT5sRGB

	// FormatBC7sRGB is FormatBC7 with sRGB encoded color.
	FormatBC7sRGB
)

// BlockDim is the width and height in texels of one compressed block for every supported codec.
const BlockDim = 4

// MaxDimension is the largest base width or height a texture may declare. It bounds every
// size computed from untrusted container headers so chain sizes cannot overflow int.
const MaxDimension = 1 << 16

// formatInfo describes the static properties of a supported codec.
type formatInfo struct {
	name      string
	blockSize int
	wgpu      wgpu.TextureFormat
}

// formatTable is the supported codec set. A CompressionFormat missing from this table is unsupported.
var formatTable = map[CompressionFormat]formatInfo{
	FormatDXT1:     {"DXT1", 8, wgpu.TextureFormatBC1RGBAUnorm},
	FormatDXT3:     {"DXT3", 16, wgpu.TextureFormatBC2RGBAUnorm},
	FormatDXT5:     {"DXT5", 16, wgpu.TextureFormatBC3RGBAUnorm},
	FormatBC4:      {"BC4", 8, wgpu.TextureFormatBC4RUnorm},
	FormatBC4s:     {"BC4s", 8, wgpu.TextureFormatBC4RSnorm},
	FormatBC5:      {"BC5", 16, wgpu.TextureFormatBC5RGUnorm},
	FormatBC5s:     {"BC5s", 16, wgpu.TextureFormatBC5RGSnorm},
	FormatBC6H:     {"BC6H", 16, wgpu.TextureFormatBC6HRGBUfloat},
	FormatBC6Hs:    {"BC6Hs", 16, wgpu.TextureFormatBC6HRGBFloat},
	FormatBC7:      {"BC7", 16, wgpu.TextureFormatBC7RGBAUnorm},
	FormatDXT1sRGB: {"DXT1sRGB", 8, wgpu.TextureFormatBC1RGBAUnormSrgb},
	FormatDXT3sRGB: {"DXT3sRGB", 16, wgpu.TextureFormatBC2RGBAUnormSrgb},
	FormatDXT5sRGB: {"DXT5sRGB", 16, wgpu.TextureFormatBC3RGBAUnormSrgb},
	FormatBC7sRGB:  {"BC7sRGB", 16, wgpu.TextureFormatBC7RGBAUnormSrgb},
}

// formatAliases maps the alternate codec names accepted by ParseCompressionFormat.
var formatAliases = map[string]CompressionFormat{
	"bc1":  FormatDXT1,
	"bc2":  FormatDXT3,
	"bc3":  FormatDXT5,
	"ati1": FormatBC4,
	"ati2": FormatBC5,
	"3dc":  FormatBC5,
}

// IsSupported reports whether the format belongs to the supported codec set.
//
// Parameters:
//   - f: the format to check
//
// Returns:
//   - bool: true if the codec is supported
func IsSupported(f CompressionFormat) bool {
	_, ok := formatTable[f]
	return ok
}

// SupportedFormats returns every supported codec in declaration order.
//
// Returns:
//   - []CompressionFormat: the supported codec set
func SupportedFormats() []CompressionFormat {
	out := make([]CompressionFormat, 0, len(formatTable))
	for f := FormatDXT1; f <= FormatBC7sRGB; f++ {
		if IsSupported(f) {
			out = append(out, f)
		}
	}
	return out
}

// ParseCompressionFormat resolves a codec name such as "DXT5", "bc3" or "3Dc" to its format.
// Matching is case-insensitive.
//
// Parameters:
//   - name: the codec name
//
// Returns:
//   - CompressionFormat: the resolved format
//   - error: an *UnsupportedFormatError if the name is not a supported codec
func ParseCompressionFormat(name string) (CompressionFormat, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if f, ok := formatAliases[lower]; ok {
		return f, nil
	}
	for f, info := range formatTable {
		if strings.ToLower(info.name) == lower {
			return f, nil
		}
	}
	return FormatUndefined, &UnsupportedFormatError{Format: name}
}

// String returns the canonical codec name, or "Unknown(n)" for unsupported values.
func (f CompressionFormat) String() string {
	if info, ok := formatTable[f]; ok {
		return info.name
	}
	if f == FormatUndefined {
		return "Undefined"
	}
	return "Unknown(" + strconv.Itoa(int(f)) + ")"
}

// BlockSize returns the number of bytes one 4x4 block occupies, or 0 for unsupported formats.
func (f CompressionFormat) BlockSize() int {
	return formatTable[f].blockSize
}

// WGPUFormat returns the WebGPU texture format used to upload this codec.
// Unsupported formats map to wgpu.TextureFormatUndefined.
func (f CompressionFormat) WGPUFormat() wgpu.TextureFormat {
	if info, ok := formatTable[f]; ok {
		return info.wgpu
	}
	return wgpu.TextureFormatUndefined
}

// IsSRGB reports whether the codec stores sRGB encoded color.
func (f CompressionFormat) IsSRGB() bool {
	switch f {
	case FormatDXT1sRGB, FormatDXT3sRGB, FormatDXT5sRGB, FormatBC7sRGB:
		return true
	}
	return false
}

// BlocksWide returns the number of block columns needed to cover width texels.
func BlocksWide(width int) int {
	return max(1, (width+BlockDim-1)/BlockDim)
}

// BlocksHigh returns the number of block rows needed to cover height texels.
func BlocksHigh(height int) int {
	return max(1, (height+BlockDim-1)/BlockDim)
}

// LevelByteSize returns the exact number of bytes a mip level of the given dimensions occupies in this codec.
//
// Parameters:
//   - width: the level width in texels
//   - height: the level height in texels
//
// Returns:
//   - int: the byte size of the level, or 0 for unsupported formats
func (f CompressionFormat) LevelByteSize(width, height int) int {
	return BlocksWide(width) * BlocksHigh(height) * f.BlockSize()
}
