// Package dds decodes DirectDraw Surface containers into compressed textures.
//
// Only 2D block-compressed surfaces are accepted: legacy FourCC headers (DXT1, DXT3, DXT5,
// ATI1, BC4U, BC4S, ATI2, BC5U, BC5S) and DX10 extended headers carrying a BC1-BC7 DXGI
// format. For texture arrays only the first slice is decoded. Cube maps and volume
// textures are rejected.
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
)

const (
	magic          = 0x20534444 // "DDS "
	headerSize     = 124
	pixelFmtSize   = 32
	dx10HeaderSize = 20

	flagMipMapCount = 0x20000
	pfFlagFourCC    = 0x4
	caps2Cubemap    = 0x200
	caps2Volume     = 0x200000

	dx10Texture2D = 3
)

var (
	// ErrNotDDS is returned when the input does not start with the DDS magic number.
	ErrNotDDS = errors.New("dds: not a DDS file")

	// ErrInvalidHeader is returned when the header is truncated or internally inconsistent.
	ErrInvalidHeader = errors.New("dds: invalid header")

	// ErrUnsupportedLayout is returned for cube maps, volume textures and other non-2D surfaces.
	ErrUnsupportedLayout = errors.New("dds: unsupported surface layout")
)

// fourCCFormats maps legacy FourCC codes to codecs.
var fourCCFormats = map[string]texture.CompressionFormat{
	"DXT1": texture.FormatDXT1,
	"DXT3": texture.FormatDXT3,
	"DXT5": texture.FormatDXT5,
	"ATI1": texture.FormatBC4,
	"BC4U": texture.FormatBC4,
	"BC4S": texture.FormatBC4s,
	"ATI2": texture.FormatBC5,
	"BC5U": texture.FormatBC5,
	"BC5S": texture.FormatBC5s,
}

// dxgiFormats maps DXGI_FORMAT values from the DX10 header to codecs. Typeless variants decode as unorm.
var dxgiFormats = map[uint32]texture.CompressionFormat{
	70: texture.FormatDXT1,
	71: texture.FormatDXT1,
	72: texture.FormatDXT1sRGB,
	73: texture.FormatDXT3,
	74: texture.FormatDXT3,
	75: texture.FormatDXT3sRGB,
	76: texture.FormatDXT5,
	77: texture.FormatDXT5,
	78: texture.FormatDXT5sRGB,
	79: texture.FormatBC4,
	80: texture.FormatBC4,
	81: texture.FormatBC4s,
	82: texture.FormatBC5,
	83: texture.FormatBC5,
	84: texture.FormatBC5s,
	94: texture.FormatBC6H,
	95: texture.FormatBC6H,
	96: texture.FormatBC6Hs,
	97: texture.FormatBC7,
	98: texture.FormatBC7,
	99: texture.FormatBC7sRGB,
}

// Header is the subset of a DDS header needed to locate and size the surface data.
type Header struct {
	Width       int
	Height      int
	MipMapCount int
	Format      texture.CompressionFormat
	// FourCC is the legacy pixel format code, "DX10" when an extended header is present.
	FourCC string
	// DXGIFormat is the DXGI_FORMAT of the extended header, 0 for legacy files.
	DXGIFormat uint32
	// ArraySize is the number of array slices, 1 for legacy files.
	ArraySize int
	// DataOffset is the byte offset of the first mip level of the first slice.
	DataOffset int
}

// IsDDS reports whether b starts with the DDS magic number.
func IsDDS(b []byte) bool {
	return len(b) >= 4 && binary.LittleEndian.Uint32(b) == magic
}

// ParseHeader reads and validates the DDS header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if !IsDDS(b) {
		return Header{}, ErrNotDDS
	}
	if len(b) < 4+headerSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(b), 4+headerSize)
	}
	h := b[4 : 4+headerSize]
	le := binary.LittleEndian

	if size := le.Uint32(h[0:]); size != headerSize {
		return Header{}, fmt.Errorf("%w: header size %d", ErrInvalidHeader, size)
	}
	if pfSize := le.Uint32(h[72:]); pfSize != pixelFmtSize {
		return Header{}, fmt.Errorf("%w: pixel format size %d", ErrInvalidHeader, pfSize)
	}

	hdr := Header{
		Height:     int(le.Uint32(h[8:])),
		Width:      int(le.Uint32(h[12:])),
		ArraySize:  1,
		DataOffset: 4 + headerSize,
	}
	if hdr.Width <= 0 || hdr.Height <= 0 || hdr.Width > texture.MaxDimension || hdr.Height > texture.MaxDimension {
		return Header{}, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidHeader, hdr.Width, hdr.Height)
	}

	hdr.MipMapCount = 1
	if le.Uint32(h[4:])&flagMipMapCount != 0 {
		if n := int(le.Uint32(h[24:])); n > 0 {
			hdr.MipMapCount = n
		}
	}

	if caps2 := le.Uint32(h[108:]); caps2&(caps2Cubemap|caps2Volume) != 0 {
		return Header{}, fmt.Errorf("%w: cube map or volume texture", ErrUnsupportedLayout)
	}

	if le.Uint32(h[76:])&pfFlagFourCC == 0 {
		return Header{}, &texture.UnsupportedFormatError{Format: "uncompressed DDS pixel format"}
	}
	hdr.FourCC = string(h[80:84])

	if hdr.FourCC != "DX10" {
		f, ok := fourCCFormats[hdr.FourCC]
		if !ok {
			return Header{}, &texture.UnsupportedFormatError{Format: hdr.FourCC}
		}
		hdr.Format = f
		return hdr, nil
	}

	if len(b) < hdr.DataOffset+dx10HeaderSize {
		return Header{}, fmt.Errorf("%w: truncated DX10 header", ErrInvalidHeader)
	}
	ext := b[hdr.DataOffset : hdr.DataOffset+dx10HeaderSize]
	hdr.DataOffset += dx10HeaderSize
	hdr.DXGIFormat = le.Uint32(ext[0:])
	if dim := le.Uint32(ext[4:]); dim != dx10Texture2D {
		return Header{}, fmt.Errorf("%w: resource dimension %d", ErrUnsupportedLayout, dim)
	}
	if le.Uint32(ext[8:])&0x4 != 0 {
		return Header{}, fmt.Errorf("%w: cube map", ErrUnsupportedLayout)
	}
	if n := int(le.Uint32(ext[12:])); n > 1 {
		hdr.ArraySize = n
	}
	f, ok := dxgiFormats[hdr.DXGIFormat]
	if !ok {
		return Header{}, &texture.UnsupportedFormatError{Format: fmt.Sprintf("DXGI_FORMAT(%d)", hdr.DXGIFormat)}
	}
	hdr.Format = f
	return hdr, nil
}

// Decode reads a whole DDS stream and decodes it.
//
// Parameters:
//   - r: the DDS stream
//   - options: extra texture options, e.g. texture.WithLabel or texture.WithRequireFullMipChain
//
// Returns:
//   - texture.CompressedTexture: the decoded texture
//   - error: a read, header, format or mip chain error
func Decode(r io.Reader, options ...texture.CompressedTextureBuilderOption) (texture.CompressedTexture, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dds: read: %w", err)
	}
	return DecodeBytes(b, options...)
}

// DecodeBytes decodes an in-memory DDS file. The surface bytes are copied into the texture.
//
// Parameters:
//   - b: the complete DDS file
//   - options: extra texture options appended after the options derived from the header
//
// Returns:
//   - texture.CompressedTexture: the decoded texture
//   - error: a header, format or mip chain error
func DecodeBytes(b []byte, options ...texture.CompressedTextureBuilderOption) (texture.CompressedTexture, error) {
	hdr, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}

	full := texture.FullMipCount(hdr.Width, hdr.Height)
	if hdr.MipMapCount > full {
		return nil, fmt.Errorf("%w: %d mip levels declared, %dx%d allows %d", ErrInvalidHeader, hdr.MipMapCount, hdr.Width, hdr.Height, full)
	}

	_, size := texture.PackedMipChain(hdr.Format, hdr.Width, hdr.Height, hdr.MipMapCount)
	if size > len(b)-hdr.DataOffset {
		return nil, fmt.Errorf("%w: surface needs %d bytes, file has %d", ErrInvalidHeader, size, len(b)-hdr.DataOffset)
	}

	opts := append([]texture.CompressedTextureBuilderOption{texture.WithMipmapCount(hdr.MipMapCount)}, options...)
	tex, err := texture.NewCompressedTexture(hdr.Format, hdr.Width, hdr.Height, b[hdr.DataOffset:hdr.DataOffset+size], opts...)
	if err != nil {
		return nil, fmt.Errorf("dds: %w", err)
	}
	return tex, nil
}
