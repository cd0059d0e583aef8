package texture

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-tex/common"
)

// WholeBuffer requests every byte from the offset to the end of the buffer in RawBytes.
const WholeBuffer = -1

// compressedTexture is the implementation of the CompressedTexture interface.
// It is immutable once NewCompressedTexture returns.
type compressedTexture struct {
	label  string
	format CompressionFormat
	width  int
	height int

	// data is the single owned buffer. Every entry of levels is a view into it.
	data   []byte
	levels []MipLevel

	// The following fields are only consulted during construction and are set by builder options.

	explicitLevels   []MipLevel
	mipCount         int
	mipCountSet      bool
	fullChain        bool
	requireFullChain bool
}

// CompressedTexture is an immutable block of GPU-ready compressed pixel data together with its
// mip chain. Mip levels are 0-indexed, level 0 is the base image, and the level count includes
// the base. The texture exclusively owns its byte buffer; levels are offset/length views into it.
// A CompressedTexture is safe for concurrent reads.
type CompressedTexture interface {
	// Label returns the debug label of the texture, usually its source path.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Format returns the compression codec of the texture.
	//
	// Returns:
	//   - CompressionFormat: the codec
	Format() CompressionFormat

	// Dimensions returns the width and height of a mip level.
	//
	// Parameters:
	//   - level: the 0-based mip level
	//
	// Returns:
	//   - int: the level width in texels
	//   - int: the level height in texels
	//   - error: an *OutOfRangeError if level is not in [0, MipmapCount())
	Dimensions(level int) (int, int, error)

	// MipmapCount returns the number of mip levels, including the base level.
	//
	// Returns:
	//   - int: the level count
	MipmapCount() int

	// MipLevel returns the descriptor of a single level.
	//
	// Parameters:
	//   - level: the 0-based mip level
	//
	// Returns:
	//   - MipLevel: the level descriptor
	//   - error: an *OutOfRangeError if level is not in [0, MipmapCount())
	MipLevel(level int) (MipLevel, error)

	// MipLevels returns a copy of all level descriptors.
	//
	// Returns:
	//   - []MipLevel: the descriptors ordered from base to smallest
	MipLevels() []MipLevel

	// ByteSize returns the total length of the owned buffer.
	//
	// Returns:
	//   - int: the buffer length in bytes
	ByteSize() int

	// RawBytes returns a copy of length bytes starting at offset. Pass WholeBuffer as length to
	// read to the end of the buffer.
	//
	// Parameters:
	//   - offset: the first byte to read
	//   - length: the number of bytes to read, or WholeBuffer
	//
	// Returns:
	//   - []byte: a new slice of exactly length bytes
	//   - error: an *OutOfRangeError if the range does not fit in [0, ByteSize())
	RawBytes(offset, length int) ([]byte, error)

	// MipData borrows a read-only view of one level's bytes. The view shares the texture's
	// storage and must not be modified; use RawBytes or Clone for an independent copy.
	//
	// Parameters:
	//   - level: the 0-based mip level
	//
	// Returns:
	//   - []byte: the level bytes, with capacity clipped to the level
	//   - error: an *OutOfRangeError if level is not in [0, MipmapCount())
	MipData(level int) ([]byte, error)

	// StagingLevels prepares every level for GPU upload with block-aligned copy extents and row pitches.
	//
	// Returns:
	//   - []common.TextureLevelStagingData: one entry per level, base first
	StagingLevels() []common.TextureLevelStagingData

	// HasFullMipChain reports whether the chain continues down to a 1x1 level.
	//
	// Returns:
	//   - bool: true if the last level is 1x1
	HasFullMipChain() bool

	// ValidateMipmapFiltering checks that the texture can be sampled with mipmap filtering.
	//
	// Returns:
	//   - error: ErrIncompleteMipChain if the chain stops before 1x1, nil otherwise
	ValidateMipmapFiltering() error

	// Clone deep-copies the texture. The result shares no storage with the original.
	//
	// Returns:
	//   - CompressedTexture: the copy
	Clone() CompressedTexture
}

var _ CompressedTexture = &compressedTexture{}

// NewCompressedTexture validates and constructs a CompressedTexture from a decoded container.
// The data slice is copied; the caller keeps ownership of its argument.
//
// Without chain options the level count is derived as the packed chain whose size exactly equals len(data).
// WithMipLevels supplies an explicit chain, WithMipmapCount and WithFullMipChain derive a packed chain of a
// given length. Every chain is validated: unsupported codecs, wrong halving, wrong byte lengths and views
// outside the buffer are rejected here, never at use.
//
// Parameters:
//   - format: the compression codec
//   - width: the base width in texels
//   - height: the base height in texels
//   - data: the compressed bytes of every level
//   - options: functional options configuring the chain and label
//
// Returns:
//   - CompressedTexture: the constructed texture
//   - error: an *UnsupportedFormatError or *InvalidMipChainError if validation fails
func NewCompressedTexture(format CompressionFormat, width, height int, data []byte, options ...CompressedTextureBuilderOption) (CompressedTexture, error) {
	t := &compressedTexture{
		format: format,
		width:  width,
		height: height,
	}
	for _, opt := range options {
		opt(t)
	}

	if !IsSupported(format) {
		return nil, &UnsupportedFormatError{Format: format.String()}
	}
	if width <= 0 || height <= 0 {
		return nil, &InvalidMipChainError{Level: 0, Reason: fmt.Sprintf("base dimensions %dx%d must be positive", width, height)}
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, &InvalidMipChainError{Level: 0, Reason: fmt.Sprintf("base dimensions %dx%d exceed %d", width, height, MaxDimension)}
	}

	full := FullMipCount(width, height)
	switch {
	case t.explicitLevels != nil:
		t.levels = make([]MipLevel, len(t.explicitLevels))
		copy(t.levels, t.explicitLevels)
	case t.fullChain:
		t.levels, _ = PackedMipChain(format, width, height, full)
	case t.mipCountSet:
		if t.mipCount < 1 {
			return nil, &InvalidMipChainError{Level: 0, Reason: fmt.Sprintf("mip count %d must be at least 1", t.mipCount)}
		}
		if t.mipCount > full {
			return nil, &InvalidMipChainError{Level: full, Reason: fmt.Sprintf("%d levels requested but a %dx%d image has at most %d", t.mipCount, width, height, full)}
		}
		t.levels, _ = PackedMipChain(format, width, height, t.mipCount)
	default:
		n, ok := packedCountForSize(format, width, height, len(data))
		if !ok {
			return nil, &InvalidMipChainError{Level: 0, Reason: fmt.Sprintf("%d bytes matches no packed %s chain for %dx%d", len(data), format, width, height)}
		}
		t.levels, _ = PackedMipChain(format, width, height, n)
	}

	if err := validateMipChain(format, width, height, t.levels, len(data)); err != nil {
		return nil, err
	}
	if t.requireFullChain && !t.HasFullMipChain() {
		last := len(t.levels) - 1
		return nil, &InvalidMipChainError{
			Level:  last,
			Reason: fmt.Sprintf("chain ends at %dx%d, mipmap filtering requires 1x1", t.levels[last].Width, t.levels[last].Height),
			Err:    ErrIncompleteMipChain,
		}
	}

	t.data = make([]byte, len(data))
	copy(t.data, data)
	t.explicitLevels = nil

	common.Logger().Debug("texture: constructed compressed texture",
		"label", t.label, "format", format.String(), "width", width, "height", height,
		"levels", len(t.levels), "bytes", len(t.data))
	return t, nil
}

func (t *compressedTexture) Label() string {
	return t.label
}

func (t *compressedTexture) Format() CompressionFormat {
	return t.format
}

func (t *compressedTexture) Dimensions(level int) (int, int, error) {
	if err := t.checkLevel("Dimensions", level); err != nil {
		return 0, 0, err
	}
	return t.levels[level].Width, t.levels[level].Height, nil
}

func (t *compressedTexture) MipmapCount() int {
	return len(t.levels)
}

func (t *compressedTexture) MipLevel(level int) (MipLevel, error) {
	if err := t.checkLevel("MipLevel", level); err != nil {
		return MipLevel{}, err
	}
	return t.levels[level], nil
}

func (t *compressedTexture) MipLevels() []MipLevel {
	out := make([]MipLevel, len(t.levels))
	copy(out, t.levels)
	return out
}

func (t *compressedTexture) ByteSize() int {
	return len(t.data)
}

func (t *compressedTexture) RawBytes(offset, length int) ([]byte, error) {
	size := len(t.data)
	if length == WholeBuffer && offset >= 0 && offset <= size {
		length = size - offset
	}
	if offset < 0 || offset > size || length < 0 || length > size-offset {
		hi := offset + length
		if length > 0 && hi < offset {
			hi = math.MaxInt
		}
		return nil, &OutOfRangeError{Op: "RawBytes", Lo: offset, Hi: hi, Limit: size}
	}
	out := make([]byte, length)
	copy(out, t.data[offset:offset+length])
	return out, nil
}

func (t *compressedTexture) MipData(level int) ([]byte, error) {
	if err := t.checkLevel("MipData", level); err != nil {
		return nil, err
	}
	lvl := t.levels[level]
	end := lvl.ByteOffset + lvl.ByteLength
	return t.data[lvl.ByteOffset:end:end], nil
}

func (t *compressedTexture) StagingLevels() []common.TextureLevelStagingData {
	out := make([]common.TextureLevelStagingData, len(t.levels))
	for i, lvl := range t.levels {
		bw, bh := BlocksWide(lvl.Width), BlocksHigh(lvl.Height)
		end := lvl.ByteOffset + lvl.ByteLength
		out[i] = common.TextureLevelStagingData{
			Level:        uint32(i),
			Width:        uint32(lvl.Width),
			Height:       uint32(lvl.Height),
			CopyWidth:    uint32(bw * BlockDim),
			CopyHeight:   uint32(bh * BlockDim),
			BytesPerRow:  uint32(bw * t.format.BlockSize()),
			RowsPerImage: uint32(bh),
			Data:         t.data[lvl.ByteOffset:end:end],
		}
	}
	return out
}

func (t *compressedTexture) HasFullMipChain() bool {
	last := t.levels[len(t.levels)-1]
	return last.Width == 1 && last.Height == 1
}

func (t *compressedTexture) ValidateMipmapFiltering() error {
	if t.HasFullMipChain() {
		return nil
	}
	return fmt.Errorf("%d of %d mip levels present: %w", len(t.levels), FullMipCount(t.width, t.height), ErrIncompleteMipChain)
}

func (t *compressedTexture) Clone() CompressedTexture {
	c := &compressedTexture{
		label:  t.label,
		format: t.format,
		width:  t.width,
		height: t.height,
		data:   make([]byte, len(t.data)),
		levels: make([]MipLevel, len(t.levels)),
	}
	copy(c.data, t.data)
	copy(c.levels, t.levels)
	return c
}

// checkLevel returns an *OutOfRangeError when level is not a valid index into the chain.
func (t *compressedTexture) checkLevel(op string, level int) error {
	if level < 0 || level >= len(t.levels) {
		return &OutOfRangeError{Op: op, Lo: level, Hi: level + 1, Limit: len(t.levels)}
	}
	return nil
}
