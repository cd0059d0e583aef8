package texture

import (
	"fmt"
	"math/bits"
)

// MipLevel describes one level of a mip chain as a view into the texture's shared byte buffer.
type MipLevel struct {
	// Width and Height are the level dimensions in texels.
	Width, Height int
	// ByteOffset is the position of the level's first byte within the owning buffer.
	ByteOffset int
	// ByteLength is the number of bytes the level occupies.
	ByteLength int
}

// FullMipCount returns the number of levels in a complete chain for a base image,
// counting the base level and ending at 1x1. A 256x256 image has 9 levels.
//
// Parameters:
//   - width: the base width in texels
//   - height: the base height in texels
//
// Returns:
//   - int: the full mip count, or 0 for non-positive dimensions
func FullMipCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return bits.Len(uint(max(width, height)))
}

// LevelDimensions returns the dimensions of a mip level derived from the base dimensions:
// each axis is halved per level and floored at 1.
//
// Parameters:
//   - width: the base width in texels
//   - height: the base height in texels
//   - level: the 0-based mip level
//
// Returns:
//   - int: the level width, 0 for a negative level
//   - int: the level height, 0 for a negative level
func LevelDimensions(width, height, level int) (int, int) {
	if level < 0 {
		return 0, 0
	}
	return max(1, width>>level), max(1, height>>level)
}

// PackedMipChain lays out count levels back to back starting at offset 0, the layout used by
// DDS and most container formats.
//
// Parameters:
//   - format: the codec used to size each level
//   - width: the base width in texels
//   - height: the base height in texels
//   - count: the number of levels including the base
//
// Returns:
//   - []MipLevel: the computed levels
//   - int: the total byte size of the chain
func PackedMipChain(format CompressionFormat, width, height, count int) ([]MipLevel, int) {
	levels := make([]MipLevel, count)
	offset := 0
	for i := range levels {
		w, h := LevelDimensions(width, height, i)
		size := format.LevelByteSize(w, h)
		levels[i] = MipLevel{Width: w, Height: h, ByteOffset: offset, ByteLength: size}
		offset += size
	}
	return levels, offset
}

// packedCountForSize finds the number of packed levels whose combined size is exactly size.
// Level sizes are positive so at most one count can match.
func packedCountForSize(format CompressionFormat, width, height, size int) (int, bool) {
	total := 0
	for i := 0; i < FullMipCount(width, height); i++ {
		w, h := LevelDimensions(width, height, i)
		total += format.LevelByteSize(w, h)
		if total == size {
			return i + 1, true
		}
		if total > size {
			break
		}
	}
	return 0, false
}

// validateMipChain checks every construction-time invariant of a chain:
// the base matches the declared dimensions, each level halves-and-floors the previous,
// no level follows a 1x1 level, every level has the codec's exact byte length and lies
// inside a buffer of bufLen bytes.
func validateMipChain(format CompressionFormat, width, height int, levels []MipLevel, bufLen int) error {
	if len(levels) == 0 {
		return &InvalidMipChainError{Level: 0, Reason: "chain has no levels"}
	}
	if levels[0].Width != width || levels[0].Height != height {
		return &InvalidMipChainError{Level: 0, Reason: fmt.Sprintf("base level is %dx%d, want %dx%d", levels[0].Width, levels[0].Height, width, height)}
	}
	for i, lvl := range levels {
		if i > 0 {
			prev := levels[i-1]
			if prev.Width == 1 && prev.Height == 1 {
				return &InvalidMipChainError{Level: i, Reason: "level follows a 1x1 level"}
			}
			wantW, wantH := max(1, prev.Width>>1), max(1, prev.Height>>1)
			if lvl.Width != wantW || lvl.Height != wantH {
				return &InvalidMipChainError{Level: i, Reason: fmt.Sprintf("level is %dx%d, want %dx%d", lvl.Width, lvl.Height, wantW, wantH)}
			}
		}
		if want := format.LevelByteSize(lvl.Width, lvl.Height); lvl.ByteLength != want {
			return &InvalidMipChainError{Level: i, Reason: fmt.Sprintf("byte length %d, want %d for %s %dx%d", lvl.ByteLength, want, format, lvl.Width, lvl.Height)}
		}
		if lvl.ByteOffset < 0 || lvl.ByteOffset > bufLen || lvl.ByteLength > bufLen-lvl.ByteOffset {
			return &InvalidMipChainError{Level: i, Reason: fmt.Sprintf("%d bytes at offset %d outside buffer of %d bytes", lvl.ByteLength, lvl.ByteOffset, bufLen)}
		}
	}
	return nil
}
