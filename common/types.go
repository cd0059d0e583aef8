// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureLevelStagingData holds the block-compressed bytes of a single mip level pending GPU upload.
// The texture package produces one of these per level and the renderer backend consumes them when
// writing each level of a GPU texture.
type TextureLevelStagingData struct {
	// Level is the 0-based mip level index this data belongs to.
	Level uint32
	// Width and Height are the logical dimensions of the level in texels.
	Width, Height uint32
	// CopyWidth and CopyHeight are the block-aligned copy extents required by the GPU for compressed formats.
	// They are the logical dimensions rounded up to the next multiple of the block dimension.
	CopyWidth, CopyHeight uint32
	// BytesPerRow is the number of bytes in one row of blocks.
	BytesPerRow uint32
	// RowsPerImage is the number of block rows in the level.
	RowsPerImage uint32
	// Data is a read-only view into the owning texture's buffer. It must not be modified.
	Data []byte
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping and similar techniques.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering, which can improve texture quality at oblique viewing angles.
	MaxAnisotropy uint16
}
