package texture

// CompressedTextureBuilderOption is a functional option used to configure a CompressedTexture during construction.
type CompressedTextureBuilderOption func(*compressedTexture)

// WithLabel sets the debug label of the texture.
//
// Parameters:
//   - label: the label, usually the source path
//
// Returns:
//   - CompressedTextureBuilderOption: a function that applies the label option
func WithLabel(label string) CompressedTextureBuilderOption {
	return func(t *compressedTexture) {
		t.label = label
	}
}

// WithMipLevels supplies an explicit mip chain, typically parsed from a container that stores
// levels at arbitrary offsets. The chain is validated by NewCompressedTexture.
//
// Parameters:
//   - levels: the level descriptors, base first
//
// Returns:
//   - CompressedTextureBuilderOption: a function that applies the explicit chain
func WithMipLevels(levels []MipLevel) CompressedTextureBuilderOption {
	return func(t *compressedTexture) {
		t.explicitLevels = levels
		if t.explicitLevels == nil {
			t.explicitLevels = []MipLevel{}
		}
	}
}

// WithMipmapCount derives a packed chain of count levels, base included. A count below 1
// makes NewCompressedTexture fail.
//
// Parameters:
//   - count: the number of levels
//
// Returns:
//   - CompressedTextureBuilderOption: a function that applies the level count
func WithMipmapCount(count int) CompressedTextureBuilderOption {
	return func(t *compressedTexture) {
		t.mipCount = count
		t.mipCountSet = true
	}
}

// WithFullMipChain derives a packed chain continuing down to 1x1.
//
// Returns:
//   - CompressedTextureBuilderOption: a function that requests the full chain
func WithFullMipChain() CompressedTextureBuilderOption {
	return func(t *compressedTexture) {
		t.fullChain = true
	}
}

// WithRequireFullMipChain makes construction fail with ErrIncompleteMipChain when the chain does not reach 1x1.
// Use it for textures that must support mipmap filtering.
//
// Returns:
//   - CompressedTextureBuilderOption: a function that enables the requirement
func WithRequireFullMipChain() CompressedTextureBuilderOption {
	return func(t *compressedTexture) {
		t.requireFullChain = true
	}
}
