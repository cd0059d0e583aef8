package loader

import (
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/h2non/filetype/types"
)

// loaderBackend defines the generic interface for decoding compressed textures from a container format.
// Concrete implementations (e.g., ddsLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Type returns the file type the backend decodes, as registered with the filetype matcher.
	Type() types.Type

	// Decode decodes a complete container file held in memory.
	//
	// Parameters:
	//   - b: the file contents
	//   - options: texture options applied on top of those derived from the container header
	//
	// Returns:
	//   - texture.CompressedTexture: the decoded texture
	//   - error: error if decoding fails
	Decode(b []byte, options ...texture.CompressedTextureBuilderOption) (texture.CompressedTexture, error)
}
