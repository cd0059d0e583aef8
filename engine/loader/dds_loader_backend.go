package loader

import (
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture/dds"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// ddsType is the DDS file type registered with the filetype matcher set.
var ddsType = filetype.AddType("dds", "image/vnd-ms.dds")

func init() {
	filetype.AddMatcher(ddsType, dds.IsDDS)
}

// ddsLoaderBackendImpl is the loaderBackend for DirectDraw Surface files.
type ddsLoaderBackendImpl struct{}

var _ loaderBackend = &ddsLoaderBackendImpl{}

// newDDSLoaderBackend creates a new DDS loader backend.
func newDDSLoaderBackend() loaderBackend {
	return &ddsLoaderBackendImpl{}
}

func (b *ddsLoaderBackendImpl) Type() types.Type {
	return ddsType
}

func (b *ddsLoaderBackendImpl) Decode(data []byte, options ...texture.CompressedTextureBuilderOption) (texture.CompressedTexture, error) {
	return dds.DecodeBytes(data, options...)
}
