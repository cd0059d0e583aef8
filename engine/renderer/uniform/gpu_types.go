package uniform

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUScreenUniformSource is the WGSL definition of the built-in ScreenUniform struct.
// Matches GPUScreenUniform layout exactly (16 bytes).
const GPUScreenUniformSource = `struct ScreenUniform {
    size: vec2<f32>,
    inv_size: vec2<f32>,
}
`

// GPUTexelInfoSource is the WGSL definition of the built-in TexelInfo struct.
// Matches GPUTexelInfo layout exactly (16 bytes).
const GPUTexelInfoSource = `struct TexelInfo {
    size: vec2<f32>,
    mip_count: f32,
    lod_bias: f32,
}
`

// GPUScreenUniform is the GPU-aligned representation of the screen uniform buffer.
// Size: 16 bytes.
type GPUScreenUniform struct {
	Resolution [2]float32 // offset 0: render target size in pixels
	InvSize    [2]float32 // offset 8: reciprocal of Resolution
}

// NewGPUScreenUniform creates the screen uniform for a render target of width x height pixels.
// Zero dimensions produce a zero reciprocal.
func NewGPUScreenUniform(width, height int) GPUScreenUniform {
	u := GPUScreenUniform{Resolution: [2]float32{float32(width), float32(height)}}
	if width > 0 {
		u.InvSize[0] = 1 / float32(width)
	}
	if height > 0 {
		u.InvSize[1] = 1 / float32(height)
	}
	return u
}

// Size returns the size of the GPUScreenUniform struct in bytes.
func (g *GPUScreenUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUScreenUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUScreenUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Resolution[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Resolution[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.InvSize[0]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.InvSize[1]))
	return buf
}

// GPUTexelInfo describes a bound texture to shaders that declare a TexelInfo uniform.
// Size: 16 bytes.
type GPUTexelInfo struct {
	Size     [2]float32 // offset 0: base level size in texels
	MipCount float32    // offset 8: number of mip levels
	LodBias  float32    // offset 12: sampler level of detail bias
}

// Bind records every field of the texel info on b under varName, addressing the fields
// as "<varName>.size", "<varName>.mip_count" and "<varName>.lod_bias".
//
// Parameters:
//   - b: the binder to record the values on
//   - varName: the name of the TexelInfo uniform variable in the shader
//
// Returns:
//   - error: the first Bind error, if any
func (g GPUTexelInfo) Bind(b Binder, varName string) error {
	if err := b.Bind(varName+".size", Vec2(g.Size[0], g.Size[1])); err != nil {
		return err
	}
	if err := b.Bind(varName+".mip_count", Scalar(g.MipCount)); err != nil {
		return err
	}
	return b.Bind(varName+".lod_bias", Scalar(g.LodBias))
}
