package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-tex/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tex/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dxt1File encodes a legacy DXT1 DDS file of the given size and mip count with a packed payload.
func dxt1File(width, height, mips int) []byte {
	var buf bytes.Buffer
	w := func(v uint32) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	w(0x20534444) // "DDS "
	w(124)
	w(0x1007 | 0x20000)
	w(uint32(height))
	w(uint32(width))
	w(0)
	w(0)
	w(uint32(mips))
	for range 11 {
		w(0)
	}
	w(32)
	w(0x4)
	buf.WriteString("DXT1")
	for range 5 {
		w(0)
	}
	w(0x1000)
	for range 4 {
		w(0)
	}

	_, size := texture.PackedMipChain(texture.FormatDXT1, width, height, mips)
	buf.Write(make([]byte, size))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoader_LoadTexture(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "brick.dds", dxt1File(8, 8, 4))
	p := profiler.NewProfiler()
	l := NewLoader(nil, WithProfiler(p))

	tex, err := l.LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, texture.FormatDXT1, tex.Format())
	assert.Equal(t, 4, tex.MipmapCount())
	assert.Equal(t, path, tex.Label())
	assert.True(t, tex.HasFullMipChain())

	again, err := l.LoadTexture(path)
	require.NoError(t, err)
	assert.Same(t, tex, again)
	assert.Equal(t, 1, p.Snapshot().Decodes)
	assert.Equal(t, tex, l.Texture(path))
}

func TestLoader_LoadTextureIdentifiesByContent(t *testing.T) {
	dir := t.TempDir()
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	tests := []struct {
		name    string
		file    string
		data    []byte
		wantErr error
		msg     string
	}{
		{name: "dds with odd extension", file: "brick.bin", data: dxt1File(4, 4, 1)},
		{name: "png", file: "photo.dds", data: png, wantErr: texture.ErrUnsupportedFormat, msg: "png"},
		{name: "garbage", file: "noise.dds", data: []byte("not a texture at all"), wantErr: texture.ErrUnsupportedFormat, msg: "unrecognized"},
		{name: "empty", file: "empty.dds", data: nil, wantErr: texture.ErrUnsupportedFormat},
	}

	l := NewLoader([]LoaderBackendType{BackendTypeDDS})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			_, err := l.LoadTexture(path)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.msg != "" {
				assert.ErrorContains(t, err, tt.msg)
			}
			assert.Nil(t, l.Texture(path))
		})
	}
}

func TestLoader_LoadTextureMissingFile(t *testing.T) {
	l := NewLoader(nil)
	_, err := l.LoadTexture(filepath.Join(t.TempDir(), "missing.dds"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_RequireFullMipChain(t *testing.T) {
	dir := t.TempDir()
	partial := writeFile(t, dir, "partial.dds", dxt1File(8, 8, 2))

	_, err := NewLoader(nil).LoadTexture(partial)
	require.NoError(t, err)

	_, err = NewLoader(nil, WithRequireFullMipChain()).LoadTexture(partial)
	assert.ErrorIs(t, err, texture.ErrInvalidMipChain)
	assert.ErrorIs(t, err, texture.ErrIncompleteMipChain)
}

func TestLoader_LoadTextures(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 12 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("tex%02d.dds", i), dxt1File(16, 16, 5)))
	}
	bad := writeFile(t, dir, "bad.dds", []byte("GIF89a........"))
	paths = append(paths, bad, paths[0])

	l := NewLoader(nil, WithWorkers(4))
	loaded, err := l.LoadTextures(paths...)
	require.Error(t, err)
	assert.ErrorIs(t, err, texture.ErrUnsupportedFormat)
	assert.ErrorContains(t, err, "bad.dds")

	assert.Len(t, loaded, 12)
	assert.NotContains(t, loaded, bad)
	for _, tex := range loaded {
		assert.Equal(t, 5, tex.MipmapCount())
	}
	assert.Len(t, l.Textures(), 12)
}

func TestLoader_LoadTexturesAllSucceed(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dds", dxt1File(4, 4, 1))
	b := writeFile(t, dir, "b.dds", dxt1File(8, 4, 3))

	loaded, err := NewLoader(nil, WithWorkers(0)).LoadTextures(a, b)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	w, h, err := loaded[b].Dimensions(2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, []int{w, h})
}

func TestLoader_LoadTextureReader(t *testing.T) {
	l := NewLoader(nil, WithTextureOptions(texture.WithLabel("override")))

	tex, err := l.LoadTextureReader("memory", bytes.NewReader(dxt1File(4, 4, 1)))
	require.NoError(t, err)
	assert.Equal(t, "override", tex.Label())
	assert.Same(t, tex, l.Texture("memory"))

	_, err = l.LoadTextureReader("broken", iotestErrReader{})
	assert.ErrorContains(t, err, "broken")
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestLoader_LoadShader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tint.wgsl", []byte(`
@group(0) @binding(0) var<uniform> tint: vec4<f32>;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return tint;
}
`))
	compiler := shader.CompilerFunc(func(string) (shader.CompileResult, error) {
		return shader.CompileResult{Warnings: []string{"unused"}}, nil
	})
	l := NewLoader(nil, WithCompiler(compiler))

	s, err := l.LoadShader(path, shader.ShaderTypeFragment)
	require.NoError(t, err)
	assert.Equal(t, "tint", s.Key())
	assert.Equal(t, []string{"unused"}, s.CompileWarnings())
	_, ok := s.LookupUniform("tint")
	assert.True(t, ok)

	again, err := l.LoadShader(path, shader.ShaderTypeFragment)
	require.NoError(t, err)
	assert.Same(t, s, again)

	assert.True(t, l.Evict(path))
	assert.Nil(t, l.Shader(path))
	assert.False(t, l.Evict(path))

	_, err = l.LoadShader(filepath.Join(dir, "missing.wgsl"), shader.ShaderTypeFragment)
	assert.Error(t, err)
}

func TestLoader_WithTexture(t *testing.T) {
	tex, err := texture.NewCompressedTexture(texture.FormatBC4, 4, 4, make([]byte, 8))
	require.NoError(t, err)

	l := NewLoader(nil, WithTexture("cached", tex))
	got, err := l.LoadTexture("cached")
	require.NoError(t, err)
	assert.Same(t, tex, got)
}
