package shader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spriteFragment = `
//@oxy:group 0 0 storage_uniform screen screen

struct Params {
    tint: vec4<f32>,
    alpha: f32,
    offset: vec2<f32>,
    normal_matrix: mat3x3<f32>,
    weights: array<vec4<f32>, 4>,
}

@group(1) @binding(0) var<uniform> params: Params;
@group(1) @binding(1) var<uniform> time: f32;
//@oxy:provider 2 0 textures
@group(2) @binding(0) var diffuse: texture_2d<f32>;
@group(2) @binding(1) var diffuse_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(diffuse, diffuse_sampler, uv) * params.tint;
}
`

func stubCompiler(warnings ...string) Compiler {
	return CompilerFunc(func(source string) (CompileResult, error) {
		return CompileResult{Code: []byte{0x03, 0x02, 0x23, 0x07}, Warnings: warnings}, nil
	})
}

func newSprite(t *testing.T, c Compiler) Shader {
	t.Helper()
	s, err := NewShader("sprite", ShaderTypeFragment, WithSource(spriteFragment), WithCompiler(c))
	require.NoError(t, err)
	return s
}

func TestNewShader_ParsesLayout(t *testing.T) {
	s := newSprite(t, stubCompiler())

	assert.Equal(t, "sprite", s.Key())
	assert.Equal(t, ShaderTypeFragment, s.ShaderType())
	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{0, 0, 0}, s.WorkgroupSize())
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, s.Code())
	require.NotNil(t, s.Module())
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)
	assert.Contains(t, s.Source(), "struct ScreenUniform")
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<uniform> screen: ScreenUniform;")

	groups := s.BindGroupLayoutDescriptors()
	require.Len(t, groups, 3)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, groups[1].Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageFragment, groups[1].Entries[0].Visibility)
	assert.Equal(t, wgpu.TextureViewDimension2D, groups[2].Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, groups[2].Entries[1].Sampler.Type)

	assert.Equal(t, "diffuse", s.BindGroupVarName(2, 0))
	b, ok := s.BindGroupFromVarName(1, "time")
	assert.True(t, ok)
	assert.Equal(t, 1, b)
	_, ok = s.BindGroupFromVarName(5, "time")
	assert.False(t, ok)

	decls := s.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationArgScreen, decls[0].Identity())
	assert.Equal(t, AnnotationArgTextures, decls[1].Identity())
}

func TestShader_LookupUniform(t *testing.T) {
	s := newSprite(t, stubCompiler())

	tests := []struct {
		name     string
		lookup   string
		wantName string
		group    int
		binding  int
		offset   uint64
		shape    uniform.Shape
		arrayLen int
		stride   uint64
	}{
		{name: "qualified member", lookup: "params.tint", wantName: "params.tint", group: 1, offset: 0, shape: uniform.Shape{Kind: uniform.KindVector, Size: 4}},
		{name: "short member", lookup: "alpha", wantName: "params.alpha", group: 1, offset: 16, shape: uniform.Shape{Kind: uniform.KindScalar, Size: 1}},
		{name: "aligned vec2", lookup: "offset", wantName: "params.offset", group: 1, offset: 24, shape: uniform.Shape{Kind: uniform.KindVector, Size: 2}},
		{name: "matrix member", lookup: "normal_matrix", wantName: "params.normal_matrix", group: 1, offset: 32, shape: uniform.Shape{Kind: uniform.KindMatrix, Size: 3}},
		{name: "array member", lookup: "weights", wantName: "params.weights", group: 1, offset: 80, shape: uniform.Shape{Kind: uniform.KindVector, Size: 4}, arrayLen: 4, stride: 16},
		{name: "plain uniform", lookup: "time", wantName: "time", group: 1, binding: 1, shape: uniform.Shape{Kind: uniform.KindScalar, Size: 1}},
		{name: "texture", lookup: "diffuse", wantName: "diffuse", group: 2, shape: uniform.Shape{Kind: uniform.KindTexture}},
		{name: "builtin struct member", lookup: "screen.size", wantName: "screen.size", group: 0, shape: uniform.Shape{Kind: uniform.KindVector, Size: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := s.LookupUniform(tt.lookup)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, slot.Name)
			assert.Equal(t, tt.group, slot.Group)
			assert.Equal(t, tt.binding, slot.Binding)
			assert.Equal(t, tt.offset, slot.Offset)
			assert.Equal(t, tt.shape, slot.Shape)
			assert.Equal(t, tt.arrayLen, slot.ArrayLen)
			assert.Equal(t, tt.stride, slot.Stride)
		})
	}

	_, ok := s.LookupUniform("diffuse_sampler")
	assert.False(t, ok)
	_, ok = s.LookupUniform("missing")
	assert.False(t, ok)
}

func TestShader_UniformsListsQualifiedNames(t *testing.T) {
	s := newSprite(t, stubCompiler())

	var names []string
	for _, slot := range s.Uniforms() {
		names = append(names, slot.Name)
	}
	assert.Equal(t, []string{
		"diffuse",
		"params.alpha",
		"params.normal_matrix",
		"params.offset",
		"params.tint",
		"params.weights",
		"screen.inv_size",
		"screen.size",
		"time",
	}, names)
}

func TestShader_CompileWarningsPassThrough(t *testing.T) {
	s := newSprite(t, stubCompiler("unused variable 'x'", "implicit conversion"))
	assert.Equal(t, []string{"unused variable 'x'", "implicit conversion"}, s.CompileWarnings())

	clean := newSprite(t, stubCompiler())
	assert.NotNil(t, clean.CompileWarnings())
	assert.Empty(t, clean.CompileWarnings())
}

func TestNewShader_Errors(t *testing.T) {
	compileErr := errors.New("expected ';'")
	failing := CompilerFunc(func(string) (CompileResult, error) {
		return CompileResult{}, compileErr
	})

	t.Run("no source", func(t *testing.T) {
		_, err := NewShader("empty", ShaderTypeFragment, WithCompiler(stubCompiler()))
		assert.ErrorIs(t, err, ErrNoSource)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewShader("missing", ShaderTypeFragment, WithSourcePath(filepath.Join(t.TempDir(), "nope.wgsl")), WithCompiler(stubCompiler()))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("compile failure", func(t *testing.T) {
		_, err := NewShader("broken", ShaderTypeFragment, WithSource(spriteFragment), WithCompiler(failing))
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "broken", ce.Key)
		assert.ErrorIs(t, err, compileErr)
	})

	t.Run("bad annotation", func(t *testing.T) {
		_, err := NewShader("bad", ShaderTypeFragment, WithSource("//@oxy:include camera\n"), WithCompiler(stubCompiler()))
		assert.Error(t, err)
	})
}

func TestNewShader_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(spriteFragment), 0o644))

	s, err := NewShader("sprite", ShaderTypeFragment, WithSourcePath(path), WithCompiler(stubCompiler()))
	require.NoError(t, err)
	_, ok := s.LookupUniform("tint")
	assert.True(t, ok)
}

func TestNewShader_ComputeWorkgroupSize(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(8, 4)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 1.0;
}
`
	s, err := NewShader("fill", ShaderTypeCompute, WithSource(src), WithCompiler(stubCompiler()))
	require.NoError(t, err)
	assert.Equal(t, "cs_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 4, 1}, s.WorkgroupSize())
	assert.Empty(t, s.Uniforms())
}

func TestNagaCompiler(t *testing.T) {
	src := `
struct Params {
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint;
}
`
	s, err := NewShader("tint", ShaderTypeFragment, WithSource(src))
	require.NoError(t, err)
	assert.NotEmpty(t, s.Code())
	assert.Empty(t, s.CompileWarnings())

	_, err = NewShader("garbage", ShaderTypeFragment, WithSource("fn {"))
	var ce *CompileError
	assert.ErrorAs(t, err, &ce)
}

func TestParseShaderType(t *testing.T) {
	for in, want := range map[string]ShaderType{
		"vertex":   ShaderTypeVertex,
		"Fragment": ShaderTypeFragment,
		"pixel":    ShaderTypeFragment,
		"compute":  ShaderTypeCompute,
	} {
		got, err := ParseShaderType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseShaderType("geometry")
	assert.Error(t, err)
}
