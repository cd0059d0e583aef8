package uniform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
		comps int
	}{
		{name: "scalar", value: Scalar(1), want: "f32", comps: 1},
		{name: "vec2", value: Vec2(1, 2), want: "vec2<f32>", comps: 2},
		{name: "vec3", value: Vec3(1, 2, 3), want: "vec3<f32>", comps: 3},
		{name: "vec4", value: Vec4(1, 2, 3, 4), want: "vec4<f32>", comps: 4},
		{name: "mat2", value: Mat2([4]float32{}), want: "mat2x2<f32>", comps: 4},
		{name: "mat3", value: Mat3([9]float32{}), want: "mat3x3<f32>", comps: 9},
		{name: "mat4", value: Mat4([16]float32{}), want: "mat4x4<f32>", comps: 16},
		{name: "texture", value: Texture(fakeTexture("t")), want: "texture", comps: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Shape().String())
			assert.Len(t, tt.value.Floats(), tt.comps)
		})
	}
}

func TestVector_InvalidArity(t *testing.T) {
	_, err := Vector(1)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Vector(1, 2, 3, 4, 5)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestMatrix_Invalid(t *testing.T) {
	_, err := Matrix(5, make([]float32, 25))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Matrix(3, make([]float32, 4))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestIdentity(t *testing.T) {
	v, err := Identity(3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, v.Floats())

	_, err = Identity(1)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFloats_ReturnsCopy(t *testing.T) {
	v := Vec2(1, 2)
	f := v.Floats()
	f[0] = 9
	assert.Equal(t, []float32{1, 2}, v.Floats())
}

func TestElementSize(t *testing.T) {
	assert.Equal(t, uint64(4), ElementSize(Shape{Kind: KindScalar, Size: 1}))
	assert.Equal(t, uint64(12), ElementSize(Shape{Kind: KindVector, Size: 3}))
	assert.Equal(t, uint64(16), ElementSize(Shape{Kind: KindMatrix, Size: 2}))
	assert.Equal(t, uint64(44), ElementSize(Shape{Kind: KindMatrix, Size: 3}))
	assert.Equal(t, uint64(64), ElementSize(Shape{Kind: KindMatrix, Size: 4}))
	assert.Equal(t, uint64(0), ElementSize(Shape{Kind: KindTexture}))
}

func TestGPUScreenUniform_Marshal(t *testing.T) {
	u := NewGPUScreenUniform(800, 0)
	data := u.Marshal()
	require.Len(t, data, 16)
	assert.Equal(t, float32(800), floatAt(t, data, 0))
	assert.Equal(t, float32(1.0/800), floatAt(t, data, 8))
	assert.Equal(t, float32(0), floatAt(t, data, 12))
}
