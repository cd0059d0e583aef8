package uniform

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTexture string

func (f fakeTexture) Label() string { return string(f) }

func floatAt(t *testing.T, data []byte, offset int) float32 {
	t.Helper()
	require.GreaterOrEqual(t, len(data), offset+4)
	return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
}

func testTable() SymbolMap {
	return SymbolMap{
		"alpha":    {Name: "alpha", Group: 0, Binding: 0, Offset: 0, Shape: Shape{Kind: KindScalar, Size: 1}},
		"tint":     {Name: "tint", Group: 0, Binding: 0, Offset: 16, Shape: Shape{Kind: KindVector, Size: 4}},
		"normal":   {Name: "normal", Group: 0, Binding: 0, Offset: 32, Shape: Shape{Kind: KindMatrix, Size: 3}},
		"lights":   {Name: "lights", Group: 1, Binding: 2, Offset: 0, Shape: Shape{Kind: KindVector, Size: 4}, ArrayLen: 3, Stride: 16},
		"weights":  {Name: "weights", Group: 1, Binding: 3, Offset: 0, Shape: Shape{Kind: KindVector, Size: 3}, ArrayLen: 4, Stride: 16},
		"diffuse":  {Name: "diffuse", Group: 2, Binding: 0, Shape: Shape{Kind: KindTexture}},
		"rotation": {Name: "rotation", Group: 0, Binding: 1, Offset: 0, Shape: Shape{Kind: KindMatrix, Size: 2}},
	}
}

func TestBinder_BindRejectsMixedShapes(t *testing.T) {
	b := NewBinder()

	err := b.Bind("lights", Vec4(1, 0, 0, 1), Scalar(2))

	var mismatch *ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, "lights", mismatch.Name)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, Shape{Kind: KindVector, Size: 4}, mismatch.Want)
	assert.Equal(t, Shape{Kind: KindScalar, Size: 1}, mismatch.Got)
	assert.Empty(t, b.Pending())
}

func TestBinder_FailedBindKeepsPreviousValue(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("tint", Vec4(1, 2, 3, 4)))

	err := b.Bind("tint", Vec4(0, 0, 0, 0), Vec3(1, 1, 1))
	require.Error(t, err)

	pending := b.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, []float32{1, 2, 3, 4}, pending[0].Values[0].Floats())
}

func TestBinder_BindErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  []Value
		wantErr error
	}{
		{name: "no values", values: nil, wantErr: ErrNoValues},
		{name: "nil texture", values: []Value{Texture(nil)}, wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinder()
			err := b.Bind("u", tt.values...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, b.Pending())
		})
	}
}

func TestBinder_PendingKeepsBindOrder(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("b", Scalar(1)))
	require.NoError(t, b.Bind("a", Scalar(2)))
	require.NoError(t, b.Bind("b", Scalar(3)))

	pending := b.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Name)
	assert.Equal(t, []float32{3}, pending[0].Values[0].Floats())
	assert.Equal(t, "a", pending[1].Name)
}

func TestBinder_ResolveEncodesScalarAndVector(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("alpha", Scalar(0.5)))
	require.NoError(t, b.Bind("tint", Vec4(1, 2, 3, 4)))

	res, err := b.Resolve(testTable())
	require.NoError(t, err)
	require.Len(t, res.Writes, 2)

	alpha := res.Writes[0]
	assert.Equal(t, uint64(0), alpha.Offset)
	assert.Len(t, alpha.Data, 4)
	assert.Equal(t, float32(0.5), floatAt(t, alpha.Data, 0))

	tint := res.Writes[1]
	assert.Equal(t, uint64(16), tint.Offset)
	require.Len(t, tint.Data, 16)
	for i, want := range []float32{1, 2, 3, 4} {
		assert.Equal(t, want, floatAt(t, tint.Data, i*4))
	}
}

func TestBinder_ResolvePadsMatrixColumns(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("normal", Mat3([9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})))
	require.NoError(t, b.Bind("rotation", Mat2([4]float32{1, 2, 3, 4})))

	res, err := b.Resolve(testTable())
	require.NoError(t, err)
	require.Len(t, res.Writes, 2)

	normal := res.Writes[0].Data
	require.Len(t, normal, 44)
	assert.Equal(t, float32(3), floatAt(t, normal, 8))
	assert.Equal(t, float32(0), floatAt(t, normal, 12))
	assert.Equal(t, float32(4), floatAt(t, normal, 16))
	assert.Equal(t, float32(9), floatAt(t, normal, 40))

	rotation := res.Writes[1].Data
	require.Len(t, rotation, 16)
	assert.Equal(t, float32(3), floatAt(t, rotation, 8))
}

func TestBinder_ResolveArrayUsesStride(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("weights", Vec3(1, 1, 1), Vec3(2, 2, 2)))

	res, err := b.Resolve(testTable())
	require.NoError(t, err)
	require.Len(t, res.Writes, 1)

	w := res.Writes[0]
	assert.Equal(t, 1, w.Group)
	assert.Equal(t, 3, w.Binding)
	require.Len(t, w.Data, 28)
	assert.Equal(t, float32(1), floatAt(t, w.Data, 8))
	assert.Equal(t, float32(0), floatAt(t, w.Data, 12))
	assert.Equal(t, float32(2), floatAt(t, w.Data, 16))
}

func TestBinder_ResolveTexture(t *testing.T) {
	b := NewBinder()
	tex := fakeTexture("grass")
	require.NoError(t, b.Bind("diffuse", Texture(tex)))

	res, err := b.Resolve(testTable())
	require.NoError(t, err)
	assert.Empty(t, res.Writes)
	require.Len(t, res.Textures, 1)
	assert.Equal(t, TextureWrite{Name: "diffuse", Group: 2, Binding: 0, Ref: tex}, res.Textures[0])
}

func TestBinder_ResolveReportsBindingErrors(t *testing.T) {
	tests := []struct {
		name   string
		bind   string
		values []Value
	}{
		{name: "unknown name", bind: "missing", values: []Value{Scalar(1)}},
		{name: "wrong shape", bind: "tint", values: []Value{Vec3(1, 2, 3)}},
		{name: "array too long", bind: "lights", values: []Value{Vec4(0, 0, 0, 0), Vec4(0, 0, 0, 0), Vec4(0, 0, 0, 0), Vec4(0, 0, 0, 0)}},
		{name: "array on scalar", bind: "alpha", values: []Value{Scalar(1), Scalar(2)}},
		{name: "texture on vector", bind: "tint", values: []Value{Texture(fakeTexture("t"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinder()
			require.NoError(t, b.Bind(tt.bind, tt.values...))

			res, err := b.Resolve(testTable())
			require.Error(t, err)
			assert.True(t, res.Empty())

			var be *BindingError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.bind, be.Name)
			assert.ErrorIs(t, err, ErrBinding)
		})
	}
}

func TestBinder_ResolveAppliesValidBindingsAlongsideErrors(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("alpha", Scalar(1)))
	require.NoError(t, b.Bind("missing", Scalar(1)))
	require.NoError(t, b.Bind("also_missing", Vec2(1, 2)))

	res, err := b.Resolve(testTable())
	require.Error(t, err)
	require.Len(t, res.Writes, 1)
	assert.Equal(t, "alpha", res.Writes[0].Name)

	var names []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var be *BindingError
		require.True(t, errors.As(e, &be))
		names = append(names, be.Name)
	}
	assert.Equal(t, []string{"missing", "also_missing"}, names)
}

func TestBinder_ResolveConsumesPendingOnce(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("missing", Scalar(1)))

	_, err := b.Resolve(testTable())
	require.Error(t, err)
	assert.Empty(t, b.Pending())

	res, err := b.Resolve(testTable())
	assert.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestBinder_ResolveWithoutProgram(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("alpha", Scalar(1)))

	_, err := b.Resolve(nil)
	assert.ErrorIs(t, err, ErrBinding)
}

func TestBinder_Reset(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.Bind("alpha", Scalar(1)))
	b.Reset()
	assert.Empty(t, b.Pending())
}

func TestGPUTexelInfo_Bind(t *testing.T) {
	b := NewBinder()
	info := GPUTexelInfo{Size: [2]float32{256, 128}, MipCount: 9}
	require.NoError(t, info.Bind(b, "texel"))

	pending := b.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, "texel.size", pending[0].Name)
	assert.Equal(t, []float32{256, 128}, pending[0].Values[0].Floats())
	assert.Equal(t, []float32{9}, pending[1].Values[0].Floats())
}
