package uniform

import (
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-tex/common"
)

// Kind identifies the family of a shader uniform value.
type Kind int

const (
	KindScalar Kind = iota
	KindVector
	KindMatrix
	KindTexture
)

// Shape describes the WGSL type a Value encodes to.
// Size is the vector arity or the matrix dimension. It is 1 for scalars and 0 for textures.
type Shape struct {
	Kind Kind
	Size int
}

// Components returns the number of float components a value of this shape carries.
//
// Returns:
//   - int: 1 for scalars, N for vecN, N*N for matNxN and 0 for textures
func (s Shape) Components() int {
	switch s.Kind {
	case KindScalar:
		return 1
	case KindVector:
		return s.Size
	case KindMatrix:
		return s.Size * s.Size
	default:
		return 0
	}
}

func (s Shape) String() string {
	switch s.Kind {
	case KindScalar:
		return "f32"
	case KindVector:
		return "vec" + strconv.Itoa(s.Size) + "<f32>"
	case KindMatrix:
		n := strconv.Itoa(s.Size)
		return "mat" + n + "x" + n + "<f32>"
	case KindTexture:
		return "texture"
	default:
		return "unknown(" + strconv.Itoa(int(s.Kind)) + ")"
	}
}

// TextureRef is a handle to a GPU texture that can be bound to a texture uniform.
type TextureRef interface {
	Label() string
}

// Value is a single shader uniform value.
// Matrix components are stored column-major.
type Value struct {
	shape Shape
	data  [16]float32
	tex   TextureRef
}

// Scalar creates an f32 uniform value.
func Scalar(v float32) Value {
	val := Value{shape: Shape{Kind: KindScalar, Size: 1}}
	val.data[0] = v
	return val
}

// Vec2 creates a vec2<f32> uniform value.
func Vec2(x, y float32) Value {
	val, _ := Vector(x, y)
	return val
}

// Vec3 creates a vec3<f32> uniform value.
func Vec3(x, y, z float32) Value {
	val, _ := Vector(x, y, z)
	return val
}

// Vec4 creates a vec4<f32> uniform value.
func Vec4(x, y, z, w float32) Value {
	val, _ := Vector(x, y, z, w)
	return val
}

// Vector creates a vector uniform value from 2 to 4 components.
//
// Parameters:
//   - components: the vector components
//
// Returns:
//   - Value: the vector value
//   - error: ErrInvalidValue if the component count is not in [2, 4]
func Vector(components ...float32) (Value, error) {
	if len(components) < 2 || len(components) > 4 {
		return Value{}, fmt.Errorf("vector with %d components: %w", len(components), ErrInvalidValue)
	}
	val := Value{shape: Shape{Kind: KindVector, Size: len(components)}}
	copy(val.data[:], components)
	return val, nil
}

// Mat2 creates a mat2x2<f32> uniform value from column-major components.
func Mat2(m [4]float32) Value {
	val, _ := Matrix(2, m[:])
	return val
}

// Mat3 creates a mat3x3<f32> uniform value from column-major components.
func Mat3(m [9]float32) Value {
	val, _ := Matrix(3, m[:])
	return val
}

// Mat4 creates a mat4x4<f32> uniform value from column-major components.
func Mat4(m [16]float32) Value {
	val, _ := Matrix(4, m[:])
	return val
}

// Identity creates an identity matrix uniform value of the given dimension.
//
// Parameters:
//   - dim: the matrix dimension, 2 to 4
//
// Returns:
//   - Value: the identity matrix
//   - error: ErrInvalidValue if dim is not in [2, 4]
func Identity(dim int) (Value, error) {
	if dim < 2 || dim > 4 {
		return Value{}, fmt.Errorf("identity matrix of dimension %d: %w", dim, ErrInvalidValue)
	}
	m := make([]float32, dim*dim)
	common.Identity(m, dim)
	return Matrix(dim, m)
}

// Matrix creates a square matrix uniform value.
//
// Parameters:
//   - dim: the matrix dimension, 2 to 4
//   - columnMajor: dim*dim components in column-major order
//
// Returns:
//   - Value: the matrix value
//   - error: ErrInvalidValue on an unsupported dimension or component count
func Matrix(dim int, columnMajor []float32) (Value, error) {
	if dim < 2 || dim > 4 {
		return Value{}, fmt.Errorf("matrix of dimension %d: %w", dim, ErrInvalidValue)
	}
	if len(columnMajor) != dim*dim {
		return Value{}, fmt.Errorf("%dx%d matrix with %d components: %w", dim, dim, len(columnMajor), ErrInvalidValue)
	}
	val := Value{shape: Shape{Kind: KindMatrix, Size: dim}}
	copy(val.data[:], columnMajor)
	return val, nil
}

// Texture creates a texture uniform value referencing ref.
// A nil ref is rejected by Binder.Bind.
func Texture(ref TextureRef) Value {
	return Value{shape: Shape{Kind: KindTexture}, tex: ref}
}

// Shape returns the shape of the value.
func (v Value) Shape() Shape {
	return v.shape
}

// Floats returns a copy of the value's float components.
// Texture values return nil.
func (v Value) Floats() []float32 {
	n := v.shape.Components()
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	copy(out, v.data[:n])
	return out
}

// TextureRef returns the referenced texture, or nil for non-texture values.
func (v Value) TextureRef() TextureRef {
	return v.tex
}
