package uniform

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is matched by ShapeMismatchError.
	ErrShapeMismatch = errors.New("uniform shape mismatch")
	// ErrBinding is matched by BindingError.
	ErrBinding = errors.New("uniform binding failed")
	// ErrNoValues is returned when Bind is called without any values.
	ErrNoValues = errors.New("no uniform values given")
	// ErrInvalidValue is returned for values that cannot be encoded.
	ErrInvalidValue = errors.New("invalid uniform value")
)

// ShapeMismatchError reports a Bind call whose values do not share a single shape.
type ShapeMismatchError struct {
	Name  string
	Index int
	Want  Shape
	Got   Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("uniform %q: value %d has shape %s, expected %s", e.Name, e.Index, e.Got, e.Want)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// BindingError reports a pending binding that could not be applied at draw time.
type BindingError struct {
	Name   string
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("uniform %q: %s", e.Name, e.Reason)
}

func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}
