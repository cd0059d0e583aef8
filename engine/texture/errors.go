package texture

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange matches every *OutOfRangeError.
	ErrOutOfRange = errors.New("texture: out of range")

	// ErrUnsupportedFormat matches every *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("texture: unsupported compression format")

	// ErrInvalidMipChain matches every *InvalidMipChainError.
	ErrInvalidMipChain = errors.New("texture: invalid mip chain")

	// ErrIncompleteMipChain is returned when mipmap filtering is requested for a texture whose
	// mip chain does not continue down to a 1x1 level.
	ErrIncompleteMipChain = errors.New("texture: mip chain does not reach 1x1")
)

// OutOfRangeError reports a mip level or byte range request outside the valid range [0, Limit).
type OutOfRangeError struct {
	// Op names the operation that rejected the request (e.g. "Dimensions", "RawBytes").
	Op string
	// Lo and Hi bound the requested half-open range [Lo, Hi).
	Lo, Hi int
	// Limit is the exclusive upper bound of the valid range.
	Limit int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("texture: %s: requested [%d, %d) outside [0, %d)", e.Op, e.Lo, e.Hi, e.Limit)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// UnsupportedFormatError reports a compression codec outside the supported set.
type UnsupportedFormatError struct {
	// Format is the rejected codec as it was presented (format name, FourCC or DXGI code).
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("texture: unsupported compression format %q", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// InvalidMipChainError reports a mip chain rejected during construction.
type InvalidMipChainError struct {
	// Level is the first offending mip level.
	Level int
	// Reason describes the violated rule.
	Reason string
	// Err is an optional more specific cause, such as ErrIncompleteMipChain.
	Err error
}

func (e *InvalidMipChainError) Error() string {
	return fmt.Sprintf("texture: invalid mip chain at level %d: %s", e.Level, e.Reason)
}

func (e *InvalidMipChainError) Is(target error) bool {
	return target == ErrInvalidMipChain
}

func (e *InvalidMipChainError) Unwrap() error {
	return e.Err
}
