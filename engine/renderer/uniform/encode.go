package uniform

import (
	"encoding/binary"
	"math"
)

// ElementSize returns the number of bytes one value of the shape occupies in the
// WGSL uniform address space, excluding trailing array padding.
//
// Parameters:
//   - s: the value shape
//
// Returns:
//   - uint64: the encoded size in bytes, 0 for textures
func ElementSize(s Shape) uint64 {
	switch s.Kind {
	case KindScalar:
		return 4
	case KindVector:
		return uint64(s.Size) * 4
	case KindMatrix:
		return uint64(s.Size-1)*columnStride(s.Size) + uint64(s.Size)*4
	default:
		return 0
	}
}

// columnStride is the distance between matrix columns. vec3 columns are aligned to 16 bytes.
func columnStride(dim int) uint64 {
	if dim == 2 {
		return 8
	}
	return 16
}

// encodeValue writes v into buf at the start, honouring matrix column alignment.
func encodeValue(buf []byte, v Value) {
	s := v.shape
	if s.Kind != KindMatrix {
		for i := range s.Components() {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v.data[i]))
		}
		return
	}
	stride := int(columnStride(s.Size))
	for c := range s.Size {
		for r := range s.Size {
			binary.LittleEndian.PutUint32(buf[c*stride+r*4:], math.Float32bits(v.data[c*s.Size+r]))
		}
	}
}

// encodeValues packs values for slot into a single contiguous region starting at slot.Offset.
// Padding between array elements is zero.
func encodeValues(slot Slot, values []Value) []byte {
	elem := ElementSize(slot.Shape)
	size := elem
	if len(values) > 1 {
		size = uint64(len(values)-1)*slot.Stride + elem
	}
	buf := make([]byte, size)
	for i, v := range values {
		encodeValue(buf[uint64(i)*slot.Stride:], v)
	}
	return buf
}
