package common

// Identity resets a square matrix (flat slice, column-major) of the given dimension to the identity matrix.
//
// Parameters:
//   - m: destination slice (must be at least dim*dim elements)
//   - dim: the number of rows and columns of the matrix
func Identity(m []float32, dim int) {
	for i := range m {
		m[i] = 0
	}
	for i := 0; i < dim; i++ {
		m[i*dim+i] = 1
	}
}

// RoundUp rounds value up to the next multiple of multiple. A multiple of 0 returns value unchanged.
//
// Parameters:
//   - multiple: the step to round to
//   - value: the value to round
//
// Returns:
//   - uint64: value rounded up to the next multiple
func RoundUp(multiple, value uint64) uint64 {
	if multiple == 0 {
		return value
	}
	return (value + multiple - 1) / multiple * multiple
}
