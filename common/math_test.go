package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		multiple, value, want uint64
	}{
		{4, 1, 4},
		{4, 4, 4},
		{4, 5, 8},
		{16, 12, 16},
		{0, 7, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUp(tt.multiple, tt.value), "RoundUp(%d, %d)", tt.multiple, tt.value)
	}
}

func TestIdentity(t *testing.T) {
	m := []float32{9, 9, 9, 9, 9, 9, 9, 9, 9}
	Identity(m, 3)
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, m)
}

