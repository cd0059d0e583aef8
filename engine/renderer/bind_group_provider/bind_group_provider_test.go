package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindGroupProvider_Stage(t *testing.T) {
	p := NewBindGroupProvider("sprite/1", WithGroup(1), WithStaging(0, 32))
	assert.Equal(t, "sprite/1", p.Label())
	assert.Equal(t, 1, p.Group())

	w, err := p.Stage(0, 16, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 0, w.Binding)
	assert.Equal(t, uint64(16), w.Offset)
	assert.Equal(t, []byte{1, 2, 3, 4}, w.Data)
	assert.Equal(t, p, w.Provider)

	staged := p.StagingData(0)
	require.Len(t, staged, 32)
	assert.Equal(t, []byte{1, 2, 3, 4}, staged[16:20])
	assert.Equal(t, byte(0), staged[15])
}

func TestBindGroupProvider_StageErrors(t *testing.T) {
	p := NewBindGroupProvider("p", WithStaging(0, 16))

	_, err := p.Stage(1, 0, []byte{1})
	assert.ErrorIs(t, err, ErrStagingOutOfRange)

	_, err = p.Stage(0, 14, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrStagingOutOfRange)
	assert.Equal(t, make([]byte, 16), p.StagingData(0))
}

func TestBindGroupProvider_AllocateStagingResets(t *testing.T) {
	p := NewBindGroupProvider("p")
	p.AllocateStaging(2, 8)
	_, err := p.Stage(2, 0, []byte{9})
	require.NoError(t, err)

	p.AllocateStaging(2, 4)
	assert.Equal(t, []byte{0, 0, 0, 0}, p.StagingData(2))
}

func TestBindGroupProvider_ReleaseDropsState(t *testing.T) {
	p := NewBindGroupProvider("p", WithStaging(0, 4))
	p.SetTextureView(1, nil)
	p.SetBuffer(0, nil)

	p.Release()

	assert.Empty(t, p.TextureViews())
	assert.Empty(t, p.Buffers())
	assert.Nil(t, p.StagingData(0))
	assert.Nil(t, p.BindGroup())
}
