package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestProfiler_TickReportsAfterInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewProfiler(WithInterval(time.Second), WithClock(clock.now))

	p.RecordUpload(4096)
	p.RecordUpload(1024)
	p.RecordDraw(0)
	p.RecordDraw(2)
	p.RecordDecode(512)

	clock.t = clock.t.Add(500 * time.Millisecond)
	_, ok := p.Tick()
	assert.False(t, ok)

	clock.t = clock.t.Add(600 * time.Millisecond)
	stats, ok := p.Tick()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Uploads)
	assert.Equal(t, 5120, stats.UploadedBytes)
	assert.Equal(t, 2, stats.Draws)
	assert.Equal(t, 2, stats.BindingErrors)
	assert.Equal(t, 1, stats.Decodes)
	assert.Equal(t, 1100*time.Millisecond, stats.Elapsed)

	assert.Equal(t, 0, p.Snapshot().Draws)
}

func TestProfiler_ConcurrentRecording(t *testing.T) {
	p := NewProfiler()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.RecordDecode(1)
			}
		}()
	}
	wg.Wait()

	s := p.Snapshot()
	assert.Equal(t, 800, s.Decodes)
	assert.Equal(t, 800, s.DecodedBytes)
}
