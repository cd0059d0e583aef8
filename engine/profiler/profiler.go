package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-tex/common"
)

// Stats is a snapshot of the counters accumulated since the last report.
type Stats struct {
	Draws          int
	BindingErrors  int
	Uploads        int
	UploadedBytes  int
	Decodes        int
	DecodedBytes   int
	Elapsed        time.Duration
	HeapMB         float64
	AllocRateMBSec float64
	GCCount        uint32
}

// Profiler tracks texture traffic, draw preparation and memory statistics.
// Stats are reported through the common logger at a configurable interval.
// All methods are safe for concurrent use.
type Profiler struct {
	mu sync.Mutex

	current        Stats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	now            func() time.Time
}

// ProfilerOption is a functional option used to configure a Profiler during construction.
type ProfilerOption func(*Profiler)

// WithInterval sets how often Tick reports statistics.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithClock replaces the time source used to measure report intervals.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options configuring the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordUpload counts a texture upload of size bytes.
func (p *Profiler) RecordUpload(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Uploads++
	p.current.UploadedBytes += size
}

// RecordDecode counts a decoded texture file of size bytes.
func (p *Profiler) RecordDecode(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Decodes++
	p.current.DecodedBytes += size
}

// RecordDraw counts a prepared draw and the binding errors it surfaced.
func (p *Profiler) RecordDraw(bindingErrors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Draws++
	p.current.BindingErrors += bindingErrors
}

// Snapshot returns the counters accumulated since the last report without resetting them.
func (p *Profiler) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.current
	s.Elapsed = p.now().Sub(p.lastTime)
	return s
}

// Tick reports and resets the statistics once the update interval has elapsed.
// Statistics include draw and upload counts, heap usage, allocation rate and GC count.
//
// Returns:
//   - Stats: the reported statistics, zero when nothing was reported
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	s := p.current
	s.Elapsed = elapsed
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	if elapsed > 0 {
		s.AllocRateMBSec = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()
	}
	s.GCCount = p.memStats.NumGC

	common.Logger().Info("profiler",
		"draws", s.Draws,
		"binding_errors", s.BindingErrors,
		"uploads", s.Uploads,
		"uploaded_bytes", s.UploadedBytes,
		"decodes", s.Decodes,
		"decoded_bytes", s.DecodedBytes,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb_s", s.AllocRateMBSec,
		"gc", s.GCCount,
	)

	p.current = Stats{}
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}
