// Package profiler samples buffer upload throughput together with Go heap and GC statistics.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/sirupsen/logrus"
)

// Stats is one sampling window.
type Stats struct {
	Uploads     int
	Bytes       int
	Elapsed     time.Duration
	UploadRate  float64 // uploads per second
	ByteRateMB  float64 // uploaded MB per second
	HeapMB      float64
	AllocRateMB float64 // heap allocation MB per second
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks upload throughput and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	uploads        int
	bytes          int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         logrus.FieldLogger
	now            func() time.Time
}

// NewProfiler creates a new Profiler with the given options applied.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logger:         logging.Component("profiler"),
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()

	runtime.ReadMemStats(&p.memStats)
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return p
}

// Tick records one completed upload of n bytes.
// Logs statistics when the update interval has elapsed.
//
// Parameters:
//   - n: bytes sent to the device by the upload
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(n int) bool {
	p.uploads++
	p.bytes += n

	if p.now().Sub(p.lastTime) < p.updateInterval {
		return false
	}
	p.emit(p.sample())
	return true
}

// Flush closes the current window, logging it at Info if anything was uploaded.
//
// Returns:
//   - Stats: the window that was closed
func (p *Profiler) Flush() Stats {
	s := p.sample()
	if s.Uploads > 0 {
		p.emit(s)
	}
	return s
}

// sample reads memory statistics and resets the window.
func (p *Profiler) sample() Stats {
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	seconds := elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		Uploads: p.uploads,
		Bytes:   p.bytes,
		Elapsed: elapsed,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	if seconds > 0 {
		s.UploadRate = float64(p.uploads) / seconds
		s.ByteRateMB = float64(p.bytes) / 1024 / 1024 / seconds
		s.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	if gc := s.GCCount; gc > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(gc-1)%256] / 1000

		start := p.lastGCCount
		if gc-start > 256 {
			start = gc - 256
		}
		for i := start; i < gc; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	p.uploads = 0
	p.bytes = 0
	p.lastTime = current
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s
}

func (p *Profiler) emit(s Stats) {
	p.logger.WithFields(logrus.Fields{
		"uploads":       s.Uploads,
		"uploads_per_s": s.UploadRate,
		"mb_per_s":      s.ByteRateMB,
		"heap_mb":       s.HeapMB,
		"alloc_mb_s":    s.AllocRateMB,
		"gc":            s.GCCount,
		"gc_last_us":    s.LastPauseUs,
		"gc_max_us":     s.MaxPauseUs,
		"sys_mb":        s.SysMB,
	}).Info("[Profiler] upload stats")
}
