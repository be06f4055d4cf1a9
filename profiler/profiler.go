package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Profiler tracks shader reflection throughput and memory statistics. Tick is safe
// to call from concurrent workers. Stats are written to the logger at a fixed interval.
type Profiler struct {
	mu             sync.Mutex
	count          int
	total          int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         *log.Logger
}

// NewProfiler creates a new Profiler that logs through the standard logger.
//
// Parameters:
//   - interval: how often stats are logged; values <= 0 default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		logger:         log.Default(),
	}
}

// SetLogger redirects the profiler's output.
func (p *Profiler) SetLogger(logger *log.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// Tick records one reflected shader. Logs throughput and memory statistics when the
// update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	p.total++
	if time.Since(p.lastTime) < p.updateInterval {
		return false
	}
	p.report(time.Now())
	return true
}

// Flush logs the statistics gathered since the last report regardless of the interval.
func (p *Profiler) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report(time.Now())
}

// Total returns the number of shaders recorded since the profiler was created.
func (p *Profiler) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *Profiler) report(now time.Time) {
	elapsed := now.Sub(p.lastTime)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	rate := float64(p.count) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Printf("[Profiler] Shaders: %d (%.2f/s, total %d) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		p.count, rate, p.total, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.count = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
