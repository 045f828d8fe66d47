package metrics

import (
	"context"
	"runtime"
	"time"
)

// SystemCollector samples runtime statistics into the system gauges.
type SystemCollector struct {
	lastNumGC uint32
}

// Collect takes one sample. GC pauses that happened since the previous
// sample are observed individually, up to the runtime's ring of 256.
func (c *SystemCollector) Collect() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())

	n := ms.NumGC - c.lastNumGC
	if n > uint32(len(ms.PauseNs)) {
		n = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < n; i++ {
		idx := (ms.NumGC - i + uint32(len(ms.PauseNs)) - 1) % uint32(len(ms.PauseNs))
		RecordSystemGCPauseTime(float64(ms.PauseNs[idx]) / float64(time.Millisecond))
	}
	c.lastNumGC = ms.NumGC
}

// Run samples on every tick until ctx is done.
func (c *SystemCollector) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	c.Collect()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			c.Collect()
		}
	}
}
