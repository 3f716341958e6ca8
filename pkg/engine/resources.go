package engine

import (
	"runtime/metrics"
	"sync"
	"time"

	"github.com/go-drift/immediate/pkg/arena"
)

const (
	resourceIntervalDefault = time.Second
	resourceSamplesDefault  = 120
)

// Go runtime metrics read next to the engine's own usage.
const (
	metricHeapObjects = "/memory/classes/heap/objects:bytes"
	metricHeapAllocs  = "/gc/heap/allocs:bytes"
	metricGCCycles    = "/gc/cycles/total:gc-cycles"
)

// ResourceSample relates the engine's own memory to the Go heap at the end
// of one frame. Arena figures are item counts per slab; heap figures are
// bytes.
type ResourceSample struct {
	Frame     uint64 `json:"frame"`
	Timestamp int64  `json:"ts"`

	CacheLive  int           `json:"cacheLive"`
	CacheFree  int           `json:"cacheFree"`
	CacheSlots int           `json:"cacheSlots"`
	Slabs      []arena.Stats `json:"slabs"`

	HeapObjectBytes uint64 `json:"heapObjectBytes"`
	HeapAllocBytes  uint64 `json:"heapAllocBytes"`
	GCCycles        uint64 `json:"gcCycles"`
}

// ResourceLog keeps resource samples taken by the frame loop at most once
// per interval of frame time. It is safe for concurrent use so an
// Inspector can read it while frames run.
type ResourceLog struct {
	mu       sync.RWMutex
	samples  ring[ResourceSample]
	interval time.Duration
	last     time.Time
	metrics  []metrics.Sample
}

// NewResourceLog creates a log of capacity samples taken every interval.
// Non-positive arguments select the defaults (120 samples, 1s).
func NewResourceLog(capacity int, interval time.Duration) *ResourceLog {
	if capacity <= 0 {
		capacity = resourceSamplesDefault
	}
	if interval <= 0 {
		interval = resourceIntervalDefault
	}
	return &ResourceLog{
		samples:  newRing[ResourceSample](capacity),
		interval: interval,
		metrics: []metrics.Sample{
			{Name: metricHeapObjects},
			{Name: metricHeapAllocs},
			{Name: metricGCCycles},
		},
	}
}

// Interval returns the minimum frame time between samples.
func (l *ResourceLog) Interval() time.Duration { return l.interval }

// due reports whether a frame that began at at should be sampled.
func (l *ResourceLog) due(at time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last.IsZero() || at.Sub(l.last) >= l.interval
}

// record completes s with runtime figures and stores it.
func (l *ResourceLog) record(at time.Time, s ResourceSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	metrics.Read(l.metrics)
	s.HeapObjectBytes = metricUint(l.metrics[0])
	s.HeapAllocBytes = metricUint(l.metrics[1])
	s.GCCycles = metricUint(l.metrics[2])
	l.samples.push(s)
	l.last = at
}

// Snapshot returns the samples oldest first.
func (l *ResourceLog) Snapshot() []ResourceSample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.samples.ordered()
}

// Latest returns the newest sample.
func (l *ResourceLog) Latest() (ResourceSample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.samples.last()
}

func metricUint(s metrics.Sample) uint64 {
	if s.Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return s.Value.Uint64()
}

// sampleResources takes a resource sample when the log's interval has
// passed since the last one.
func (c *Context) sampleResources() {
	if !c.resources.due(c.began) {
		return
	}
	stats := c.Stats()
	c.resources.record(c.began, ResourceSample{
		Frame:      c.frame,
		Timestamp:  c.began.UnixMilli(),
		CacheLive:  stats.Cache.Live,
		CacheFree:  stats.Cache.Free,
		CacheSlots: stats.Cache.Slots,
		Slabs:      stats.Arenas,
	})
}
