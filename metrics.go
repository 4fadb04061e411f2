package goVerify

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goVerify APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricIssueSuccess is an exported constant or variable used by the verification engine.
	MetricIssueSuccess MetricID = iota
	// MetricIssueThrottled is an exported constant or variable used by the verification engine.
	MetricIssueThrottled
	// MetricIssueFailure is an exported constant or variable used by the verification engine.
	MetricIssueFailure
	// MetricDeliveryFailure is an exported constant or variable used by the verification engine.
	MetricDeliveryFailure
	// MetricCheckSuccess is an exported constant or variable used by the verification engine.
	MetricCheckSuccess
	// MetricCheckMismatch is an exported constant or variable used by the verification engine.
	MetricCheckMismatch
	// MetricCheckExpired is an exported constant or variable used by the verification engine.
	MetricCheckExpired
	// MetricCheckExhausted is an exported constant or variable used by the verification engine.
	MetricCheckExhausted
	// MetricCheckFailure is an exported constant or variable used by the verification engine.
	MetricCheckFailure
	// MetricCheckConflict is an exported constant or variable used by the verification engine.
	MetricCheckConflict
	// MetricConsumeSuccess is an exported constant or variable used by the verification engine.
	MetricConsumeSuccess
	// MetricConsumeFailure is an exported constant or variable used by the verification engine.
	MetricConsumeFailure
	// MetricDestinationLookup is an exported constant or variable used by the verification engine.
	MetricDestinationLookup
	// MetricCheckLatency is an exported constant or variable used by the verification engine.
	MetricCheckLatency

	metricIDCount
)

const (
	cacheLineSize   = 64
	histBucketCount = 8
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goVerify APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by goVerify APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] collector. When disabled, every method
// is a no-op so callers never need nil checks.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counter collection is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the Check latency histogram is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the Check histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricCheckLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a point-in-time copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricCheckLatency].buckets[i])
		}
		s.Histograms[MetricCheckLatency] = buckets
	}

	return s
}

// bucketIndex maps a latency to its histogram bucket. Bounds:
// 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, +Inf.
func bucketIndex(d time.Duration) int {
	switch {
	case d <= 5*time.Millisecond:
		return 0
	case d <= 10*time.Millisecond:
		return 1
	case d <= 25*time.Millisecond:
		return 2
	case d <= 50*time.Millisecond:
		return 3
	case d <= 100*time.Millisecond:
		return 4
	case d <= 250*time.Millisecond:
		return 5
	case d <= 500*time.Millisecond:
		return 6
	default:
		return 7
	}
}
