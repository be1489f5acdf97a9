package roleverify

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricInstantGranted counts roles granted from instant panels.
	MetricInstantGranted MetricID = iota
	// MetricInstantAlreadyVerified counts acknowledgements from members who already held the role.
	MetricInstantAlreadyVerified
	// MetricChallengeStarted counts issued challenge codes.
	MetricChallengeStarted
	// MetricChallengeReplaced counts starts that replaced a pending code.
	MetricChallengeReplaced
	// MetricChallengeGranted counts roles granted after a matching reply.
	MetricChallengeGranted
	// MetricChallengeInvalidCode counts wrong replies.
	MetricChallengeInvalidCode
	// MetricChallengeExpired counts replies with no live challenge.
	MetricChallengeExpired
	// MetricChallengeTimedOut counts waits that ended without a reply.
	MetricChallengeTimedOut
	// MetricCodeDeliveryFailed counts codes the platform could not deliver.
	MetricCodeDeliveryFailed
	// MetricRoleGrantFailed counts grants the platform rejected.
	MetricRoleGrantFailed
	// MetricRateLimitHit counts challenge starts refused by the limiter.
	MetricRateLimitHit
	// MetricReplyLatency is the histogram of time from code delivery to reply.
	MetricReplyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus the reply latency
// histogram. A nil or disabled Metrics ignores all writes.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
// Histogram slices hold non-cumulative bucket counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the histogram for id. Only MetricReplyLatency has
// a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricReplyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

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
		if id == MetricReplyLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricReplyLatency].buckets[i])
		}
		s.Histograms[MetricReplyLatency] = buckets
	}

	return s
}

// Replies are typed by people, so buckets are in seconds.
func bucketIndex(d time.Duration) int {
	switch {
	case d <= time.Second:
		return 0
	case d <= 2*time.Second:
		return 1
	case d <= 5*time.Second:
		return 2
	case d <= 10*time.Second:
		return 3
	case d <= 20*time.Second:
		return 4
	case d <= 30*time.Second:
		return 5
	case d <= 45*time.Second:
		return 6
	default:
		return 7
	}
}
