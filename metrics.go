package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that returned a token.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins that failed for any reason.
	MetricLoginFailure
	// MetricSessionCreated counts sessions inserted into the store.
	MetricSessionCreated
	// MetricSessionCreationFailed counts id generation and insert failures.
	MetricSessionCreationFailed
	// MetricSessionIDCollision counts generated ids that were already in use.
	MetricSessionIDCollision
	// MetricCurrentUserSuccess counts tokens resolved to a principal.
	MetricCurrentUserSuccess
	// MetricCurrentUserFailure counts tokens that did not resolve.
	MetricCurrentUserFailure
	// MetricTokenInvalid counts structurally invalid tokens on any route.
	MetricTokenInvalid
	// MetricLogout counts removed sessions.
	MetricLogout
	// MetricLogoutFailure counts rejected logouts.
	MetricLogoutFailure
	// MetricLoginLatency is the login latency histogram.
	MetricLoginLatency
	// MetricCurrentUserLatency is the current-user resolution latency histogram.
	MetricCurrentUserLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the first seven histogram
// buckets; the eighth holds everything slower.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const histBucketCount = len(latencyBounds) + 1

// histogramIDs are the ids that carry a histogram instead of a counter, in
// slot order.
var histogramIDs = [...]MetricID{MetricLoginLatency, MetricCurrentUserLatency}

// counter sits alone on a cache line so hot counters updated from different
// cores do not contend.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [histBucketCount]atomic.Uint64
	sumNs   atomic.Int64
}

// Metrics holds lock-free engine counters. A disabled or nil *Metrics
// ignores every update.
type Metrics struct {
	enabled    bool
	latency    bool
	counters   [metricIDCount]counter
	histograms [len(histogramIDs)]latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and, when latency
// histograms are enabled, their non-cumulative bucket counts and the total
// observed time.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics builds a Metrics instance from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

func (m *Metrics) Add(id MetricID, n uint64) {
	if !m.Enabled() || id >= metricIDCount || n == 0 || histogramSlot(id) >= 0 {
		return
	}
	m.counters[id].Add(n)
}

// Observe records d in the histogram for id. Only latency ids have histograms.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() {
		return
	}
	slot := histogramSlot(id)
	if slot < 0 {
		return
	}
	h := &m.histograms[slot]
	h.buckets[bucketIndex(d)].Add(1)
	h.sumNs.Add(int64(d))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:      map[MetricID]uint64{},
		Histograms:    map[MetricID][]uint64{},
		HistogramSums: map[MetricID]time.Duration{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if histogramSlot(id) < 0 {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if !m.latency {
		return s
	}
	for slot, id := range histogramIDs {
		h := &m.histograms[slot]
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = h.buckets[i].Load()
		}
		s.Histograms[id] = buckets
		s.HistogramSums[id] = time.Duration(h.sumNs.Load())
	}
	return s
}

// histogramSlot returns id's index in histogramIDs, or -1 for counters.
func histogramSlot(id MetricID) int {
	for slot, h := range histogramIDs {
		if h == id {
			return slot
		}
	}
	return -1
}

func bucketIndex(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
