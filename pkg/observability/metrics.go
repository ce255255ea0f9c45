package observability

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by rendezvous.
const (
	MetricOperationTotal    = "rendezvous.operation.total"
	MetricOperationDuration = "rendezvous.operation.duration"
	MetricOperationErrors   = "rendezvous.operation.errors"

	MetricNegotiations      = "rendezvous.negotiations"
	MetricCandidateSlots    = "rendezvous.negotiations.candidates"
	MetricRankingFallbacks  = "rendezvous.ranking.fallbacks"
	MetricNotificationsSent = "rendezvous.notifications.sent"
	MetricNotificationsFail = "rendezvous.notifications.failed"
	MetricLinkFallbacks     = "rendezvous.meeting_link.fallbacks"
	MetricEventsPublished   = "rendezvous.events.published"
)

// Metrics records counters, distributions and durations.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, d time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{key, value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in process memory.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	samples  map[string][]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		samples:  map[string][]float64{},
		timings:  map[string][]time.Duration{},
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.samples[key] = append(m.samples[key], value)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, d time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], d)
	m.mu.Unlock()
}

// GetCounter returns the counter for name and tags, in any tag order.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetHistogram returns a copy of the recorded samples.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.samples[seriesKey(name, tags)])
}

// GetTimings returns a copy of the recorded durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.timings[seriesKey(name, tags)])
}

// seriesKey renders name{k=v,...} with tags sorted by key.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := slices.Clone(tags)
	slices.SortFunc(sorted, func(a, b Tag) int { return strings.Compare(a.Key, b.Key) })

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t.Key)
		sb.WriteByte('=')
		sb.WriteString(t.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}
