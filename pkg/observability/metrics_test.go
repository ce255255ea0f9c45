package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics_Counter(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricNegotiations, 1, T(StatusKey, "confirmed"))
	m.Counter(MetricNegotiations, 1, T(StatusKey, "reschedule_requested"))
	m.Counter(MetricNegotiations, 1, T(StatusKey, "confirmed"))

	assert.Equal(t, int64(2), m.GetCounter(MetricNegotiations, T(StatusKey, "confirmed")))
	assert.Equal(t, int64(1), m.GetCounter(MetricNegotiations, T(StatusKey, "reschedule_requested")))
	assert.Zero(t, m.GetCounter(MetricNegotiations))
}

func TestInMemoryMetrics_TagOrderIsIrrelevant(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricNotificationsSent, 1, T("kind", "confirmation"), T("notifier", "gmail"))

	assert.Equal(t, int64(1), m.GetCounter(MetricNotificationsSent, T("notifier", "gmail"), T("kind", "confirmation")))
}

func TestInMemoryMetrics_HistogramReturnsCopy(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Histogram(MetricCandidateSlots, 3)
	m.Histogram(MetricCandidateSlots, 0)

	samples := m.GetHistogram(MetricCandidateSlots)
	samples[0] = 99

	assert.Equal(t, []float64{3, 0}, m.GetHistogram(MetricCandidateSlots))
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "rendezvous.negotiations", seriesKey(MetricNegotiations, nil))
	assert.Equal(t, "rendezvous.negotiations{a=1,b=2}", seriesKey(MetricNegotiations, []Tag{T("b", "2"), T("a", "1")}))
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}

	assert.NotPanics(t, func() {
		m.Counter("x", 1)
		m.Histogram("x", 1)
		m.Timing("x", time.Second)
	})
}

func TestTimer_Stop(t *testing.T) {
	m := NewInMemoryMetrics()
	tag := T(OperationKey, "negotiate")

	StartTimer(m, "negotiate").Stop(nil)
	StartTimer(m, "negotiate").Stop(errors.New("boom"))

	assert.Equal(t, int64(2), m.GetCounter(MetricOperationTotal, tag))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, tag))
	assert.Len(t, m.GetTimings(MetricOperationDuration, tag), 2)
}

func TestTimer_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		StartTimer(nil, "finalize").Stop(nil)
	})
}
