package observability

import "time"

// Timer measures one operation against a Metrics sink.
type Timer struct {
	metrics   Metrics
	operation string
	start     time.Time
}

// StartTimer begins timing operation. A nil sink discards the measurement.
func StartTimer(m Metrics, operation string) *Timer {
	if m == nil {
		m = NoopMetrics{}
	}
	return &Timer{metrics: m, operation: operation, start: time.Now()}
}

// Stop records the duration and a run count, plus an error count when err
// is non-nil.
func (t *Timer) Stop(err error) time.Duration {
	elapsed := time.Since(t.start)
	tag := T(OperationKey, t.operation)

	t.metrics.Timing(MetricOperationDuration, elapsed, tag)
	t.metrics.Counter(MetricOperationTotal, 1, tag)
	if err != nil {
		t.metrics.Counter(MetricOperationErrors, 1, tag)
	}
	return elapsed
}
