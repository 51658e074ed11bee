// Package metrics adapts github.com/ygrebnov/workers/metrics' Provider
// abstraction for the substrate's own instrumentation points: queue depth,
// dispatcher active-worker counts, and channel buffered/paused gauges.
// Metrics are introspection only; nothing in the core reads them back to
// make scheduling decisions (spec.md section 5 treats fairness/metrics as
// a non-goal for behavior, only for observability).
package metrics

// Counter is a monotonically increasing instrument.
type Counter interface {
	Add(n int64)
	Snapshot() int64
}

// UpDownCounter may move in either direction, suited to "currently active"
// style gauges (active workers, buffered items).
type UpDownCounter interface {
	Add(n int64)
	Snapshot() int64
}

// Provider creates (and memoizes) named instruments.
type Provider interface {
	Counter(name string) Counter
	UpDownCounter(name string) UpDownCounter
}
