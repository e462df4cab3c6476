// Package metrics provides in-process timing instrumentation for chainview.
//
// Every network round trip the explorer makes (full graph load, detail fetch
// cycle, conversation turn) and the graph build itself are timed. Collection
// is on by default and can be disabled with CHAINVIEW_METRICS=0.
//
// Usage:
//
//	func load() {
//	    defer metrics.Timer(metrics.GraphLoad)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("CHAINVIEW_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are safe for concurrent use; fetch cycles record from
// command goroutines.
type TimingMetric struct {
	name     string
	count    atomic.Int64
	failures atomic.Int64
	totalNs  atomic.Int64
	maxNs    atomic.Int64
	minNs    atomic.Int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)

	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordFailure counts a failed operation. Failed operations are still timed
// through Record by the caller if it wants their duration.
func (m *TimingMetric) RecordFailure() {
	if !Enabled() {
		return
	}
	m.failures.Add(1)
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	totalNs := m.totalNs.Load()

	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}
	return TimingStats{
		Name:     m.name,
		Count:    count,
		Failures: m.failures.Load(),
		TotalMs:  float64(totalNs) / 1e6,
		AvgMs:    float64(avgNs) / 1e6,
		MaxMs:    float64(m.maxNs.Load()) / 1e6,
		MinMs:    float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.failures.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name     string  `json:"name"`
	Count    int64   `json:"count"`
	Failures int64   `json:"failures,omitempty"`
	TotalMs  float64 `json:"total_ms"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	MinMs    float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called:
//
//	defer metrics.Timer(metrics.DetailCycle)()
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

var (
	GraphLoad             = newTimingMetric("graph_load")
	GraphBuild            = newTimingMetric("graph_build")
	DetailCycle           = newTimingMetric("detail_cycle")
	ConversationRoundTrip = newTimingMetric("conversation_round_trip")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		GraphLoad,
		GraphBuild,
		DetailCycle,
		ConversationRoundTrip,
	}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for every metric that has recorded data.
func AllTimingStats() []TimingStats {
	metrics := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(metrics))
	for _, m := range metrics {
		if m.Count() > 0 || m.failures.Load() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
