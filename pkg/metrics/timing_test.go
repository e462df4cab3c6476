package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")

	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)
	m.RecordFailure()

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("expected 2 samples, got %d", s.Count)
	}
	if s.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", s.Failures)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Errorf("unexpected stats %+v", s)
	}

	m.Reset()
	if m.Count() != 0 || m.Stats().MaxMs != 0 {
		t.Error("reset should clear all samples")
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Millisecond)
		}()
	}
	wg.Wait()

	if m.Count() != 50 {
		t.Errorf("expected 50 samples, got %d", m.Count())
	}
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	m.RecordFailure()
	if m.Count() != 0 || m.Stats().Failures != 0 {
		t.Error("disabled metrics should not record")
	}
}

func TestAllTimingStatsSkipsEmpty(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	GraphBuild.Record(time.Millisecond)
	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "graph_build" {
		t.Fatalf("expected only graph_build, got %+v", stats)
	}
}
