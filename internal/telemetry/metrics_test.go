package telemetry

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/actioncore/internal/action"
)

func newTestMetrics(t *testing.T) (*Metrics, *prom.Registry) {
	t.Helper()
	reg := prom.NewRegistry()
	m, err := NewMetrics("", reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reg
}

func TestNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetrics("robot", reg)
	if err != nil {
		t.Fatalf("first NewMetrics() error = %v", err)
	}
	second, err := NewMetrics("robot", reg)
	if err != nil {
		t.Fatalf("second NewMetrics() error = %v", err)
	}

	first.OnCompletion(action.CompletionRecord{Tag: 1, Type: "drive", State: action.StateSuccess})
	got := testutil.ToFloat64(second.completions.WithLabelValues("drive", "success"))
	if got != 1 {
		t.Errorf("shared counter = %v, want 1", got)
	}
}

func TestMetrics_OnCompletion(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.OnCompletion(action.CompletionRecord{Tag: 1, Type: "drive", State: action.StateSuccess, Duration: time.Second})
	m.OnCompletion(action.CompletionRecord{Tag: 2, Type: "drive", State: action.StateFailure, Failure: action.FailureTimeout})
	m.OnCompletion(action.CompletionRecord{Tag: 3, Parent: 2, State: action.StateCancelled})

	tests := []struct {
		typ, state string
		want       float64
	}{
		{"drive", "success", 1},
		{"drive", "failure", 1},
		{"unknown", "cancelled", 1},
		{"drive", "cancelled", 0},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.completions.WithLabelValues(tt.typ, tt.state)); got != tt.want {
			t.Errorf("completions{%s,%s} = %v, want %v", tt.typ, tt.state, got, tt.want)
		}
	}

	// Only the two top-level records are timed.
	if n := testutil.CollectAndCount(m.durations); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
	if _, err := reg.Gather(); err != nil {
		t.Errorf("Gather() error = %v", err)
	}
}

func TestMetrics_OnSnapshot(t *testing.T) {
	m, _ := newTestMetrics(t)
	list, _ := newTestList(t)

	stop := false
	queue(t, list, action.PositionAtEnd, holdLeaf("drive", "drive", action.Tracks(action.TrackBody, action.TrackHead), &stop))
	queue(t, list, action.PositionAtEnd, holdLeaf("wait", "drive", action.Tracks(action.TrackBody), &stop))
	queue(t, list, action.PositionInParallel, holdLeaf("glow", "lights", action.Tracks(action.TrackBackpackLights), &stop))
	list.Update()
	m.OnSnapshot(list.Snapshot())

	if got := testutil.ToFloat64(m.queueLength.WithLabelValues("0")); got != 2 {
		t.Errorf("queue_length{0} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.queueLength.WithLabelValues("1")); got != 1 {
		t.Errorf("queue_length{1} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.parallelQueues); got != 1 {
		t.Errorf("parallel_queues = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tracksLocked); got != 3 {
		t.Errorf("tracks_locked = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.liveRunners); got != 3 {
		t.Errorf("live_runners = %v, want 3", got)
	}

	// The parallel slot empties and its label disappears.
	stop = true
	list.Update()
	list.Update()
	m.OnSnapshot(list.Snapshot())
	if n := testutil.CollectAndCount(m.queueLength); n != 1 {
		t.Errorf("queue_length series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.parallelQueues); got != 0 {
		t.Errorf("parallel_queues = %v, want 0", got)
	}
}

func TestMetrics_OnTick(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.OnTick(1, 200*time.Microsecond)
	m.OnTick(2, 3*time.Millisecond)

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("ticks_total = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.tickDuration); n != 1 {
		t.Errorf("tick histogram series = %d, want 1", n)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.OnCompletion(action.CompletionRecord{})
	m.OnSnapshot(action.Snapshot{})
	m.OnTick(1, time.Millisecond)
}
