package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type mockClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (m *mockClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, published{topic, payload, qos, retained})
	return nil
}

func (m *mockClient) onTopic(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, msg := range m.msgs {
		if msg.topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

func newTestPublisher(client MQTTClient, hz float64, buffer int) *Publisher {
	p := NewPublisher(client, mqtt.NewTopics("r1"), "r1", 1, hz, buffer, nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return p
}

// runToEmpty drains the publisher with an already cancelled context.
func runToEmpty(p *Publisher) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublisher_Completion(t *testing.T) {
	client := &mockClient{}
	p := newTestPublisher(client, 0, 0)

	p.OnCompletion(action.CompletionRecord{Tag: 7, Name: "drive", Type: "drive", State: action.StateFailure, Failure: action.FailureTimeout, Duration: 2 * time.Second})
	runToEmpty(p)

	msgs := client.onTopic("actioncore/r1/action/completed")
	if len(msgs) != 1 {
		t.Fatalf("completed messages = %d, want 1", len(msgs))
	}
	if msgs[0].retained || msgs[0].qos != 1 {
		t.Errorf("qos/retained = %d/%v, want 1/false", msgs[0].qos, msgs[0].retained)
	}

	var got map[string]any
	if err := json.Unmarshal(msgs[0].payload, &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	want := map[string]any{
		"robot_id":    "r1",
		"at":          "2026-03-01T09:00:00Z",
		"tag":         float64(7),
		"name":        "drive",
		"type":        "drive",
		"state":       "failure",
		"failure":     "timeout",
		"duration_ns": float64(2 * time.Second),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("payload[%s] = %v, want %v", k, got[k], v)
		}
	}
	if p.Stats().Completions != 1 {
		t.Errorf("Stats().Completions = %d, want 1", p.Stats().Completions)
	}
}

func TestPublisher_SnapshotRetainedLatestOnly(t *testing.T) {
	client := &mockClient{}
	p := newTestPublisher(client, 0, 0)

	p.OnSnapshot(action.Snapshot{Tick: 1})
	p.OnSnapshot(action.Snapshot{Tick: 2})
	runToEmpty(p)

	msgs := client.onTopic("actioncore/r1/action/queues")
	if len(msgs) != 1 {
		t.Fatalf("queue messages = %d, want 1", len(msgs))
	}
	if !msgs[0].retained {
		t.Error("snapshot not retained")
	}
	var ev SnapshotEvent
	if err := json.Unmarshal(msgs[0].payload, &ev); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if ev.Tick != 2 || ev.RobotID != "r1" {
		t.Errorf("snapshot = tick %d robot %q, want tick 2 robot r1", ev.Tick, ev.RobotID)
	}
}

func TestPublisher_SnapshotRateLimited(t *testing.T) {
	client := &mockClient{}
	p := newTestPublisher(client, 20, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.OnSnapshot(action.Snapshot{Tick: 1})
	waitFor(t, "first snapshot", func() bool { return p.Stats().Snapshots == 1 })

	start := time.Now()
	p.OnSnapshot(action.Snapshot{Tick: 2})
	p.OnSnapshot(action.Snapshot{Tick: 3})
	waitFor(t, "second snapshot", func() bool { return p.Stats().Snapshots == 2 })
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("second snapshot after %v, want it held back by the limiter", elapsed)
	}

	cancel()
	<-done

	msgs := client.onTopic("actioncore/r1/action/queues")
	if len(msgs) != 2 {
		t.Fatalf("queue messages = %d, want 2", len(msgs))
	}
	var ev SnapshotEvent
	if err := json.Unmarshal(msgs[1].payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Tick != 3 {
		t.Errorf("second snapshot tick = %d, want 3", ev.Tick)
	}
}

func TestPublisher_DropsWhenFull(t *testing.T) {
	client := &mockClient{}
	p := newTestPublisher(client, 0, 2)

	for i := range 5 {
		p.OnCompletion(action.CompletionRecord{Tag: action.Tag(i + 1)})
	}
	if got := p.Stats().Dropped; got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
	runToEmpty(p)
	if got := len(client.onTopic("actioncore/r1/action/completed")); got != 2 {
		t.Errorf("published = %d, want 2", got)
	}
}

func TestPublisher_PublishFailure(t *testing.T) {
	client := &mockClient{err: errors.New("not connected")}
	p := newTestPublisher(client, 0, 0)

	p.OnCompletion(action.CompletionRecord{Tag: 1})
	p.OnSnapshot(action.Snapshot{Tick: 1})
	runToEmpty(p)

	st := p.Stats()
	if st.Failed != 2 || st.Completions != 0 || st.Snapshots != 0 {
		t.Errorf("Stats() = %+v, want 2 failures only", st)
	}
}

func TestPublisher_FromFanout(t *testing.T) {
	client := &mockClient{}
	p := newTestPublisher(client, 0, 0)
	list, _ := newTestList(t)
	fan := NewFanout(p)
	fan.Attach(list)

	queue(t, list, action.PositionAtEnd, action.NewLeaf("smile", "face", action.Tracks(action.TrackFace), action.ActionFuncs{}))
	list.Update()
	fan.AfterTick(time.Millisecond)
	runToEmpty(p)

	if got := len(client.onTopic("actioncore/r1/action/completed")); got != 1 {
		t.Errorf("completed messages = %d, want 1", got)
	}
	if got := len(client.onTopic("actioncore/r1/action/queues")); got != 1 {
		t.Errorf("queue messages = %d, want 1", got)
	}
}
