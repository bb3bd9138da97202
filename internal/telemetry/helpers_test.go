package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestList(t *testing.T) (*action.List, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return action.NewList(action.Config{DefaultTimeout: action.NoTimeout, Clock: clk.Now}, nil), clk
}

// holdLeaf keeps running until *stop is set.
func holdLeaf(name string, typ action.Type, tracks action.TrackMask, stop *bool) *action.Leaf {
	return action.NewLeaf(name, typ, tracks, action.ActionFuncs{
		PollFunc: func(*action.Context) action.Result {
			if *stop {
				return action.ResultSuccess
			}
			return action.ResultRunning
		},
	})
}

func queue(t *testing.T, list *action.List, pos action.Position, r action.Runner) action.Tag {
	t.Helper()
	tag, err := list.Queue(pos, r)
	if err != nil {
		t.Fatalf("Queue(%s, %s) error = %v", pos, r.Name(), err)
	}
	return tag
}

// recordingObserver captures everything it is handed.
type recordingObserver struct {
	mu          sync.Mutex
	completions []action.CompletionRecord
	snapshots   []action.Snapshot
	ticks       []uint64
}

func (o *recordingObserver) OnCompletion(rec action.CompletionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completions = append(o.completions, rec)
}

func (o *recordingObserver) OnSnapshot(snap action.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, snap)
}

func (o *recordingObserver) OnTick(tick uint64, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks = append(o.ticks, tick)
}
