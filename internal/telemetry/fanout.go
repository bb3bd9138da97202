package telemetry

import (
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// Fanout connects a List to every observer with a single watcher
// registration and a single snapshot per tick.
//
// It is driven from the tick goroutine and is not safe for concurrent use.
type Fanout struct {
	observers []Observer
	list      *action.List
	id        action.CallbackID
	every     uint64
}

// NewFanout creates a fanout over observers. Nil observers are skipped.
func NewFanout(observers ...Observer) *Fanout {
	f := &Fanout{every: 1}
	for _, o := range observers {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
	return f
}

// SnapshotEvery takes a snapshot only on every n-th tick. Values below 1
// select every tick.
func (f *Fanout) SnapshotEvery(n uint64) *Fanout {
	f.every = max(n, 1)
	return f
}

// Attach registers the fanout on list's watcher. Attaching again moves the
// registration.
func (f *Fanout) Attach(list *action.List) {
	f.Detach()
	f.list = list
	f.id = list.Watcher().Register(f.onCompletion)
}

// Detach removes the watcher registration.
func (f *Fanout) Detach() {
	if f.list != nil {
		f.list.Watcher().Unregister(f.id)
		f.list = nil
	}
}

func (f *Fanout) onCompletion(rec action.CompletionRecord) {
	for _, o := range f.observers {
		o.OnCompletion(rec)
	}
}

// AfterTick reports the tick that just ran. Call it right after
// List.Update with the time Update took.
func (f *Fanout) AfterTick(took time.Duration) {
	if f.list == nil {
		return
	}
	tick := f.list.Tick()
	for _, o := range f.observers {
		if t, ok := o.(TickObserver); ok {
			t.OnTick(tick, took)
		}
	}
	if tick%f.every != 0 {
		return
	}
	f.Publish()
}

// Publish takes a snapshot now and hands it to every observer.
func (f *Fanout) Publish() {
	if f.list == nil {
		return
	}
	snap := f.list.Snapshot()
	for _, o := range f.observers {
		o.OnSnapshot(snap)
	}
}
