package action

import (
	"testing"
	"time"
)

// ─── Test Doubles ───────────────────────────────────────────────────────────

// testAction is a leaf payload driven by the test: Poll returns next.
type testAction struct {
	next    Result
	initErr error

	inits    int
	polls    int
	cleanups int

	onPoll    func(ctx *Context)
	onCleanup func(ctx *Context)
}

func (a *testAction) Init(*Context) error {
	a.inits++
	return a.initErr
}

func (a *testAction) Poll(ctx *Context) Result {
	a.polls++
	if a.onPoll != nil {
		a.onPoll(ctx)
	}
	return a.next
}

func (a *testAction) Cleanup(ctx *Context) {
	a.cleanups++
	if a.onCleanup != nil {
		a.onCleanup(ctx)
	}
}

// retryAction returns ResultRetry a fixed number of times, then succeeds.
type retryAction struct {
	retries int
	inits   int
	seen    int
}

func (a *retryAction) Init(*Context) error {
	a.inits++
	return nil
}

func (a *retryAction) Poll(*Context) Result {
	if a.seen < a.retries {
		a.seen++
		return ResultRetry
	}
	return ResultSuccess
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// recorder collects every completion delivered to the list's watcher.
type recorder struct {
	records []CompletionRecord
}

func (r *recorder) record(rec CompletionRecord) {
	r.records = append(r.records, rec)
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Name)
	}
	return out
}

func (r *recorder) byName(name string) []CompletionRecord {
	var out []CompletionRecord
	for _, rec := range r.records {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func setupList(t *testing.T, cfg Config) (*List, *recorder, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cfg.Clock = clock.Now
	l := NewList(cfg, nil)
	rec := &recorder{}
	l.Watcher().Register(rec.record)
	return l, rec, clock
}

func newTestLeaf(name string, tracks TrackMask, opts ...Option) (*Leaf, *testAction) {
	a := &testAction{}
	return NewLeaf(name, "test", tracks, a, opts...), a
}

func mustQueue(t *testing.T, l *List, pos Position, r Runner) Tag {
	t.Helper()
	tag, err := l.Queue(pos, r)
	if err != nil {
		t.Fatalf("Queue(%s, %s) error = %v", pos, r.Name(), err)
	}
	return tag
}

// update ticks the list and checks that no two running leaves share a track.
func update(t *testing.T, l *List) {
	t.Helper()
	l.Update()
	assertExclusive(t, l)
}

func assertExclusive(t *testing.T, l *List) {
	t.Helper()
	var used TrackMask
	for _, r := range l.arena {
		lf, ok := r.(*Leaf)
		if !ok || !lf.Holding() {
			continue
		}
		if used.Overlaps(lf.Tracks()) {
			t.Fatalf("holding leaf %q overlaps tracks %s", lf.Name(), used&lf.Tracks())
		}
		used |= lf.Tracks()
	}
}

func queue0Names(l *List) []string {
	var out []string
	for _, tag := range l.queue0 {
		out = append(out, l.arena[tag].Name())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
