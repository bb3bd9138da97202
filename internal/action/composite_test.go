package action

import (
	"errors"
	"testing"
	"time"
)

func TestSequential_IgnoredFailureStillSucceeds(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	l1, a1 := newTestLeaf("Test1", Tracks(TrackBody))
	l2, a2 := newTestLeaf("Test2", Tracks(TrackBody))
	l3, a3 := newTestLeaf("Test3", Tracks(TrackBody))

	seq := NewSequential("seq")
	for _, c := range []struct {
		leaf   *Leaf
		ignore bool
	}{{l1, false}, {l2, true}, {l3, false}} {
		if err := seq.Add(c.leaf, c.ignore); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	seqTag := mustQueue(t, l, PositionAtEnd, seq)

	update(t, l)
	if a1.inits != 1 || a2.inits != 0 {
		t.Fatalf("inits = %d,%d, want 1,0", a1.inits, a2.inits)
	}

	a1.next = ResultSuccess
	update(t, l)
	if a2.inits != 1 {
		t.Fatal("second child did not start in the tick the first finished")
	}

	a2.next = ResultFailure
	update(t, l)
	if a3.inits != 1 {
		t.Fatal("sequence stopped at the ignored failure")
	}

	a3.next = ResultSuccess
	update(t, l)

	if got := rec.names(); !equalStrings(got, []string{"Test1", "Test2", "Test3", "seq"}) {
		t.Fatalf("records = %v", got)
	}
	if rec.records[1].State != StateFailure || rec.records[1].Parent != seqTag {
		t.Errorf("ignored child record = %+v, want failure under seq", rec.records[1])
	}
	if rec.records[3].State != StateSuccess {
		t.Errorf("seq state = %s, want success", rec.records[3].State)
	}
	if l.Len() != 0 || !l.IsEmpty() {
		t.Error("list not empty after sequence")
	}
}

func TestSequential_FirstFailureWins(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	l1, a1 := newTestLeaf("c1", TracksNone)
	l2, a2 := newTestLeaf("c2", TracksNone)
	l3, a3 := newTestLeaf("c3", TracksNone)
	a1.next = ResultSuccess
	a2.next = ResultAbort
	a3.next = ResultSuccess
	mustQueue(t, l, PositionAtEnd, NewSequential("seq", l1, l2, l3))

	update(t, l)

	if a3.inits != 0 {
		t.Error("child after failure was started")
	}
	if got := rec.names(); !equalStrings(got, []string{"c1", "c2", "c3", "seq"}) {
		t.Fatalf("records = %v", got)
	}
	if rec.records[2].State != StateCancelled {
		t.Errorf("c3 state = %s, want cancelled", rec.records[2].State)
	}
	if rec.records[3].State != StateAborted {
		t.Errorf("seq state = %s, want aborted", rec.records[3].State)
	}
}

func TestSequential_Empty(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	mustQueue(t, l, PositionAtEnd, NewSequential("empty"))
	update(t, l)
	if len(rec.records) != 1 || rec.records[0].State != StateSuccess {
		t.Errorf("records = %+v, want one success", rec.records)
	}
}

func TestParallel_Outcome(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		ignore  []bool
		want    State
	}{
		{"all succeed", []Result{ResultSuccess, ResultSuccess}, []bool{false, false}, StateSuccess},
		{"failure wins over success", []Result{ResultSuccess, ResultFailure}, []bool{false, false}, StateFailure},
		{"abort wins over failure", []Result{ResultFailure, ResultAbort}, []bool{false, false}, StateAborted},
		{"ignored failure", []Result{ResultSuccess, ResultFailure}, []bool{false, true}, StateSuccess},
		{"all ignored", []Result{ResultFailure, ResultAbort}, []bool{true, true}, StateSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, rec, _ := setupList(t, Config{})
			par := NewParallel("par")
			tracks := []Track{TrackBody, TrackHead}
			for i, res := range tt.results {
				act := &testAction{next: res}
				if err := par.Add(NewLeaf("child", "test", Tracks(tracks[i]), act), tt.ignore[i]); err != nil {
					t.Fatalf("Add() error = %v", err)
				}
			}
			mustQueue(t, l, PositionAtEnd, par)
			update(t, l)

			got := rec.byName("par")
			if len(got) != 1 {
				t.Fatalf("got %d par records, want 1", len(got))
			}
			if got[0].State != tt.want {
				t.Errorf("state = %s, want %s", got[0].State, tt.want)
			}
			if len(rec.byName("child")) != len(tt.results) {
				t.Errorf("got %d child records, want %d", len(rec.byName("child")), len(tt.results))
			}
		})
	}
}

func TestParallel_CancelsIgnoredChildren(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	required, reqAct := newTestLeaf("required", Tracks(TrackBody))
	ignored, ignAct := newTestLeaf("ignored", Tracks(TrackHead))
	par := NewParallel("par")
	if err := par.Add(required, false); err != nil {
		t.Fatal(err)
	}
	if err := par.Add(ignored, true); err != nil {
		t.Fatal(err)
	}
	mustQueue(t, l, PositionAtEnd, par)

	update(t, l)
	if l.Tracks().Locked() != Tracks(TrackBody, TrackHead) {
		t.Fatalf("Locked() = %s, want both children holding", l.Tracks().Locked())
	}

	reqAct.next = ResultSuccess
	update(t, l)

	if got := rec.names(); !equalStrings(got, []string{"required", "ignored", "par"}) {
		t.Fatalf("records = %v", got)
	}
	if rec.records[1].State != StateCancelled || ignAct.cleanups != 1 {
		t.Errorf("ignored child = %s cleanups %d, want cancelled once", rec.records[1].State, ignAct.cleanups)
	}
	if rec.records[2].State != StateSuccess {
		t.Errorf("par state = %s", rec.records[2].State)
	}
	if l.Tracks().Locked() != TracksNone {
		t.Error("tracks still locked")
	}
}

func TestParallel_ChildrenContendForTracks(t *testing.T) {
	l, _, _ := setupList(t, Config{})
	first, firstAct := newTestLeaf("first", Tracks(TrackLift))
	second, secondAct := newTestLeaf("second", Tracks(TrackLift))
	mustQueue(t, l, PositionAtEnd, NewParallel("par", first, second))

	update(t, l)
	if firstAct.inits != 1 || secondAct.inits != 0 {
		t.Fatalf("inits = %d,%d, want 1,0", firstAct.inits, secondAct.inits)
	}
	firstAct.next = ResultSuccess
	update(t, l)
	if second.State() != StateRunning {
		t.Errorf("second state = %s, want running", second.State())
	}
}

func TestComposite_CancelCascades(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	inner, innerAct := newTestLeaf("inner", Tracks(TrackBody))
	waiting, waitAct := newTestLeaf("waiting", Tracks(TrackHead))
	nested := NewParallel("nested", inner)
	seq := NewSequential("outer", nested, waiting)
	tag := mustQueue(t, l, PositionAtEnd, seq)
	update(t, l)

	if !l.Cancel(tag) {
		t.Fatal("Cancel() = false")
	}
	if got := rec.names(); !equalStrings(got, []string{"inner", "nested", "waiting", "outer"}) {
		t.Fatalf("records = %v, want children before parents", got)
	}
	for _, r := range rec.records {
		if r.State != StateCancelled {
			t.Errorf("%s state = %s, want cancelled", r.Name, r.State)
		}
	}
	if innerAct.cleanups != 1 || waitAct.inits != 0 {
		t.Errorf("inner cleanups = %d waiting inits = %d", innerAct.cleanups, waitAct.inits)
	}
	if l.Len() != 0 || l.Tracks().Locked() != TracksNone {
		t.Errorf("Len() = %d Locked() = %s", l.Len(), l.Tracks().Locked())
	}
}

func TestComposite_CancelChild(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	c1, _ := newTestLeaf("c1", Tracks(TrackBody))
	c2, a2 := newTestLeaf("c2", Tracks(TrackBody))
	seq := NewSequential("seq")
	_ = seq.Add(c1, true)
	_ = seq.Add(c2, false)
	mustQueue(t, l, PositionAtEnd, seq)
	update(t, l)

	if !l.Cancel(c1.Tag()) {
		t.Fatal("Cancel(child) = false")
	}
	update(t, l)
	if a2.inits != 1 {
		t.Errorf("c2 inits = %d, want 1 after ignored child cancelled", a2.inits)
	}
	if seq.State() != StateRunning || len(rec.byName("seq")) != 0 {
		t.Error("seq ended when an ignored child was cancelled")
	}
}

func TestComposite_CancelTypeDescends(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	w1 := NewLeaf("w1", "wait", TracksNone, &testAction{})
	w2 := NewLeaf("w2", "wait", TracksNone, &testAction{})
	keep := NewLeaf("keep", "drive", Tracks(TrackBody), &testAction{})
	par := NewParallel("par", w1, keep)
	_ = par.Add(w2, true)
	mustQueue(t, l, PositionAtEnd, par)
	update(t, l)

	if got := l.CancelType("wait"); got != 2 {
		t.Fatalf("CancelType() = %d, want 2", got)
	}
	if len(rec.byName("par")) != 0 {
		t.Error("composite cancelled though its type did not match")
	}
	if keep.State() != StateRunning {
		t.Errorf("keep state = %s", keep.State())
	}

	if got := l.CancelType(TypeCompound); got != 1 {
		t.Errorf("CancelType(compound) = %d, want 1", got)
	}
}

func TestComposite_AddAfterQueued(t *testing.T) {
	l, rec, _ := setupList(t, Config{})
	first, firstAct := newTestLeaf("first", Tracks(TrackBody))
	seq := NewSequential("seq", first)
	mustQueue(t, l, PositionAtEnd, seq)
	update(t, l)

	late := &testAction{next: ResultSuccess}
	lateLeaf := NewLeaf("late", "test", Tracks(TrackBody), late)
	if err := seq.Add(lateLeaf, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if lateLeaf.Tag() == InvalidTag || !l.Contains(lateLeaf.Tag()) {
		t.Fatal("late child was not adopted")
	}

	firstAct.next = ResultSuccess
	update(t, l)

	if got := rec.names(); !equalStrings(got, []string{"first", "late", "seq"}) {
		t.Fatalf("records = %v", got)
	}
	if err := seq.Add(NewLeaf("tooLate", "test", TracksNone, &testAction{}), false); !errors.Is(err, ErrFinished) {
		t.Errorf("Add() after finish error = %v, want ErrFinished", err)
	}
}

func TestComposite_Timeout(t *testing.T) {
	l, rec, clock := setupList(t, Config{})
	child, _ := newTestLeaf("child", Tracks(TrackBody), WithTimeout(NoTimeout))
	seq := NewSequential("seq", child).With(WithTimeout(time.Second), WithType("greet"))
	mustQueue(t, l, PositionAtEnd, seq)
	update(t, l)

	clock.Advance(2 * time.Second)
	update(t, l)

	got := rec.byName("seq")
	if len(got) != 1 || got[0].Failure != FailureTimeout || got[0].Type != "greet" {
		t.Fatalf("seq records = %+v, want timeout", got)
	}
	if c := rec.byName("child"); len(c) != 1 || c[0].State != StateCancelled {
		t.Errorf("child records = %+v, want cancelled", c)
	}
}

func TestComposite_NowAndResume(t *testing.T) {
	l, _, _ := setupList(t, Config{})
	inner, innerAct := newTestLeaf("inner", Tracks(TrackHead))
	seq := NewSequential("seq", inner)
	mustQueue(t, l, PositionAtEnd, seq)
	update(t, l)

	interrupt, intAct := newTestLeaf("interrupt", Tracks(TrackHead))
	mustQueue(t, l, PositionNowAndResume, interrupt)
	if inner.Holding() || seq.State() != StateRunning || !seq.base().suspended {
		t.Fatalf("inner holding = %v seq = %s after suspend", inner.Holding(), seq.State())
	}

	intAct.next = ResultSuccess
	update(t, l)
	update(t, l)

	if innerAct.inits != 1 || innerAct.polls != 2 {
		t.Errorf("inner inits = %d polls = %d, want 1, 2", innerAct.inits, innerAct.polls)
	}
	if !inner.Holding() || seq.State() != StateRunning {
		t.Error("composite did not resume")
	}
}
