package action

import "time"

// RunnerSnapshot is a read-only view of one runner.
type RunnerSnapshot struct {
	Tag           Tag              `json:"tag"`
	Name          string           `json:"name"`
	Type          Type             `json:"type"`
	State         State            `json:"state"`
	Tracks        TrackMask        `json:"tracks"`
	Holding       TrackMask        `json:"holding"`
	Interruptible bool             `json:"interruptible"`
	Suspended     bool             `json:"suspended,omitempty"`
	Children      []RunnerSnapshot `json:"children,omitempty"`
}

// QueueSnapshot is a read-only view of one queue.
type QueueSnapshot struct {
	ID      int              `json:"id"`
	Runners []RunnerSnapshot `json:"runners"`
}

// Snapshot is a read-only copy of the scheduler state, safe to hand to
// another goroutine.
type Snapshot struct {
	Tick   uint64          `json:"tick"`
	Taken  time.Time       `json:"taken"`
	Queues []QueueSnapshot `json:"queues"`
	Locked TrackMask       `json:"locked"`
	Live   int             `json:"live"`
}

// QueueLength returns the length of queue id within the snapshot.
func (s Snapshot) QueueLength(id int) int {
	for _, q := range s.Queues {
		if q.ID == id {
			return len(q.Runners)
		}
	}
	return 0
}

// ParallelQueues returns the number of occupied parallel slots.
func (s Snapshot) ParallelQueues() int {
	n := 0
	for _, q := range s.Queues {
		if q.ID != 0 {
			n++
		}
	}
	return n
}

// Snapshot copies the current queue state. Queue 0 is always present.
func (l *List) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:   l.tick,
		Taken:  l.cfg.Clock(),
		Locked: l.tracks.Locked(),
		Live:   len(l.arena),
	}
	q0 := QueueSnapshot{ID: 0, Runners: make([]RunnerSnapshot, 0, len(l.queue0))}
	for _, tag := range l.queue0 {
		if r, ok := l.arena[tag]; ok {
			q0.Runners = append(q0.Runners, l.snapshotRunner(r))
		}
	}
	snap.Queues = append(snap.Queues, q0)
	for _, s := range l.slots {
		q := QueueSnapshot{ID: s.id}
		if r, ok := l.arena[s.tag]; ok {
			q.Runners = []RunnerSnapshot{l.snapshotRunner(r)}
		}
		snap.Queues = append(snap.Queues, q)
	}
	return snap
}

func (l *List) snapshotRunner(r Runner) RunnerSnapshot {
	n := r.base()
	rs := RunnerSnapshot{
		Tag:           n.tag,
		Name:          n.name,
		Type:          n.typ,
		State:         n.state,
		Tracks:        r.Tracks(),
		Holding:       l.tracks.HeldBy(n.tag),
		Interruptible: n.interruptible,
		Suspended:     n.suspended,
	}
	if c, ok := r.(*Composite); ok {
		for _, ch := range c.Children() {
			rs.Children = append(rs.Children, l.snapshotRunner(ch))
		}
		var held TrackMask
		for _, ch := range rs.Children {
			held |= ch.Holding
		}
		rs.Holding = held
	}
	return rs
}
