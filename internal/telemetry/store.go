package telemetry

import (
	"sync"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// DefaultRecent is the number of completions a store keeps by default.
const DefaultRecent = 100

// SnapshotStore holds the latest snapshot and the most recent completions
// for readers on other goroutines. It is the only place scheduler output
// crosses goroutines without a channel.
type SnapshotStore struct {
	mu      sync.RWMutex
	latest  action.Snapshot
	have    bool
	ring    []CompletionEvent
	next    int
	full    bool
	robotID string
	now     func() time.Time
}

var _ Observer = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store keeping up to recent completions.
func NewSnapshotStore(robotID string, recent int) *SnapshotStore {
	if recent <= 0 {
		recent = DefaultRecent
	}
	return &SnapshotStore{
		ring:    make([]CompletionEvent, recent),
		robotID: robotID,
		now:     time.Now,
	}
}

// OnSnapshot replaces the latest snapshot.
func (s *SnapshotStore) OnSnapshot(snap action.Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.have = true
	s.mu.Unlock()
}

// OnCompletion appends rec, evicting the oldest entry when full.
func (s *SnapshotStore) OnCompletion(rec action.CompletionRecord) {
	ev := CompletionEvent{RobotID: s.robotID, At: s.now().UTC(), CompletionRecord: rec}
	s.mu.Lock()
	s.ring[s.next] = ev
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.full = true
	}
	s.mu.Unlock()
}

// Latest returns the newest snapshot and whether one has been stored.
//
// Snapshots are never modified after they are taken, so the returned value
// may be read freely.
func (s *SnapshotStore) Latest() (action.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.have
}

// Recent returns up to limit completions, newest first. A limit of zero or
// less returns everything held.
func (s *SnapshotStore) Recent(limit int) []CompletionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.next
	if s.full {
		n = len(s.ring)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]CompletionEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out
}

// RobotID returns the robot the store reports for.
func (s *SnapshotStore) RobotID() string {
	return s.robotID
}
