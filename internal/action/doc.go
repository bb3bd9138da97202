// Package action provides the action-execution core of actioncore.
//
// Behaviors hand runners to a List, which schedules them onto the robot's
// shared hardware tracks (body, head, lift, face, audio, lights) one tick at
// a time. A runner is either a Leaf, which holds tracks and drives an
// Action, or a Composite, which runs child runners in sequence or in
// parallel.
//
// Architecture:
//
//	┌────────────────────────────────────────────────────────┐
//	│                     List (list.go)                      │
//	│  queue 0 (serial)        parallel slots 1..N            │
//	│  ┌──────────────┐        ┌──────┐ ┌──────┐              │
//	│  │ tag tag tag  │        │ tag  │ │ tag  │              │
//	│  └──────┬───────┘        └──┬───┘ └──┬───┘              │
//	│         ▼                   ▼        ▼                  │
//	│  ┌──────────────────────────────────────────────┐      │
//	│  │  arena map[Tag]Runner (Leaf | Composite)      │      │
//	│  └──────────────────────────────────────────────┘      │
//	│     │                │                   │              │
//	│     ▼                ▼                   ▼              │
//	│  TrackLockTable   TagAllocator        Watcher           │
//	│  (tracks.go)      (tags.go)           (watcher.go)      │
//	└────────────────────────────────────────────────────────┘
//
// # Lifecycle
//
// A leaf moves NotStarted → Initializing → Running and ends in Success,
// Failure, Aborted or Cancelled. It leaves NotStarted only once every one of
// its tracks is free. Poll may return ResultRetry up to the leaf's retry
// budget, which sends it back through Init. Tracks are released the moment a
// runner ends, retries or is suspended by NowAndResume. A suspended runner
// keeps its state and is flagged Suspended in snapshots until it resumes.
//
// Every runner that was accepted by Queue produces exactly one
// CompletionRecord, delivered to its own callback and then to every Watcher
// callback. Children of composites report too, so an ignored child that
// fails reports Failure while its composite may still report Success.
//
// # Key Types
//
//   - List: the scheduler; call Update once per control-loop frame
//   - Leaf, Composite: the two Runner shapes
//   - Action, Cleaner: what a leaf drives
//   - Commander: how leaves reach the actuator layer
//   - Watcher: completion callbacks owned by one List
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A List and everything
// it owns belong to the goroutine that calls Update; observers on other
// goroutines should work from Snapshot copies and CompletionRecords.
//
// # Usage
//
//	list := action.NewList(action.Config{MaxParallelSlots: 4}, log)
//	list.SetCommander(commander)
//
//	tag, err := list.Queue(action.PositionAtEnd, action.NewLeaf("nod", "head_nod",
//	    action.Tracks(action.TrackHead), nod, action.WithTimeout(2*time.Second)))
//
//	for range ticker.C {
//	    list.Update()
//	}
package action
