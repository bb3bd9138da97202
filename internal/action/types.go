package action

import (
	"fmt"
	"strings"
	"time"
)

// Tag uniquely identifies one queued runner within a List.
type Tag uint32

// InvalidTag is never issued by the allocator; runners carry it until adopted.
const InvalidTag Tag = 0

// Type classifies a runner for bulk cancellation (e.g. "wait", "turn_in_place").
type Type string

// TypeUnknown is assigned to runners created without an explicit type.
const TypeUnknown Type = "unknown"

// Track identifies one class of hardware output. At most one runner may
// drive a given track at a time.
type Track uint8

// Hardware tracks.
const (
	TrackBody Track = 1 << iota
	TrackHead
	TrackLift
	TrackFace
	TrackAudio
	TrackBackpackLights
	TrackEvent
)

// TrackMask is a set of tracks.
type TrackMask uint8

// Common track sets.
const (
	TracksNone TrackMask = 0
	TracksAll  TrackMask = TrackMask(TrackBody | TrackHead | TrackLift | TrackFace | TrackAudio | TrackBackpackLights | TrackEvent)
)

// allTracks lists every track in bit order.
var allTracks = []Track{TrackBody, TrackHead, TrackLift, TrackFace, TrackAudio, TrackBackpackLights, TrackEvent}

var trackNames = map[Track]string{
	TrackBody:           "body",
	TrackHead:           "head",
	TrackLift:           "lift",
	TrackFace:           "face",
	TrackAudio:          "audio",
	TrackBackpackLights: "backpack_lights",
	TrackEvent:          "event",
}

// AllTracks returns every track in bit order.
func AllTracks() []Track {
	out := make([]Track, len(allTracks))
	copy(out, allTracks)
	return out
}

// String returns the lower-case track name.
func (t Track) String() string {
	if name, ok := trackNames[t]; ok {
		return name
	}
	return fmt.Sprintf("track(%d)", uint8(t))
}

// ParseTrack converts a track name back to a Track.
func ParseTrack(name string) (Track, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, tn := range trackNames {
		if tn == n {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTrack, name)
}

// Tracks builds a mask from individual tracks.
func Tracks(tracks ...Track) TrackMask {
	var m TrackMask
	for _, t := range tracks {
		m |= TrackMask(t)
	}
	return m
}

// Has reports whether t is in the mask.
func (m TrackMask) Has(t Track) bool { return m&TrackMask(t) != 0 }

// Overlaps reports whether the two masks share any track.
func (m TrackMask) Overlaps(o TrackMask) bool { return m&o != 0 }

// List returns the tracks in the mask in bit order.
func (m TrackMask) List() []Track {
	var out []Track
	for _, t := range allTracks {
		if m.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// String renders the mask as "body|head".
func (m TrackMask) String() string {
	if m == TracksNone {
		return "none"
	}
	parts := make([]string, 0, len(allTracks))
	for _, t := range m.List() {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "|")
}

// State is the lifecycle position of a runner.
type State int

// Runner states. Success, Failure, Aborted and Cancelled are terminal.
const (
	StateNotStarted State = iota
	StateInitializing
	StateRunning
	StateSuccess
	StateFailure
	StateAborted
	StateCancelled
)

var stateNames = [...]string{
	StateNotStarted:   "not_started",
	StateInitializing: "initializing",
	StateRunning:      "running",
	StateSuccess:      "success",
	StateFailure:      "failure",
	StateAborted:      "aborted",
	StateCancelled:    "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsTerminal reports whether no further ticks will be delivered.
func (s State) IsTerminal() bool {
	return s >= StateSuccess
}

// severity orders terminal outcomes for parallel composites.
func (s State) severity() int {
	switch s {
	case StateSuccess:
		return 0
	case StateCancelled:
		return 1
	case StateFailure:
		return 2
	case StateAborted:
		return 3
	default:
		return -1
	}
}

// FailureKind refines StateFailure.
type FailureKind int

// Failure kinds.
const (
	FailureNone FailureKind = iota
	FailureInitFailed
	FailureRunFailed
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInitFailed:
		return "init_failed"
	case FailureRunFailed:
		return "run_failed"
	case FailureTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Result is what a leaf Action returns from Poll.
type Result int

// Poll results.
const (
	ResultRunning Result = iota
	ResultSuccess
	ResultFailure
	ResultRetry
	ResultAbort
)

func (r Result) String() string {
	switch r {
	case ResultRunning:
		return "running"
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultRetry:
		return "retry"
	case ResultAbort:
		return "abort"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// CompletionRecord is delivered exactly once per terminal runner.
type CompletionRecord struct {
	Tag      Tag           `json:"tag"`
	Parent   Tag           `json:"parent,omitempty"` // InvalidTag for top-level runners
	Name     string        `json:"name"`
	Type     Type          `json:"type"`
	State    State         `json:"state"`
	Failure  FailureKind   `json:"failure"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the runner finished with StateSuccess.
func (r CompletionRecord) Succeeded() bool { return r.State == StateSuccess }

// Err maps the outcome to one of the package sentinel errors, or nil on success.
func (r CompletionRecord) Err() error {
	switch r.State {
	case StateSuccess:
		return nil
	case StateAborted:
		return ErrAborted
	case StateCancelled:
		return ErrCancelled
	case StateFailure:
		switch r.Failure {
		case FailureInitFailed:
			return ErrInitFailed
		case FailureTimeout:
			return ErrTimeout
		default:
			return ErrRunFailed
		}
	default:
		return fmt.Errorf("action: record for tag %d is not terminal (%s)", r.Tag, r.State)
	}
}

// Position selects where Queue places a runner.
type Position int

// Queue positions.
const (
	PositionNow Position = iota
	PositionNowAndResume
	PositionNowAndClearRemaining
	PositionNext
	PositionAtEnd
	PositionInParallel
)

func (p Position) String() string {
	switch p {
	case PositionNow:
		return "now"
	case PositionNowAndResume:
		return "now_and_resume"
	case PositionNowAndClearRemaining:
		return "now_and_clear_remaining"
	case PositionNext:
		return "next"
	case PositionAtEnd:
		return "at_end"
	case PositionInParallel:
		return "in_parallel"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// ParsePosition converts the String form back to a Position.
func ParsePosition(s string) (Position, error) {
	for p := PositionNow; p <= PositionInParallel; p++ {
		if p.String() == strings.ToLower(strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (k FailureKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (m TrackMask) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (t Track) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
