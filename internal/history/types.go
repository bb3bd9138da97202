package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/actioncore/internal/action"
)

// Entry is one persisted completion record.
type Entry struct {
	ID          string        `json:"id"`
	RobotID     string        `json:"robot_id"`
	Tag         action.Tag    `json:"tag"`
	Parent      action.Tag    `json:"parent,omitempty"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	State       string        `json:"state"`
	Failure     string        `json:"failure"`
	Duration    time.Duration `json:"duration_ns"`
	CompletedAt time.Time     `json:"completed_at"`
}

// TopLevel reports whether the runner was queued directly rather than as a
// composite's child.
func (e *Entry) TopLevel() bool {
	return e.Parent == action.InvalidTag
}

// Succeeded reports whether the runner finished successfully.
func (e *Entry) Succeeded() bool {
	return e.State == action.StateSuccess.String()
}

// NewEntry converts a completion record observed at completedAt.
func NewEntry(robotID string, rec action.CompletionRecord, completedAt time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		RobotID:     robotID,
		Tag:         rec.Tag,
		Parent:      rec.Parent,
		Name:        rec.Name,
		Type:        string(rec.Type),
		State:       rec.State.String(),
		Failure:     rec.Failure.String(),
		Duration:    rec.Duration,
		CompletedAt: completedAt.UTC(),
	}
}
