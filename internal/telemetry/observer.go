package telemetry

import (
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// Observer receives scheduler output on the tick goroutine. Implementations
// must return quickly and must not modify the snapshot.
type Observer interface {
	OnCompletion(rec action.CompletionRecord)
	OnSnapshot(snap action.Snapshot)
}

// TickObserver is implemented by observers that also want tick timings.
type TickObserver interface {
	OnTick(tick uint64, took time.Duration)
}

// Logger is the logging surface of this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CompletionEvent is a completion record stamped with its robot and time,
// as published to MQTT and WebSocket clients.
type CompletionEvent struct {
	RobotID string    `json:"robot_id"`
	At      time.Time `json:"at"`
	action.CompletionRecord
}

// SnapshotEvent is a queue snapshot stamped with its robot.
type SnapshotEvent struct {
	RobotID string `json:"robot_id"`
	action.Snapshot
}
