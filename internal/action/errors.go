package action

import "errors"

// Domain errors for the action package.
//
// Terminal outcomes are reported through CompletionRecord.Err; queuing
// problems are returned synchronously from Queue.
var (
	// ErrInitFailed means the runner's Init returned an error.
	ErrInitFailed = errors.New("action: init failed")

	// ErrRunFailed means Poll reported failure or the retry budget was exhausted.
	ErrRunFailed = errors.New("action: run failed")

	// ErrTimeout means the runner exceeded its declared timeout.
	ErrTimeout = errors.New("action: timed out")

	// ErrAborted means the runner aborted itself.
	ErrAborted = errors.New("action: aborted")

	// ErrCancelled means the runner was cancelled externally.
	ErrCancelled = errors.New("action: cancelled")

	// ErrDuplicateTag is returned when a caller-supplied tag is already live.
	ErrDuplicateTag = errors.New("action: duplicate tag")

	// ErrAlreadyQueued is returned when the same runner value is queued twice.
	ErrAlreadyQueued = errors.New("action: runner already queued")

	// ErrNilRunner is returned when Queue receives a nil runner.
	ErrNilRunner = errors.New("action: nil runner")

	// ErrInvalidPosition is returned for an unknown queue position.
	ErrInvalidPosition = errors.New("action: invalid queue position")

	// ErrNoFreeSlot is returned when every parallel slot is occupied.
	ErrNoFreeSlot = errors.New("action: no free parallel slot")

	// ErrUnknownTrack is returned when a track name cannot be parsed.
	ErrUnknownTrack = errors.New("action: unknown track")

	// ErrTagExhausted is returned when no free auto-generated tag remains.
	ErrTagExhausted = errors.New("action: tag space exhausted")

	// ErrFinished is returned when a child is added to a composite that has
	// already reached a terminal state.
	ErrFinished = errors.New("action: runner already finished")
)
