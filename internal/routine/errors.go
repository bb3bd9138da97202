package routine

import "errors"

var (
	// ErrRoutineNotFound is returned when a routine ID or name is unknown.
	ErrRoutineNotFound = errors.New("routine: not found")

	// ErrInvalidRoutine covers routine-level validation failures.
	ErrInvalidRoutine = errors.New("routine: invalid routine")

	// ErrInvalidStep covers step-level validation failures.
	ErrInvalidStep = errors.New("routine: invalid step")

	// ErrNoSteps is returned for a routine without steps.
	ErrNoSteps = errors.New("routine: routine has no steps")

	// ErrDuplicateRoutine is returned when two routines share an ID or name.
	ErrDuplicateRoutine = errors.New("routine: duplicate routine")
)
