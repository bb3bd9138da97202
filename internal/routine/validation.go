package routine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/actioncore/internal/action"
)

const (
	maxNameLength    = 100
	maxSteps         = 100
	maxParameterKeys = 20
	maxDurationMS    = 600000 // 10 minutes
	maxTimeoutMS     = 3600000
	maxRetries       = 10
)

// Validate checks a routine and all of its steps. It returns the first
// failure found.
func Validate(r *Routine) error {
	if r == nil {
		return ErrInvalidRoutine
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidRoutine)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRoutine, maxNameLength)
	}
	if r.TimeoutMS < 0 || r.TimeoutMS > maxTimeoutMS {
		return fmt.Errorf("%w: timeout_ms must be 0-%d", ErrInvalidRoutine, maxTimeoutMS)
	}

	if len(r.Steps) == 0 {
		return ErrNoSteps
	}
	if len(r.Steps) > maxSteps {
		return fmt.Errorf("%w: exceeds maximum of %d steps", ErrInvalidRoutine, maxSteps)
	}
	for i, s := range r.Steps {
		if err := ValidateStep(s); err != nil {
			return fmt.Errorf("step[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateStep checks a single step.
func ValidateStep(s Step) error {
	if _, err := action.ParseTrack(s.Track); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStep, err)
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("%w: command is required", ErrInvalidStep)
	}
	if s.DurationMS < 0 || s.DurationMS > maxDurationMS {
		return fmt.Errorf("%w: duration_ms must be 0-%d", ErrInvalidStep, maxDurationMS)
	}
	if s.TimeoutMS < 0 || s.TimeoutMS > maxTimeoutMS {
		return fmt.Errorf("%w: timeout_ms must be 0-%d", ErrInvalidStep, maxTimeoutMS)
	}
	if s.TimeoutMS > 0 && s.TimeoutMS <= s.DurationMS {
		return fmt.Errorf("%w: timeout_ms must exceed duration_ms", ErrInvalidStep)
	}
	if s.Retries < 0 || s.Retries > maxRetries {
		return fmt.Errorf("%w: retries must be 0-%d", ErrInvalidStep, maxRetries)
	}
	if len(s.Params) > maxParameterKeys {
		return fmt.Errorf("%w: params exceeds %d keys", ErrInvalidStep, maxParameterKeys)
	}
	return nil
}

// normalize fills defaults in place: a generated ID, the default type and
// trimmed names.
func normalize(r *Routine) {
	r.Name = strings.TrimSpace(r.Name)
	if r.ID == "" {
		r.ID = GenerateID()
	}
	if r.Type == "" {
		r.Type = DefaultType
	}
}

// GenerateID creates a new routine ID.
func GenerateID() string {
	return uuid.New().String()
}
