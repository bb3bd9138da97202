package history

import "errors"

var (
	// ErrEntryNotFound is returned when no entry has the requested ID.
	ErrEntryNotFound = errors.New("history: entry not found")

	// ErrEntryDropped is reported when the recorder buffer is full.
	ErrEntryDropped = errors.New("history: buffer full, entry dropped")
)
