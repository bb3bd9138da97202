package actuator

import "errors"

var (
	// ErrCommandDropped is returned by Emit when the outbound buffer is full.
	ErrCommandDropped = errors.New("actuator: command buffer full, command dropped")

	// ErrInvalidCommand is returned for commands without a name or track.
	ErrInvalidCommand = errors.New("actuator: invalid command")
)
