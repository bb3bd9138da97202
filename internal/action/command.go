package action

// Command is an opaque request for an actuator, emitted by a leaf.
type Command struct {
	Source Tag            `json:"source"`
	Track  Track          `json:"track"`
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Commander is the capability leaves use to reach the actuator layer.
// Emit must not block.
type Commander interface {
	Emit(cmd Command) error
}

// CommanderFunc adapts a function to Commander.
type CommanderFunc func(cmd Command) error

// Emit implements Commander.
func (f CommanderFunc) Emit(cmd Command) error { return f(cmd) }

type discardCommander struct{}

func (discardCommander) Emit(Command) error { return nil }
