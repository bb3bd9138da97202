package actuator

import (
	"sync"

	"github.com/nerrad567/actioncore/internal/action"
)

// RecordingCommander keeps every emitted command in memory. It stands in
// for the hardware in tests and in dry runs without a broker.
type RecordingCommander struct {
	mu       sync.Mutex
	commands []action.Command
	err      error
}

var _ action.Commander = (*RecordingCommander)(nil)

// NewRecordingCommander returns an empty recorder.
func NewRecordingCommander() *RecordingCommander {
	return &RecordingCommander{}
}

// Emit records cmd, or returns the error installed with FailWith.
func (r *RecordingCommander) Emit(cmd action.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// FailWith makes subsequent Emit calls return err. nil restores success.
func (r *RecordingCommander) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Commands returns a copy of everything recorded so far.
func (r *RecordingCommander) Commands() []action.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]action.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// OnTrack returns the recorded commands for one track, in emit order.
func (r *RecordingCommander) OnTrack(track action.Track) []action.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []action.Command
	for _, c := range r.commands {
		if c.Track == track {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded commands.
func (r *RecordingCommander) Reset() {
	r.mu.Lock()
	r.commands = nil
	r.mu.Unlock()
}
