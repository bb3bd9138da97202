package routine

import (
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// CommandAction issues one command on its track and then holds the track
// for Duration.
//
// The command goes out on the first poll, which runs in the same tick as
// Init. If the runner is suspended and later resumed, the command is issued
// again and only the remaining duration is waited. An emit error asks for a
// retry, so the runner fails once its retry budget is spent.
type CommandAction struct {
	Track    action.Track
	Command  string
	Params   map[string]any
	Duration time.Duration

	issued   bool
	since    time.Time     // when the current stretch began
	held     time.Duration // held time from earlier stretches
	lastTick uint64
	lastNow  time.Time
}

var _ action.Action = (*CommandAction)(nil)

// Init resets the action for a fresh attempt.
func (a *CommandAction) Init(*action.Context) error {
	a.issued = false
	a.held = 0
	return nil
}

// Poll implements action.Action.
func (a *CommandAction) Poll(ctx *action.Context) action.Result {
	// A gap in ticks means the runner was suspended in between.
	if !a.issued || ctx.Tick != a.lastTick+1 {
		if a.issued {
			a.held += a.lastNow.Sub(a.since)
		}
		err := ctx.Emit(action.Command{Track: a.Track, Name: a.Command, Params: a.Params})
		if err != nil {
			ctx.Logger.Warn("command emit failed", "tag", ctx.Tag, "name", ctx.Name, "command", a.Command, "error", err)
			return action.ResultRetry
		}
		a.issued = true
		a.since = ctx.Now
	}
	a.lastTick = ctx.Tick
	a.lastNow = ctx.Now

	if a.held+ctx.Now.Sub(a.since) >= a.Duration {
		return action.ResultSuccess
	}
	return action.ResultRunning
}
