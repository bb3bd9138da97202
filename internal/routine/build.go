package routine

import (
	"fmt"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// Build turns a routine into a fresh runner tree ready to queue.
//
// The root is a sequential composite whose children are the step groups;
// a group of one step is a leaf, a larger group is a parallel composite.
// Every call returns new runners, so a routine can be queued repeatedly.
func Build(r *Routine, opts ...action.Option) (action.Runner, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	typ := r.Type
	if typ == "" {
		typ = DefaultType
	}

	rootOpts := []action.Option{
		action.WithType(action.Type(typ)),
		action.Interruptible(r.IsInterruptible()),
	}
	if r.TimeoutMS > 0 {
		rootOpts = append(rootOpts, action.WithTimeout(time.Duration(r.TimeoutMS)*time.Millisecond))
	}
	root := action.NewSequential(r.Name).With(append(rootOpts, opts...)...)

	for gi, group := range groupSteps(r.Steps) {
		if len(group) == 1 {
			leaf, err := buildLeaf(r, group[0])
			if err != nil {
				return nil, err
			}
			if err := root.Add(leaf, group[0].IgnoreResult); err != nil {
				return nil, fmt.Errorf("adding step %q: %w", leaf.Name(), err)
			}
			continue
		}

		par := action.NewParallel(fmt.Sprintf("%s/group-%d", r.Name, gi+1)).With(
			action.WithType(action.Type(typ)),
			action.Interruptible(r.IsInterruptible()),
		)
		for _, s := range group {
			leaf, err := buildLeaf(r, s)
			if err != nil {
				return nil, err
			}
			if err := par.Add(leaf, s.IgnoreResult); err != nil {
				return nil, fmt.Errorf("adding step %q: %w", leaf.Name(), err)
			}
		}
		if err := root.Add(par, false); err != nil {
			return nil, fmt.Errorf("adding group %d: %w", gi+1, err)
		}
	}
	return root, nil
}

func buildLeaf(r *Routine, s Step) (*action.Leaf, error) {
	track, err := action.ParseTrack(s.Track)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
	}

	name := s.Name
	if name == "" {
		name = r.Name + "/" + s.Command
	}

	opts := []action.Option{action.Interruptible(r.IsInterruptible())}
	if s.TimeoutMS > 0 {
		opts = append(opts, action.WithTimeout(time.Duration(s.TimeoutMS)*time.Millisecond))
	}
	if s.Retries > 0 {
		opts = append(opts, action.WithRetries(s.Retries))
	}

	act := &CommandAction{
		Track:    track,
		Command:  s.Command,
		Params:   deepCopyMap(s.Params),
		Duration: time.Duration(s.DurationMS) * time.Millisecond,
	}
	return action.NewLeaf(name, action.Type(s.Command), action.Tracks(track), act, opts...), nil
}

// groupSteps splits steps into sequential groups by the Parallel flag. The
// first step always opens a group; a later step with Parallel joins the
// current group and any other step opens a new one.
//
//	steps:  [A, B(parallel), C(parallel), D]
//	groups: [[A, B, C], [D]]
func groupSteps(steps []Step) [][]Step {
	if len(steps) == 0 {
		return nil
	}

	var groups [][]Step
	current := []Step{steps[0]}
	for _, s := range steps[1:] {
		if s.Parallel {
			current = append(current, s)
			continue
		}
		groups = append(groups, current)
		current = []Step{s}
	}
	return append(groups, current)
}
