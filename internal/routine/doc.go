// Package routine declares runner trees in YAML and builds them for the
// action scheduler.
//
// A routine is an ordered list of steps. Each step issues one command on
// one track and holds the track for a duration. Consecutive steps flagged
// parallel form a group that runs concurrently:
//
//	Routine "greet"                     Sequential "greet"
//	  face  smile                  ─▶     Parallel "greet/group-1"
//	  head  nod        (parallel)           Leaf face:smile
//	  audio hello      (parallel)           Leaf head:nod
//	  body  spin                            Leaf audio:hello
//	                                      Leaf body:spin
//
// # Key Types
//
//   - Routine, Step: the declarative definition, loaded with LoadFile
//   - CommandAction: the leaf behavior that emits a step's command
//   - Registry: routines cached by ID with name lookup
//
// # Usage
//
//	reg := routine.NewRegistry()
//	if err := reg.LoadFile(cfg.Scheduler.RoutinesFile); err != nil {
//	    return err
//	}
//	runner, err := reg.Build("wake-up")
//	if err != nil {
//	    return err
//	}
//	tag, err := list.Queue(action.PositionAtEnd, runner)
package routine
