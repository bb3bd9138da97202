package routine

// DefaultType is the action type of routines that do not declare one.
const DefaultType = "routine"

// Routine is a named, declarative runner tree: an ordered list of steps
// executed as a sequential composite.
//
// Steps with Parallel set run concurrently with the step before them:
// [A, B(parallel), C(parallel), D] runs A, B and C together, then D.
type Routine struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	// Type is the action type of the routine's root runner, used for
	// bulk cancellation. Defaults to DefaultType.
	Type string `yaml:"type" json:"type"`

	// Interruptible defaults to true when omitted.
	Interruptible *bool `yaml:"interruptible,omitempty" json:"interruptible,omitempty"`

	// TimeoutMS bounds the whole routine. Zero means no routine timeout.
	TimeoutMS int `yaml:"timeout_ms" json:"timeout_ms"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one command on one track.
type Step struct {
	// Name defaults to "<routine>/<command>".
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	Track   string         `yaml:"track" json:"track"`
	Command string         `yaml:"command" json:"command"`
	Params  map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// DurationMS is how long the step holds its track after issuing the
	// command. Zero completes on the tick the command is issued.
	DurationMS int `yaml:"duration_ms" json:"duration_ms"`

	// TimeoutMS overrides the scheduler default timeout for this step.
	TimeoutMS int `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`

	// Retries is the step's retry budget.
	Retries int `yaml:"retries,omitempty" json:"retries,omitempty"`

	// IgnoreResult keeps a failure of this step from failing the routine.
	IgnoreResult bool `yaml:"ignore_result,omitempty" json:"ignore_result,omitempty"`

	// Parallel joins the step to the previous step's group.
	Parallel bool `yaml:"parallel,omitempty" json:"parallel,omitempty"`
}

// IsInterruptible resolves the Interruptible default.
func (r *Routine) IsInterruptible() bool {
	return r.Interruptible == nil || *r.Interruptible
}

// DeepCopy returns a copy that shares no mutable state with r.
func (r *Routine) DeepCopy() *Routine {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Interruptible != nil {
		v := *r.Interruptible
		cp.Interruptible = &v
	}
	if r.Steps != nil {
		cp.Steps = make([]Step, len(r.Steps))
		for i, s := range r.Steps {
			s.Params = deepCopyMap(s.Params)
			cp.Steps[i] = s
		}
	}
	return &cp
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
