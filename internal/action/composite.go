package action

type compositeKind int

const (
	kindSequential compositeKind = iota
	kindParallel
)

func (k compositeKind) String() string {
	if k == kindParallel {
		return "parallel"
	}
	return "sequential"
}

// childSlot is a composite's record of one adopted child. The child itself
// lives in the list's arena under tag.
type childSlot struct {
	tag     Tag
	ignore  bool
	done    bool
	state   State
	failure FailureKind
}

type stagedChild struct {
	runner Runner
	ignore bool
}

// Composite is a runner that owns an ordered set of children and never holds
// tracks itself.
//
// A sequential composite runs its children one at a time in order; a
// parallel composite steps all of them every tick. Children flagged with
// ignoreResult never decide the composite's outcome.
type Composite struct {
	node
	kind compositeKind

	staged   []stagedChild // children added before the composite is queued
	children []childSlot
	current  int // index of the running child of a sequential composite
}

// NewSequential creates a composite that runs children in order.
func NewSequential(name string, children ...Runner) *Composite {
	return newComposite(name, kindSequential, children)
}

// NewParallel creates a composite that runs children concurrently.
func NewParallel(name string, children ...Runner) *Composite {
	return newComposite(name, kindParallel, children)
}

func newComposite(name string, kind compositeKind, children []Runner) *Composite {
	c := &Composite{
		node: newNode(name, buildOptions(TypeCompound, nil)),
		kind: kind,
	}
	for _, ch := range children {
		if ch != nil {
			c.staged = append(c.staged, stagedChild{runner: ch})
		}
	}
	return c
}

// With applies options to a composite that has not been queued yet. Retry
// budgets do not apply to composites.
func (c *Composite) With(opts ...Option) *Composite {
	if c.list != nil {
		return c
	}
	o := buildOptions(c.typ, opts)
	if o.tag != InvalidTag {
		c.tag = o.tag
	}
	c.typ = o.typ
	c.interruptible = o.interruptible
	c.timeout = o.timeout
	if o.onComplete != nil {
		c.onComplete = o.onComplete
	}
	return c
}

// Add appends a child. If the composite is already queued the child is
// adopted immediately and starts when its turn comes.
func (c *Composite) Add(child Runner, ignoreResult bool) error {
	if child == nil {
		return ErrNilRunner
	}
	if c.finished {
		return ErrFinished
	}
	if child.base().list != nil {
		return ErrAlreadyQueued
	}
	if c.list == nil {
		for _, s := range c.staged {
			if s.runner == child {
				return ErrAlreadyQueued
			}
		}
		c.staged = append(c.staged, stagedChild{runner: child, ignore: ignoreResult})
		return nil
	}
	if err := c.list.adopt(child, c.tag); err != nil {
		return err
	}
	c.children = append(c.children, childSlot{tag: child.Tag(), ignore: ignoreResult})
	return nil
}

// Sequential reports whether the composite runs its children in order.
func (c *Composite) Sequential() bool { return c.kind == kindSequential }

// Len returns the number of children, finished ones included.
func (c *Composite) Len() int {
	return len(c.staged) + len(c.children)
}

// Children implements Runner.
func (c *Composite) Children() []Runner {
	var out []Runner
	for _, s := range c.staged {
		out = append(out, s.runner)
	}
	if c.list == nil {
		return out
	}
	for _, s := range c.children {
		if r, ok := c.list.arena[s.tag]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Tracks implements Runner.
func (c *Composite) Tracks() TrackMask {
	var m TrackMask
	for _, ch := range c.Children() {
		m |= ch.Tracks()
	}
	return m
}

// childFinished records a child's terminal outcome.
func (c *Composite) childFinished(tag Tag, state State, kind FailureKind) {
	for i := range c.children {
		if c.children[i].tag == tag {
			c.children[i].done = true
			c.children[i].state = state
			c.children[i].failure = kind
			return
		}
	}
}

// liveChildTags returns the tags of children that have not finished.
func (c *Composite) liveChildTags() []Tag {
	var out []Tag
	for _, s := range c.children {
		if !s.done {
			out = append(out, s.tag)
		}
	}
	return out
}

// parallelOutcome folds the results of finished children of a parallel composite.
// The most severe state wins; ties go to the earliest child.
func (c *Composite) parallelOutcome() (State, FailureKind) {
	state, kind := StateSuccess, FailureNone
	for _, s := range c.children {
		if s.ignore || !s.done {
			continue
		}
		if s.state.severity() > state.severity() {
			state, kind = s.state, s.failure
		}
	}
	return state, kind
}

// parallelDone reports whether every non-ignored child is terminal. With no
// non-ignored children it waits for all of them.
func (c *Composite) parallelDone() bool {
	required := false
	for _, s := range c.children {
		if s.ignore {
			continue
		}
		required = true
		if !s.done {
			return false
		}
	}
	if required {
		return true
	}
	for _, s := range c.children {
		if !s.done {
			return false
		}
	}
	return true
}
