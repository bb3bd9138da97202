package action

import "time"

// NoTimeout disables the timeout of a runner when passed to WithTimeout.
const NoTimeout time.Duration = -1

// TypeCompound is the default type of composite runners.
const TypeCompound Type = "compound"

// Runner is the unit of schedulable work. It is implemented only by *Leaf
// and *Composite.
type Runner interface {
	// Tag returns the runner's tag, or InvalidTag before it is queued
	// unless one was supplied with WithTag.
	Tag() Tag
	Name() string
	Type() Type
	State() State
	Failure() FailureKind

	// Tracks returns the tracks the runner drives. For a composite this is
	// the union over its live children; composites never hold tracks.
	Tracks() TrackMask
	Interruptible() bool

	// Children returns the live children of a composite, nil for a leaf.
	Children() []Runner

	base() *node
}

// Action is the payload of a leaf runner. Neither method may block.
type Action interface {
	// Init prepares the action. It runs once after the leaf acquires its
	// tracks, and again after every retry.
	Init(ctx *Context) error

	// Poll advances the action by one tick.
	Poll(ctx *Context) Result
}

// Cleaner is implemented by actions that need to run teardown when the leaf
// reaches a terminal state, however it got there.
type Cleaner interface {
	Cleanup(ctx *Context)
}

// ActionFuncs adapts plain functions to Action and Cleaner. A nil InitFunc
// succeeds, a nil PollFunc reports success on the first poll.
type ActionFuncs struct {
	InitFunc    func(ctx *Context) error
	PollFunc    func(ctx *Context) Result
	CleanupFunc func(ctx *Context)
}

// Init implements Action.
func (f ActionFuncs) Init(ctx *Context) error {
	if f.InitFunc == nil {
		return nil
	}
	return f.InitFunc(ctx)
}

// Poll implements Action.
func (f ActionFuncs) Poll(ctx *Context) Result {
	if f.PollFunc == nil {
		return ResultSuccess
	}
	return f.PollFunc(ctx)
}

// Cleanup implements Cleaner.
func (f ActionFuncs) Cleanup(ctx *Context) {
	if f.CleanupFunc != nil {
		f.CleanupFunc(ctx)
	}
}

// Context is handed to every Init, Poll and Cleanup call.
type Context struct {
	Tag     Tag
	Name    string
	Tick    uint64
	Now     time.Time
	Started time.Time // when the runner first acquired its tracks
	Attempt int       // 0 on the first run, incremented by each retry

	Commands Commander
	Logger   Logger
}

// Elapsed returns the time since the runner first started.
func (c *Context) Elapsed() time.Duration {
	if c.Started.IsZero() {
		return 0
	}
	return c.Now.Sub(c.Started)
}

// Emit sends cmd through the list's commander, filling in the source tag.
func (c *Context) Emit(cmd Command) error {
	cmd.Source = c.Tag
	return c.Commands.Emit(cmd)
}

// Option configures a runner at construction time.
type Option func(*options)

type options struct {
	tag           Tag
	typ           Type
	timeout       time.Duration
	retries       int
	retriesSet    bool
	interruptible bool
	onComplete    CompletionFunc
}

// WithTag supplies the runner's tag instead of taking an auto-generated one.
// Queuing fails with ErrDuplicateTag if the tag is already live.
func WithTag(tag Tag) Option {
	return func(o *options) { o.tag = tag }
}

// WithType sets the runner's type.
func WithType(typ Type) Option {
	return func(o *options) { o.typ = typ }
}

// WithTimeout sets the runner's timeout. Zero keeps the default (the list
// default for leaves, none for composites); NoTimeout disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetries sets the retry budget of a leaf. Composites ignore it.
func WithRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.retries = n
		o.retriesSet = true
	}
}

// Interruptible controls whether Now and NowAndResume may displace the
// runner. Runners are interruptible unless told otherwise.
func Interruptible(v bool) Option {
	return func(o *options) { o.interruptible = v }
}

// OnComplete sets the runner's own completion callback. It is invoked once,
// before any watcher callbacks, and then dropped.
func OnComplete(fn CompletionFunc) Option {
	return func(o *options) { o.onComplete = fn }
}

func buildOptions(typ Type, opts []Option) options {
	o := options{typ: typ, interruptible: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.typ == "" {
		o.typ = TypeUnknown
	}
	return o
}

// node is the state shared by both runner shapes.
type node struct {
	tag           Tag
	name          string
	typ           Type
	state         State
	failure       FailureKind
	interruptible bool
	timeout       time.Duration
	onComplete    CompletionFunc

	list   *List
	parent Tag

	started   time.Time
	deadline  time.Time
	remaining time.Duration // deadline budget left while suspended
	paused    bool
	suspended bool
	finished  bool
}

func newNode(name string, o options) node {
	return node{
		tag:           o.tag,
		name:          name,
		typ:           o.typ,
		interruptible: o.interruptible,
		timeout:       o.timeout,
		onComplete:    o.onComplete,
	}
}

func (n *node) Tag() Tag             { return n.tag }
func (n *node) Name() string         { return n.name }
func (n *node) Type() Type           { return n.typ }
func (n *node) State() State         { return n.state }
func (n *node) Failure() FailureKind { return n.failure }
func (n *node) Interruptible() bool  { return n.interruptible }
func (n *node) base() *node          { return n }

func (n *node) expired(now time.Time) bool {
	return !n.deadline.IsZero() && !now.Before(n.deadline)
}

// start records the first start and arms the deadline.
func (n *node) start(now time.Time, timeout time.Duration) {
	if !n.started.IsZero() {
		return
	}
	n.started = now
	if timeout > 0 {
		n.deadline = now.Add(timeout)
	}
}

// suspend pauses the deadline.
func (n *node) suspend(now time.Time) {
	n.suspended = true
	if n.deadline.IsZero() {
		return
	}
	n.remaining = max(n.deadline.Sub(now), 0)
	n.deadline = time.Time{}
	n.paused = true
}

// resume re-arms a deadline paused by suspend.
func (n *node) resume(now time.Time) {
	if !n.suspended {
		return
	}
	n.suspended = false
	if n.paused {
		n.deadline = now.Add(n.remaining)
		n.paused = false
		n.remaining = 0
	}
}

// Leaf is a runner that holds tracks and drives an Action.
type Leaf struct {
	node
	tracks   TrackMask
	action   Action
	retries  int
	retrySet bool
	attempts int
	needInit bool
	holding  bool
}

// NewLeaf creates a leaf runner. tracks may be TracksNone for actions that
// drive no hardware.
func NewLeaf(name string, typ Type, tracks TrackMask, act Action, opts ...Option) *Leaf {
	o := buildOptions(typ, opts)
	return &Leaf{
		node:     newNode(name, o),
		tracks:   tracks,
		action:   act,
		retries:  o.retries,
		retrySet: o.retriesSet,
		needInit: true,
	}
}

// Tracks implements Runner.
func (l *Leaf) Tracks() TrackMask { return l.tracks }

// Children implements Runner.
func (l *Leaf) Children() []Runner { return nil }

// Action returns the leaf's payload.
func (l *Leaf) Action() Action { return l.action }

// Attempts returns how many retries the leaf has used.
func (l *Leaf) Attempts() int { return l.attempts }

// Holding reports whether the leaf currently holds its tracks.
func (l *Leaf) Holding() bool { return l.holding }
