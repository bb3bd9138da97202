package action

import "time"

// DefaultTimeout applies to leaves that do not set their own timeout.
const DefaultTimeout = 30 * time.Second

// Config holds List settings.
type Config struct {
	// DefaultTimeout applies to leaves without WithTimeout. Zero selects
	// DefaultTimeout; a negative value disables the default.
	DefaultTimeout time.Duration

	// DefaultRetries is the retry budget of leaves without WithRetries.
	DefaultRetries int

	// MaxParallelSlots caps InParallel slots. Zero means unlimited.
	MaxParallelSlots int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

type parallelSlot struct {
	id  int
	tag Tag
}

// List is the action scheduler. It owns queue 0, the serial default queue,
// plus parallel slots numbered from 1, and drives one step per current
// runner per Update.
//
// A List is not safe for concurrent use. Every method, and every callback it
// invokes, runs on the goroutine that calls Update.
type List struct {
	cfg      Config
	logger   Logger
	commands Commander

	tags    *TagAllocator
	tracks  *TrackLockTable
	watcher *Watcher

	arena  map[Tag]Runner
	queue0 []Tag
	slots  []parallelSlot // in creation order

	tick     uint64
	now      time.Time
	updating bool
}

// NewList creates an empty scheduler. A nil logger discards output.
func NewList(cfg Config, logger Logger) *List {
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.DefaultRetries < 0 {
		cfg.DefaultRetries = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &List{
		cfg:      cfg,
		logger:   logger,
		commands: discardCommander{},
		tags:     NewTagAllocator(),
		tracks:   NewTrackLockTable(),
		watcher:  newWatcher(),
		arena:    make(map[Tag]Runner),
	}
}

// SetCommander sets the capability handed to leaves. Nil discards commands.
func (l *List) SetCommander(c Commander) {
	if c == nil {
		c = discardCommander{}
	}
	l.commands = c
}

// Watcher returns the list's completion watcher.
func (l *List) Watcher() *Watcher { return l.watcher }

// Tracks returns the list's track lock table.
func (l *List) Tracks() *TrackLockTable { return l.tracks }

// Tags returns the list's tag allocator.
func (l *List) Tags() *TagAllocator { return l.tags }

// Tick returns the number of Update calls so far.
func (l *List) Tick() uint64 { return l.tick }

// QueueLength returns the number of runners in queue q. Parallel slots hold
// at most one runner.
func (l *List) QueueLength(q int) int {
	if q == 0 {
		return len(l.queue0)
	}
	for _, s := range l.slots {
		if s.id == q {
			return 1
		}
	}
	return 0
}

// NumQueues returns how many queues hold a runner, queue 0 included.
func (l *List) NumQueues() int {
	n := len(l.slots)
	if len(l.queue0) > 0 {
		n++
	}
	return n
}

// IsEmpty reports whether no runner is queued anywhere.
func (l *List) IsEmpty() bool {
	return len(l.queue0) == 0 && len(l.slots) == 0
}

// Current returns the runner at the front of queue q.
func (l *List) Current(q int) (Runner, bool) {
	if q == 0 {
		if len(l.queue0) == 0 {
			return nil, false
		}
		r, ok := l.arena[l.queue0[0]]
		return r, ok
	}
	for _, s := range l.slots {
		if s.id == q {
			r, ok := l.arena[s.tag]
			return r, ok
		}
	}
	return nil, false
}

// IsCurrent reports whether a runner called name is at the front of any
// queue.
func (l *List) IsCurrent(name string) bool {
	if r, ok := l.Current(0); ok && r.Name() == name {
		return true
	}
	for _, s := range l.slots {
		if r, ok := l.arena[s.tag]; ok && r.Name() == name {
			return true
		}
	}
	return false
}

// Contains reports whether tag belongs to a live runner at any depth.
func (l *List) Contains(tag Tag) bool {
	_, ok := l.arena[tag]
	return ok
}

// Get returns the live runner with tag at any depth.
func (l *List) Get(tag Tag) (Runner, bool) {
	r, ok := l.arena[tag]
	return r, ok
}

// Len returns the number of live runners at any depth.
func (l *List) Len() int { return len(l.arena) }

func (l *List) context(n *node, attempt int) *Context {
	now := l.now
	if !l.updating {
		now = l.cfg.Clock()
	}
	return &Context{
		Tag:      n.tag,
		Name:     n.name,
		Tick:     l.tick,
		Now:      now,
		Started:  n.started,
		Attempt:  attempt,
		Commands: l.commands,
		Logger:   l.logger,
	}
}
