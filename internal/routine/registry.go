package routine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/actioncore/internal/action"
)

// Logger is the logging surface of this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry caches routines by ID. Lookups return deep copies, so callers may
// modify what they get back.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Routine
	logger Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Routine),
		logger: noopLogger{},
	}
}

// SetLogger sets the registry logger.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Replace swaps the whole cache for routines. Each routine is validated and
// normalized; on error the cache is left untouched.
func (r *Registry) Replace(routines []Routine) error {
	next := make(map[string]*Routine, len(routines))
	names := make(map[string]bool, len(routines))
	for i := range routines {
		rt := routines[i].DeepCopy()
		if err := Validate(rt); err != nil {
			return fmt.Errorf("routine %q: %w", rt.Name, err)
		}
		normalize(rt)
		if _, dup := next[rt.ID]; dup {
			return fmt.Errorf("%w: id %q", ErrDuplicateRoutine, rt.ID)
		}
		if names[rt.Name] {
			return fmt.Errorf("%w: name %q", ErrDuplicateRoutine, rt.Name)
		}
		names[rt.Name] = true
		next[rt.ID] = rt
	}

	r.mu.Lock()
	r.byID = next
	r.mu.Unlock()

	r.logger.Info("routines loaded", "count", len(next))
	return nil
}

// LoadFile replaces the cache with the routines in path.
func (r *Registry) LoadFile(path string) error {
	routines, err := LoadFile(path)
	if err != nil {
		return err
	}
	return r.Replace(routines)
}

// Get returns the routine with the given ID.
func (r *Registry) Get(id string) (*Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rt, ok := r.byID[id]; ok {
		return rt.DeepCopy(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrRoutineNotFound, id)
}

// Lookup finds a routine by ID, falling back to its name.
func (r *Registry) Lookup(key string) (*Routine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rt, ok := r.byID[key]; ok {
		return rt.DeepCopy(), nil
	}
	for _, rt := range r.byID {
		if rt.Name == key {
			return rt.DeepCopy(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRoutineNotFound, key)
}

// List returns all routines sorted by name.
func (r *Registry) List() []Routine {
	r.mu.RLock()
	out := make([]Routine, 0, len(r.byID))
	for _, rt := range r.byID {
		out = append(out, *rt.DeepCopy())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of cached routines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Build looks up a routine by ID or name and builds a fresh runner tree.
func (r *Registry) Build(key string, opts ...action.Option) (action.Runner, error) {
	rt, err := r.Lookup(key)
	if err != nil {
		return nil, err
	}
	return Build(rt, opts...)
}
