package history

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/actioncore/internal/action"
)

// DefaultBuffer is used when NewRecorder is given a non-positive size.
const DefaultBuffer = 1024

// shutdownFlushTimeout bounds the final drain after Run's context ends.
const shutdownFlushTimeout = 5 * time.Second

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

// RecorderStats counts recorder activity.
type RecorderStats struct {
	Recorded uint64 `json:"recorded"`
	Written  uint64 `json:"written"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

// Recorder copies completion records off the scheduler tick into the
// repository. Record never blocks; when the buffer is full the entry is
// dropped and counted.
type Recorder struct {
	repo    Repository
	robotID string
	entries chan Entry
	logger  Logger
	now     func() time.Time

	recorded atomic.Uint64
	written  atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// NewRecorder creates a recorder. Nothing is written until Run starts.
func NewRecorder(repo Repository, robotID string, buffer int, logger Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:    repo,
		robotID: robotID,
		entries: make(chan Entry, buffer),
		logger:  logger,
		now:     time.Now,
	}
}

// Attach registers the recorder on w and returns the registration.
func (r *Recorder) Attach(w *action.Watcher) action.CallbackID {
	return w.Register(r.Record)
}

// Record queues rec for persistence. It is an action.CompletionFunc.
func (r *Recorder) Record(rec action.CompletionRecord) {
	r.recorded.Add(1)
	select {
	case r.entries <- NewEntry(r.robotID, rec, r.now()):
	default:
		n := r.dropped.Add(1)
		// Log the first drop and then every 100th to keep the tick quiet.
		if n == 1 || n%100 == 0 {
			r.logger.Warn("completion history dropped", "error", ErrEntryDropped, "dropped_total", n, "tag", rec.Tag, "name", rec.Name)
		}
	}
}

// Run writes queued entries until ctx is cancelled, then flushes what is
// already buffered.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.entries:
			r.write(ctx, e)
		case <-ctx.Done():
			r.flush()
			return
		}
	}
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()
	for {
		select {
		case e := <-r.entries:
			r.write(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	if err := r.repo.Insert(ctx, &e); err != nil {
		r.failed.Add(1)
		r.logger.Error("writing completion history failed", "tag", e.Tag, "name", e.Name, "error", fmt.Errorf("entry %s: %w", e.ID, err))
		return
	}
	r.written.Add(1)
}

// Pending returns the number of buffered, unwritten entries.
func (r *Recorder) Pending() int {
	return len(r.entries)
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Recorded: r.recorded.Load(),
		Written:  r.written.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
	}
}
