package telemetry

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/infrastructure/influxdb"
)

// PointWriter is the subset of *influxdb.Client the sink needs. Writes are
// expected to be asynchronous.
type PointWriter interface {
	WriteCompletion(rec influxdb.Completion)
	WriteQueueDepth(queue, length int, ts time.Time)
	WriteTick(tick uint64, queues, tracksLocked int, ts time.Time)
}

// InfluxSink writes completions and sampled queue state to InfluxDB.
//
// Every completion is written. Queue depths are sampled at most at the
// configured rate since a point per tick would flood the bucket.
type InfluxSink struct {
	w       PointWriter
	limiter *rate.Limiter
	now     func() time.Time
}

var _ Observer = (*InfluxSink)(nil)

// NewInfluxSink creates a sink sampling snapshots at most sampleHz times a
// second. Zero or less writes every snapshot.
func NewInfluxSink(w PointWriter, sampleHz float64) *InfluxSink {
	limit := rate.Inf
	if sampleHz > 0 {
		limit = rate.Limit(sampleHz)
	}
	return &InfluxSink{
		w:       w,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// OnCompletion writes rec as an action_completions point.
func (s *InfluxSink) OnCompletion(rec action.CompletionRecord) {
	failure := ""
	if rec.Failure != action.FailureNone {
		failure = rec.Failure.String()
	}
	s.w.WriteCompletion(influxdb.Completion{
		Name:     rec.Name,
		Type:     string(rec.Type),
		State:    rec.State.String(),
		Failure:  failure,
		TopLevel: rec.Parent == action.InvalidTag,
		Duration: rec.Duration,
		At:       s.now(),
	})
}

// OnSnapshot writes one depth point per queue and a tick summary, unless the
// sample rate has been exceeded. Slots that emptied since the last sample
// simply stop reporting.
func (s *InfluxSink) OnSnapshot(snap action.Snapshot) {
	ts := snap.Taken
	if ts.IsZero() {
		ts = s.now()
	}
	if !s.limiter.AllowN(ts, 1) {
		return
	}
	for _, q := range snap.Queues {
		s.w.WriteQueueDepth(q.ID, len(q.Runners), ts)
	}
	s.w.WriteTick(snap.Tick, len(snap.Queues), len(snap.Locked.List()), ts)
}
