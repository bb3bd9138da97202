package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/infrastructure/mqtt"
)

// DefaultEventBuffer bounds completion events waiting to be published.
const DefaultEventBuffer = 512

// ErrEventDropped is reported in stats when the event buffer is full.
var ErrEventDropped = errors.New("telemetry: event buffer full, event dropped")

// MQTTClient is the subset of *mqtt.Client the publisher needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// PublisherStats counts publisher activity.
type PublisherStats struct {
	Completions uint64 `json:"completions"`
	Snapshots   uint64 `json:"snapshots"`
	Dropped     uint64 `json:"dropped"`
	Failed      uint64 `json:"failed"`
}

// Publisher forwards completions and queue snapshots to MQTT.
//
// OnCompletion and OnSnapshot never block: completions go through a
// bounded channel and only the newest snapshot is kept. Run publishes
// completions in order and snapshots at most at the configured rate,
// retained so late subscribers see the current queues.
type Publisher struct {
	client  MQTTClient
	topics  mqtt.Topics
	qos     byte
	robotID string
	logger  Logger
	now     func() time.Time

	events  chan []byte
	wake    chan struct{}
	limiter *rate.Limiter

	mu     sync.Mutex
	latest []byte

	completions atomic.Uint64
	snapshots   atomic.Uint64
	dropped     atomic.Uint64
	failed      atomic.Uint64
}

var _ Observer = (*Publisher)(nil)

// NewPublisher creates a publisher for robotID. A snapshotHz of zero or
// less publishes every snapshot handed to it.
func NewPublisher(client MQTTClient, topics mqtt.Topics, robotID string, qos byte, snapshotHz float64, buffer int, logger Logger) *Publisher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if logger == nil {
		logger = noopLogger{}
	}
	limit := rate.Inf
	if snapshotHz > 0 {
		limit = rate.Limit(snapshotHz)
	}
	return &Publisher{
		client:  client,
		topics:  topics,
		qos:     qos,
		robotID: robotID,
		logger:  logger,
		now:     time.Now,
		events:  make(chan []byte, buffer),
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// OnCompletion queues rec for publication.
func (p *Publisher) OnCompletion(rec action.CompletionRecord) {
	payload, err := json.Marshal(CompletionEvent{RobotID: p.robotID, At: p.now().UTC(), CompletionRecord: rec})
	if err != nil {
		p.logger.Error("encoding completion event", "tag", rec.Tag, "error", err)
		return
	}
	select {
	case p.events <- payload:
	default:
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.logger.Warn("completion event dropped", "tag", rec.Tag, "dropped", n, "error", ErrEventDropped)
		}
	}
}

// OnSnapshot replaces the pending snapshot with snap.
func (p *Publisher) OnSnapshot(snap action.Snapshot) {
	payload, err := json.Marshal(SnapshotEvent{RobotID: p.robotID, Snapshot: snap})
	if err != nil {
		p.logger.Error("encoding queue snapshot", "tick", snap.Tick, "error", err)
		return
	}
	p.mu.Lock()
	p.latest = payload
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run publishes until ctx is cancelled, then flushes what is pending.
func (p *Publisher) Run(ctx context.Context) {
	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return
		case payload := <-p.events:
			p.publishCompletion(payload)
		case <-p.wake:
			if retry == nil {
				retry = p.publishSnapshot()
			}
		case <-retry:
			retry = p.publishSnapshot()
		}
	}
}

// Stats returns a copy of the publisher counters.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		Completions: p.completions.Load(),
		Snapshots:   p.snapshots.Load(),
		Dropped:     p.dropped.Load(),
		Failed:      p.failed.Load(),
	}
}

// publishSnapshot sends the pending snapshot if the limiter allows it. When
// it does not, it returns a channel that fires once it will.
func (p *Publisher) publishSnapshot() <-chan time.Time {
	r := p.limiter.Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return time.After(d)
	}
	p.sendSnapshot()
	return nil
}

func (p *Publisher) sendSnapshot() {
	p.mu.Lock()
	payload := p.latest
	p.latest = nil
	p.mu.Unlock()
	if payload == nil {
		return
	}
	if err := p.client.Publish(p.topics.ActionQueues(), payload, p.qos, true); err != nil {
		p.failed.Add(1)
		p.logger.Warn("publishing queue snapshot", "error", err)
		return
	}
	p.snapshots.Add(1)
}

func (p *Publisher) publishCompletion(payload []byte) {
	if err := p.client.Publish(p.topics.ActionCompleted(), payload, p.qos, false); err != nil {
		p.failed.Add(1)
		p.logger.Warn("publishing completion event", "error", err)
		return
	}
	p.completions.Add(1)
}

func (p *Publisher) flush() {
	for {
		select {
		case payload := <-p.events:
			p.publishCompletion(payload)
		default:
			p.sendSnapshot()
			return
		}
	}
}
