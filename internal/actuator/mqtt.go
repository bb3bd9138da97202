package actuator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/infrastructure/mqtt"
)

// DefaultBuffer is used when NewMQTTCommander is given a non-positive size.
const DefaultBuffer = 256

// Publisher is the subset of the MQTT client the commander needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

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

// Message is the JSON body published for every command.
type Message struct {
	ID       string         `json:"id"`
	Source   action.Tag     `json:"source"`
	Track    string         `json:"track"`
	Command  string         `json:"command"`
	Params   map[string]any `json:"params,omitempty"`
	IssuedAt time.Time      `json:"issued_at"`
}

type outbound struct {
	topic   string
	payload []byte
	command string
}

// Stats counts what happened to emitted commands.
type Stats struct {
	Emitted   uint64 `json:"emitted"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

// MQTTCommander implements action.Commander by publishing each command to
// actioncore/{robot}/command/{track}.
type MQTTCommander struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	queue  chan outbound
	logger Logger
	now    func() time.Time

	emitted   atomic.Uint64
	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

var _ action.Commander = (*MQTTCommander)(nil)

// NewMQTTCommander creates a commander with an outbound buffer of the given
// size. Nothing is published until Run is started.
func NewMQTTCommander(pub Publisher, topics mqtt.Topics, qos byte, buffer int, logger Logger) *MQTTCommander {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTCommander{
		pub:    pub,
		topics: topics,
		qos:    qos,
		queue:  make(chan outbound, buffer),
		logger: logger,
		now:    time.Now,
	}
}

// Emit encodes cmd and queues it for publication without blocking.
func (c *MQTTCommander) Emit(cmd action.Command) error {
	if cmd.Name == "" || cmd.Track == 0 {
		return fmt.Errorf("%w: name and track are required", ErrInvalidCommand)
	}

	track := cmd.Track.String()
	payload, err := json.Marshal(Message{
		ID:       uuid.NewString(),
		Source:   cmd.Source,
		Track:    track,
		Command:  cmd.Name,
		Params:   cmd.Params,
		IssuedAt: c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrInvalidCommand, cmd.Name, err)
	}

	c.emitted.Add(1)
	select {
	case c.queue <- outbound{topic: c.topics.Command(track), payload: payload, command: cmd.Name}:
		return nil
	default:
		c.dropped.Add(1)
		return fmt.Errorf("%w: %s on %s", ErrCommandDropped, cmd.Name, track)
	}
}

// Run publishes queued commands until ctx is cancelled, then flushes what
// is already buffered and returns.
func (c *MQTTCommander) Run(ctx context.Context) {
	for {
		select {
		case msg := <-c.queue:
			c.publish(msg)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *MQTTCommander) drain() {
	for {
		select {
		case msg := <-c.queue:
			c.publish(msg)
		default:
			return
		}
	}
}

func (c *MQTTCommander) publish(msg outbound) {
	if err := c.pub.Publish(msg.topic, msg.payload, c.qos, false); err != nil {
		c.failed.Add(1)
		c.logger.Warn("command publish failed", "topic", msg.topic, "command", msg.command, "error", err)
		return
	}
	c.published.Add(1)
	c.logger.Debug("command published", "topic", msg.topic, "command", msg.command)
}

// Pending returns the number of buffered, unpublished commands.
func (c *MQTTCommander) Pending() int {
	return len(c.queue)
}

// Stats returns the command counters.
func (c *MQTTCommander) Stats() Stats {
	return Stats{
		Emitted:   c.emitted.Load(),
		Published: c.published.Load(),
		Dropped:   c.dropped.Load(),
		Failed:    c.failed.Load(),
	}
}
