package mqtt

import (
	"context"
	"fmt"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
)

// Logger is the subset of logging.Logger the client writes connection
// events to.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Option configures a Client before it connects.
type Option func(*Client)

// WithLogger routes connection events to l.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnConnect registers fn to run after the first connect and every
// reconnect, once the online status has been sent.
func OnConnect(fn func()) Option {
	return func(c *Client) { c.onConnect = fn }
}

// OnConnectionLost registers fn to run when the broker connection drops.
func OnConnectionLost(fn func(err error)) Option {
	return func(c *Client) { c.onLost = fn }
}

// Client is the broker connection of one robot. It keeps a retained
// online/offline status on Topics().Status() and publishes commands and
// telemetry for the layers above.
//
// All methods are safe for concurrent use. Hooks are fixed at Connect, so
// paho's handler goroutines read them without locking.
type Client struct {
	paho    pahomqtt.Client
	cfg     config.MQTTConfig
	topics  Topics
	robotID string
	up      atomic.Bool

	logger    Logger
	onConnect func()
	onLost    func(err error)
}

// Connect dials the broker configured in cfg on behalf of robotID and
// waits for the first connection. Paho reconnects on its own afterwards.
func Connect(cfg config.MQTTConfig, robotID string, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		topics:  NewTopics(robotID),
		robotID: robotID,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	po := clientOptions(cfg, c.topics)
	po.SetOnConnectHandler(func(pahomqtt.Client) { c.connected() })
	po.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.lost(err) })
	po.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		c.logger.Info("MQTT reconnecting", "robot_id", robotID)
	})

	c.paho = pahomqtt.NewClient(po)
	tok := c.paho.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: no answer within %v", ErrConnectionFailed, connectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	// The connect handler may still be in flight.
	c.up.Store(true)
	return c, nil
}

// Topics returns the topic layout of the client's robot.
func (c *Client) Topics() Topics { return c.topics }

// QoS returns the configured default QoS.
func (c *Client) QoS() byte { return byte(c.cfg.QoS) }

func (c *Client) connected() {
	c.up.Store(true)
	c.paho.Publish(c.topics.Status(), c.QoS(), true, statusMessage(c.cfg.Broker.ClientID, "online", ""))
	if c.onConnect != nil {
		c.onConnect()
	}
}

func (c *Client) lost(err error) {
	c.up.Store(false)
	c.logger.Warn("MQTT connection lost", "robot_id", c.robotID, "error", err)
	if c.onLost != nil {
		c.onLost(err)
	}
}

// IsConnected reports whether the broker connection is currently up.
func (c *Client) IsConnected() bool {
	if c == nil || c.paho == nil {
		return false
	}
	return c.up.Load() && c.paho.IsConnected()
}

// HealthCheck returns ErrNotConnected while the connection is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close marks the robot offline and disconnects. It is safe on a nil
// client and after a previous Close.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}
	if c.IsConnected() {
		msg := statusMessage(c.cfg.Broker.ClientID, "offline", "graceful_shutdown")
		c.paho.Publish(c.topics.Status(), c.QoS(), true, msg).WaitTimeout(publishTimeout)
	}
	c.up.Store(false)
	c.paho.Disconnect(disconnectQuiesceMS)
	return nil
}
