package influxdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
)

const (
	pingTimeout = 5 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second

	// robotTag is attached to every point.
	robotTag = "robot_id"
)

// ErrorHandler receives write failures from the background batcher.
type ErrorHandler func(err error)

// Client writes action telemetry for one robot through a batched,
// non-blocking write API.
//
// All methods are safe for concurrent use and are no-ops once the client
// is closed. Close and IsConnected accept a nil *Client.
type Client struct {
	influx  influxdb2.Client
	writer  api.WriteAPI
	robotID string
	closed  atomic.Bool
	failed  atomic.Uint64
}

// Connect pings the server at cfg.URL and opens a batched writer for
// cfg.Org/cfg.Bucket. It returns ErrDisabled when cfg.Enabled is false.
// onError may be nil.
func Connect(cfg config.InfluxDBConfig, robotID string, onError ErrorHandler) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg, robotID))

	ctx, cancel := context.WithTimeout(context.Background(), 2*pingTimeout)
	defer cancel()
	if err := ping(ctx, influx); err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.URL, err)
	}

	c := &Client{
		influx:  influx,
		writer:  influx.WriteAPI(cfg.Org, cfg.Bucket),
		robotID: robotID,
	}
	go c.drainErrors(onError)
	return c, nil
}

func writeOptions(cfg config.InfluxDBConfig, robotID string) *influxdb2.Options {
	batch := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds()))
	if robotID != "" {
		opts.AddDefaultTag(robotTag, robotID)
	}
	return opts
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ok, err := influx.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnhealthy
	}
	return nil
}

// drainErrors runs until the write API closes its error channel on Close.
func (c *Client) drainErrors(onError ErrorHandler) {
	for err := range c.writer.Errors() {
		c.failed.Add(1)
		if onError != nil {
			onError(err)
		}
	}
}

// IsConnected reports whether the client is open.
func (c *Client) IsConnected() bool {
	return c != nil && c.influx != nil && !c.closed.Load()
}

// RobotID returns the robot_id tag value applied to every point.
func (c *Client) RobotID() string { return c.robotID }

// FailedWrites returns how many batches the server rejected or the
// network lost.
func (c *Client) FailedWrites() uint64 { return c.failed.Load() }

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.influx); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// Flush blocks until buffered points are sent.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writer.Flush()
	}
}

// Close flushes and releases the client. Later calls do nothing.
func (c *Client) Close() error {
	if c == nil || c.influx == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writer.Flush()
	c.influx.Close()
	return nil
}
