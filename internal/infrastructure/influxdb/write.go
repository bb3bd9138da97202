package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementCompletions = "action_completions"
	MeasurementQueueDepth  = "action_queue_depth"
	MeasurementTick        = "action_tick"
)

// Completion is the subset of a finished runner written as a point.
type Completion struct {
	Name     string
	Type     string
	State    string
	Failure  string
	TopLevel bool
	Duration time.Duration
	At       time.Time
}

// WriteCompletion records one finished runner.
//
// type, state and failure are tags so dashboards can group by outcome; the
// name stays a field to keep series cardinality bounded.
func (c *Client) WriteCompletion(rec Completion) {
	if !c.IsConnected() {
		return
	}

	ts := rec.At
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"type":      rec.Type,
		"state":     rec.State,
		"top_level": strconv.FormatBool(rec.TopLevel),
	}
	if rec.Failure != "" {
		tags["failure"] = rec.Failure
	}

	c.writer.WritePoint(write.NewPoint(MeasurementCompletions, tags, map[string]any{
		"name":        rec.Name,
		"duration_ms": float64(rec.Duration) / float64(time.Millisecond),
	}, ts))
}

// WriteQueueDepth records the length of one queue. Queue 0 is the
// sequential queue; higher ids are parallel slots.
func (c *Client) WriteQueueDepth(queue int, length int, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writer.WritePoint(write.NewPoint(MeasurementQueueDepth,
		map[string]string{"queue": strconv.Itoa(queue)},
		map[string]any{"length": length},
		ts))
}

// WriteTick records scheduler-wide counters sampled at a tick.
func (c *Client) WriteTick(tick uint64, queues int, tracksLocked int, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writer.WritePoint(write.NewPoint(MeasurementTick, nil, map[string]any{
		"tick":          tick,
		"queues":        queues,
		"tracks_locked": tracksLocked,
	}, ts))
}
