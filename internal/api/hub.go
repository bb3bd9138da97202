package api

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/infrastructure/config"
	"github.com/nerrad567/actioncore/internal/infrastructure/logging"
	"github.com/nerrad567/actioncore/internal/telemetry"
)

// Event channels a client can subscribe to.
const (
	ChannelCompleted = "action.completed"
	ChannelQueues    = "action.queues"
)

// defaultChannels are subscribed on connect unless the client names its own.
var defaultChannels = []string{ChannelCompleted, ChannelQueues}

// Hub fans scheduler events out to connected viewers.
//
// It is a telemetry.Observer. Completions go out as they happen, queue
// snapshots at most snapshotHz times a second. With no clients connected
// neither is encoded.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	robotID string
	limiter *rate.Limiter
	dropped atomic.Uint64

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

var _ telemetry.Observer = (*Hub)(nil)

// NewHub creates a hub. A snapshotHz of zero or less forwards every
// snapshot.
func NewHub(cfg config.WebSocketConfig, robotID string, snapshotHz float64, logger *logging.Logger) *Hub {
	limit := rate.Inf
	if snapshotHz > 0 {
		limit = rate.Limit(snapshotHz)
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		robotID: robotID,
		limiter: rate.NewLimiter(limit, 1),
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.stop()
	}
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister removes a client and stops its writer. Repeated calls are
// no-ops.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.stop()
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because a client's
// buffer was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// OnCompletion broadcasts rec on ChannelCompleted.
func (h *Hub) OnCompletion(rec action.CompletionRecord) {
	if h.ClientCount() == 0 {
		return
	}
	h.Broadcast(ChannelCompleted, telemetry.CompletionEvent{
		RobotID:          h.robotID,
		At:               time.Now().UTC(),
		CompletionRecord: rec,
	})
}

// OnSnapshot broadcasts snap on ChannelQueues, rate permitting.
func (h *Hub) OnSnapshot(snap action.Snapshot) {
	if h.ClientCount() == 0 || !h.limiter.Allow() {
		return
	}
	h.Broadcast(ChannelQueues, telemetry.SnapshotEvent{RobotID: h.robotID, Snapshot: snap})
}

// Broadcast encodes payload once and queues it for every client
// subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	// Copy the set so no client lock is taken under the hub lock.
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.isSubscribed(channel) && !c.trySend(data) {
			h.dropped.Add(1)
		}
	}
}
