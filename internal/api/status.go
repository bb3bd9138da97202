package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemStatus is the response of the status endpoint.
type SystemStatus struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	RobotID       string           `json:"robot_id"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Scheduler     *SchedulerStatus `json:"scheduler,omitempty"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedMessages  uint64 `json:"dropped_messages"`
}

// SchedulerStatus summarises the latest snapshot.
type SchedulerStatus struct {
	Tick           uint64 `json:"tick"`
	Queue0Length   int    `json:"queue0_length"`
	ParallelQueues int    `json:"parallel_queues"`
	LiveRunners    int    `json:"live_runners"`
	TracksLocked   string `json:"tracks_locked"`
	SnapshotAge    string `json:"snapshot_age"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleStatus returns process, hub and scheduler statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	now := time.Now()
	status := SystemStatus{
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.version,
		RobotID:       s.robotID,
		UptimeSeconds: int64(now.Sub(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			DroppedMessages:  s.hub.Dropped(),
		},
	}

	if snap, ok := s.store.Latest(); ok {
		status.Scheduler = &SchedulerStatus{
			Tick:           snap.Tick,
			Queue0Length:   snap.QueueLength(0),
			ParallelQueues: snap.ParallelQueues(),
			LiveRunners:    snap.Live,
			TracksLocked:   snap.Locked.String(),
			SnapshotAge:    now.Sub(snap.Taken).Round(time.Millisecond).String(),
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		status.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, status)
}
