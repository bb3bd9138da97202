// Package api implements the read-only HTTP and WebSocket viewer of the
// action scheduler.
//
// This package provides:
//   - REST endpoints for the latest queue snapshot and completion history
//   - A WebSocket hub streaming action.completed and action.queues events
//   - The Prometheus /metrics endpoint
//   - Middleware stack (request ID, logging, recovery, CORS, read-only)
//
// # Architecture
//
// The server never touches the action list. The tick loop feeds a
// telemetry.SnapshotStore and the Hub through a telemetry.Fanout; handlers
// only read the store and the history repository.
//
//	tick loop ──► Fanout ──► SnapshotStore ◄── GET /api/v1/actions
//	                    └──► Hub ──────────► /ws clients
//	history.Recorder ──► SQLite ◄────────── GET /api/v1/actions/history
//
// # Routes
//
//	GET /api/v1/health                 dependency health
//	GET /api/v1/status                 runtime, hub and scheduler summary
//	GET /api/v1/actions                latest snapshot
//	GET /api/v1/actions/recent         in-memory completions
//	GET /api/v1/actions/history        persisted completions (?limit=&type=)
//	GET /api/v1/actions/history/{id}   one persisted completion
//	GET /metrics                       Prometheus exposition
//	GET /ws                            event stream (?channels=)
//
// Any other method is answered with 405.
package api
