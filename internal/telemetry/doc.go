// Package telemetry contains the read-only observers of the action list.
//
// Observers are fed from the tick goroutine by a Fanout that holds a single
// watcher registration and takes at most one snapshot per tick:
//
//	┌────────────┐ Update  ┌──────────┐
//	│ tick loop  │────────►│   List   │
//	└─────┬──────┘         └────┬─────┘
//	      │ AfterTick           │ completions
//	      ▼                     ▼
//	┌──────────────────────────────────┐
//	│              Fanout              │
//	└──┬────────┬─────────┬─────────┬──┘
//	   ▼        ▼         ▼         ▼
//	Metrics  Publisher  Influx   SnapshotStore ──► api
//	(prom)    (mqtt)    Sink        (mutex)
//
// # Key Types
//
//   - Observer: receives completion records and snapshots
//   - Fanout: one watcher registration, one snapshot per tick
//   - Metrics: Prometheus counters, gauges and histograms
//   - Publisher: MQTT completion events and retained queue snapshots
//   - InfluxSink: completion and sampled queue-depth points
//   - SnapshotStore: latest snapshot and recent completions for readers
//
// # Thread Safety
//
// Observer methods are called on the tick goroutine and must not block.
// Publisher hands work to its Run goroutine through channels. SnapshotStore
// is safe for concurrent readers. Fanout itself is not safe for concurrent
// use.
//
// # Usage
//
//	store := telemetry.NewSnapshotStore(robotID, 100)
//	fan := telemetry.NewFanout(metrics, publisher, store)
//	fan.Attach(list)
//	for range ticker.C {
//	    start := time.Now()
//	    list.Update()
//	    fan.AfterTick(time.Since(start))
//	}
package telemetry
