// Package history persists action completion records to SQLite.
//
// The scheduler reports completions on its tick goroutine, which must never
// wait on disk. The Recorder is registered as a watcher callback and only
// copies each record into a bounded channel; Run drains the channel into the
// repository on its own goroutine.
//
//	List.finish ──watcher──▶ Recorder.Record ──chan──▶ Recorder.Run ──▶ action_completions
//
// # Key Types
//
//   - Entry: one persisted completion, with a generated ID
//   - Repository / SQLiteRepository: insert and newest-first queries
//   - Recorder: the non-blocking bridge from the watcher to the repository
//
// # Usage
//
//	repo := history.NewSQLiteRepository(db.DB)
//	rec := history.NewRecorder(repo, cfg.Robot.ID, cfg.Telemetry.HistoryBuffer, log)
//	rec.Attach(list.Watcher())
//	go rec.Run(ctx)
package history
