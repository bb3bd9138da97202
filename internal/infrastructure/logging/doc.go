// Package logging builds the process logger on log/slog.
//
// Every entry carries service=actioncore and the build version; main adds
// robot_id and each subsystem gets a component attribute:
//
//	logging:
//	  level: info     # debug, info, warn, error
//	  format: json    # json or text
//	  output: stdout  # stdout or stderr
//
//	log := logging.New(cfg.Logging, version).With("robot_id", cfg.Robot.ID)
//	list := action.NewList(action.Config{}, log.Component("scheduler"))
//
// The scheduler logs every completion at info, failures and aborts at
// warn, so an outcome no watcher consumed still shows up.
package logging
