package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
)

const serviceName = "actioncore"

// Logger is a slog.Logger carrying the service and version attributes.
//
// It satisfies the Logger interfaces of the action, routine, history,
// telemetry and actuator packages, so one value is handed to all of them.
// Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger on the stream named by cfg.Output ("stderr", or
// stdout for anything else).
func New(cfg config.LoggingConfig, version string) *Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(cfg, version, w)
}

// NewWithWriter creates a Logger on w. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

// parseLevel accepts slog's level names in any case, plus "warning".
// Anything else is info.
func parseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a Logger that adds args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component is With("component", name).
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the logger used until configuration is loaded: JSON at info
// on stdout.
func Default() *Logger {
	return New(config.LoggingConfig{}, "dev")
}
