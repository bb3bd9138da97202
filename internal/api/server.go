package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/actioncore/internal/history"
	"github.com/nerrad567/actioncore/internal/infrastructure/config"
	"github.com/nerrad567/actioncore/internal/infrastructure/database"
	"github.com/nerrad567/actioncore/internal/infrastructure/logging"
	"github.com/nerrad567/actioncore/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Metrics    config.MetricsConfig
	Logger     *logging.Logger
	Store      *telemetry.SnapshotStore
	Gatherer   prom.Gatherer
	Checks     map[string]HealthChecker
	RobotID    string
	Version    string
	SnapshotHz float64

	// History serves persisted completions. Without it the history
	// endpoints answer 503.
	History history.Repository

	// DB is reported in the status endpoint when set.
	DB *database.DB
}

// Server is the read-only HTTP viewer.
//
// It serves the latest scheduler snapshot, recent and persisted completions,
// Prometheus metrics and a WebSocket stream. Nothing it serves can change
// what the scheduler does.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	metrics   config.MetricsConfig
	logger    *logging.Logger
	store     *telemetry.SnapshotStore
	history   history.Repository
	db        *database.DB
	gatherer  prom.Gatherer
	checks    map[string]HealthChecker
	robotID   string
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
	hub       *Hub
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called, but its Hub can be
// attached to the scheduler right away.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	// Gatherer defaults to the global registry.
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prom.DefaultGatherer
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		store:     deps.Store,
		history:   deps.History,
		db:        deps.DB,
		gatherer:  gatherer,
		checks:    deps.Checks,
		robotID:   deps.RobotID,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.RobotID, deps.SnapshotHz, deps.Logger),
	}, nil
}

// Hub returns the WebSocket hub. It is a telemetry.Observer.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves in a background goroutine. The
// server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
