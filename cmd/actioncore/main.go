// actioncore drives a robot's action scheduler.
//
// It loads routines, runs the action list at a fixed tick rate, sends
// actuator commands over MQTT and records every completion. A read-only
// HTTP viewer, Prometheus metrics and InfluxDB points show what the
// scheduler is doing without being able to change it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/actioncore/internal/action"
	"github.com/nerrad567/actioncore/internal/actuator"
	"github.com/nerrad567/actioncore/internal/api"
	"github.com/nerrad567/actioncore/internal/history"
	"github.com/nerrad567/actioncore/internal/infrastructure/config"
	"github.com/nerrad567/actioncore/internal/infrastructure/database"
	"github.com/nerrad567/actioncore/internal/infrastructure/influxdb"
	"github.com/nerrad567/actioncore/internal/infrastructure/logging"
	"github.com/nerrad567/actioncore/internal/infrastructure/mqtt"
	"github.com/nerrad567/actioncore/internal/routine"
	"github.com/nerrad567/actioncore/internal/telemetry"
	"github.com/nerrad567/actioncore/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/actioncore.yaml"

// configEnv overrides defaultConfigPath.
const configEnv = "ACTIONCORE_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, drives the tick loop until ctx is cancelled
// and then shuts down in reverse order. Returning an error allows main to
// handle exit codes consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting actioncore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("robot_id", cfg.Robot.ID)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"tick_hz", cfg.Scheduler.TickHz,
	)

	// Open database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	checks := map[string]api.HealthChecker{"database": db}

	// Background workers run until the list has been cleared on shutdown so
	// the final cancellations are still published and persisted.
	workCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	workers, workCtx := errgroup.WithContext(workCtx)

	recorder := history.NewRecorder(history.NewSQLiteRepository(db.DB), cfg.Robot.ID, cfg.Telemetry.HistoryBuffer, log.Component("history"))
	workers.Go(func() error {
		recorder.Run(workCtx)
		return nil
	})

	observers := []telemetry.Observer{}
	var commander action.Commander = dryRunCommander(log.Component("actuator"))

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, cfg.Robot.ID,
			mqtt.WithLogger(log.Component("mqtt")),
			mqtt.OnConnect(func() { log.Info("MQTT connected") }),
			mqtt.OnConnectionLost(func(err error) { log.Warn("MQTT disconnected", "error", err) }),
		)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttCommander := actuator.NewMQTTCommander(mqttClient, mqttClient.Topics(), mqttClient.QoS(), cfg.MQTT.CommandBuffer, log.Component("actuator"))
		workers.Go(func() error {
			mqttCommander.Run(workCtx)
			return nil
		})
		commander = mqttCommander

		publisher := telemetry.NewPublisher(mqttClient, mqttClient.Topics(), cfg.Robot.ID, mqttClient.QoS(), cfg.Telemetry.SnapshotRateHz, 0, log.Component("telemetry"))
		workers.Go(func() error {
			publisher.Run(workCtx)
			return nil
		})
		observers = append(observers, publisher)
	} else {
		log.Info("MQTT disabled, commands are logged only")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Robot.ID, func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		checks["influxdb"] = influxClient
		observers = append(observers, telemetry.NewInfluxSink(influxClient, cfg.Telemetry.SnapshotRateHz))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Prometheus
	registry := prom.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, metricsErr := telemetry.NewMetrics(cfg.Metrics.Namespace, registry)
		if metricsErr != nil {
			return fmt.Errorf("registering metrics: %w", metricsErr)
		}
		observers = append(observers, metrics)
	}

	// Action list
	list := action.NewList(action.Config{
		DefaultTimeout:   cfg.DefaultTimeout(),
		DefaultRetries:   cfg.Scheduler.DefaultRetries,
		MaxParallelSlots: cfg.Scheduler.MaxParallelSlots,
	}, log.Component("scheduler"))
	list.SetCommander(commander)
	recorder.Attach(list.Watcher())

	// Routines
	routines := routine.NewRegistry()
	routines.SetLogger(log.Component("routine"))
	if cfg.Scheduler.RoutinesFile != "" {
		if loadErr := routines.LoadFile(cfg.Scheduler.RoutinesFile); loadErr != nil {
			return fmt.Errorf("loading routines: %w", loadErr)
		}
		log.Info("routines loaded", "path", cfg.Scheduler.RoutinesFile, "count", routines.Len())
	}

	// Read-only viewer
	store := telemetry.NewSnapshotStore(cfg.Robot.ID, cfg.Telemetry.RecentCompletions)
	observers = append(observers, store)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Metrics:    cfg.Metrics,
			Logger:     log.Component("api"),
			Store:      store,
			Gatherer:   registry,
			Checks:     checks,
			RobotID:    cfg.Robot.ID,
			Version:    version,
			SnapshotHz: cfg.Telemetry.SnapshotRateHz,
			History:    history.NewSQLiteRepository(db.DB),
			DB:         db,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		observers = append(observers, server.Hub())
	}

	fan := telemetry.NewFanout(observers...)
	fan.Attach(list)
	defer fan.Detach()

	if name := cfg.Scheduler.StartupRoutine; name != "" {
		if queueErr := queueRoutine(list, routines, name); queueErr != nil {
			return fmt.Errorf("queueing startup routine: %w", queueErr)
		}
		log.Info("startup routine queued", "routine", name)
	}

	log.Info("actioncore started", "tick_interval", cfg.TickInterval().String())
	tickLoop(ctx, list, fan, cfg.TickInterval())

	log.Info("shutting down", "live_runners", list.Len())
	list.Clear()
	fan.Publish()
	stopWorkers()
	if waitErr := workers.Wait(); waitErr != nil {
		log.Error("background worker failed", "error", waitErr)
	}

	log.Info("actioncore stopped", "ticks", list.Tick())
	return nil
}

// tickLoop runs one Update per tick until ctx is cancelled. A tick that
// overruns the interval delays the next one rather than queueing a burst.
func tickLoop(ctx context.Context, list *action.List, fan *telemetry.Fanout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			list.Update()
			fan.AfterTick(time.Since(start))
		}
	}
}

// queueRoutine builds the named routine and queues it at the end of queue 0.
func queueRoutine(list *action.List, routines *routine.Registry, name string) error {
	runner, err := routines.Build(name)
	if err != nil {
		return err
	}
	_, err = list.Queue(action.PositionAtEnd, runner)
	return err
}

// dryRunCommander logs commands instead of sending them.
func dryRunCommander(log *logging.Logger) action.Commander {
	return action.CommanderFunc(func(cmd action.Command) error {
		log.Debug("dry run command", "track", cmd.Track, "command", cmd.Name)
		return nil
	})
}

// getConfigPath returns the configuration file path, preferring the
// ACTIONCORE_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}
