package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix prefixes every environment override.
const envPrefix = "ACTIONCORE_"

// Config is the root configuration structure for actioncore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Robot     RobotConfig     `yaml:"robot"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RobotConfig identifies the robot this process drives. The ID becomes
// part of every MQTT topic and a tag on every telemetry point.
type RobotConfig struct {
	ID string `yaml:"id"`
}

// SchedulerConfig contains action list settings.
type SchedulerConfig struct {
	// TickHz is the control-loop rate. One Update runs per tick.
	TickHz int `yaml:"tick_hz"`

	// DefaultTimeoutMS applies to leaves without their own timeout.
	DefaultTimeoutMS int `yaml:"default_timeout_ms"`

	// MaxParallelSlots caps in-parallel queues. 0 means unlimited.
	MaxParallelSlots int `yaml:"max_parallel_slots"`

	// DefaultRetries is the retry budget of leaves without their own.
	DefaultRetries int `yaml:"default_retries"`

	// RoutinesFile is an optional YAML file of routines to load at startup.
	RoutinesFile string `yaml:"routines_file"`

	// StartupRoutine is queued once the tick loop starts, if set.
	StartupRoutine string `yaml:"startup_routine"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// CommandBuffer bounds commands waiting to be published.
	CommandBuffer int `yaml:"command_buffer"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains read-only HTTP viewer settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TelemetryConfig contains settings for read-only observers.
type TelemetryConfig struct {
	// SnapshotRateHz caps how often queue snapshots are published.
	SnapshotRateHz float64 `yaml:"snapshot_rate_hz"`

	// HistoryBuffer bounds completion records waiting to be persisted.
	HistoryBuffer int `yaml:"history_buffer"`

	// RecentCompletions is how many completions the viewer keeps in memory.
	RecentCompletions int `yaml:"recent_completions"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ACTIONCORE_SECTION_KEY
// For example: ACTIONCORE_DATABASE_PATH, ACTIONCORE_SCHEDULER_TICK_HZ
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, used when no file is given.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{ID: "robot-001"},
		Scheduler: SchedulerConfig{
			TickHz:           30,
			DefaultTimeoutMS: 30000,
		},
		Database: DatabaseConfig{
			Path:        "./data/actioncore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "actioncore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			CommandBuffer: 256,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     500,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "actioncore",
		},
		Telemetry: TelemetryConfig{
			SnapshotRateHz:    2,
			HistoryBuffer:     1024,
			RecentCompletions: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ACTIONCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"ROBOT_ID":                  &cfg.Robot.ID,
		"SCHEDULER_ROUTINES_FILE":   &cfg.Scheduler.RoutinesFile,
		"SCHEDULER_STARTUP_ROUTINE": &cfg.Scheduler.StartupRoutine,
		"DATABASE_PATH":             &cfg.Database.Path,
		"MQTT_HOST":                 &cfg.MQTT.Broker.Host,
		"MQTT_USERNAME":             &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":             &cfg.MQTT.Auth.Password,
		"INFLUXDB_URL":              &cfg.InfluxDB.URL,
		"INFLUXDB_TOKEN":            &cfg.InfluxDB.Token,
		"API_HOST":                  &cfg.API.Host,
		"LOG_LEVEL":                 &cfg.Logging.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SCHEDULER_TICK_HZ":            &cfg.Scheduler.TickHz,
		"SCHEDULER_MAX_PARALLEL_SLOTS": &cfg.Scheduler.MaxParallelSlots,
		"MQTT_PORT":                    &cfg.MQTT.Broker.Port,
		"API_PORT":                     &cfg.API.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
		"API_ENABLED":      &cfg.API.Enabled,
	}
	for key, dst := range bools {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}
	return nil
}

// Validate reports every configuration problem at once, joined with
// errors.Join.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.Robot.ID != "", "robot.id is required")
	check(!strings.ContainsAny(c.Robot.ID, "/#+"), "robot.id must not contain MQTT wildcards or separators")

	sch := c.Scheduler
	check(sch.TickHz >= 1 && sch.TickHz <= 1000, "scheduler.tick_hz must be between 1 and 1000")
	check(sch.DefaultTimeoutMS >= 0, "scheduler.default_timeout_ms must not be negative")
	check(sch.MaxParallelSlots >= 0, "scheduler.max_parallel_slots must not be negative")
	check(sch.DefaultRetries >= 0, "scheduler.default_retries must not be negative")
	check(sch.StartupRoutine == "" || sch.RoutinesFile != "", "scheduler.startup_routine requires scheduler.routines_file")

	check(c.Database.Path != "", "database.path is required")

	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1, or 2")
	check(!c.MQTT.Enabled || c.MQTT.CommandBuffer >= 1, "mqtt.command_buffer must be at least 1")

	in := c.InfluxDB
	check(!in.Enabled || (in.URL != "" && in.Org != "" && in.Bucket != ""),
		"influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")

	check(!c.API.Enabled || (c.API.Port >= 1 && c.API.Port <= 65535), "api.port must be between 1 and 65535")

	check(c.Telemetry.SnapshotRateHz >= 0, "telemetry.snapshot_rate_hz must not be negative")
	check(c.Telemetry.HistoryBuffer >= 1, "telemetry.history_buffer must be at least 1")

	return errors.Join(errs...)
}

// TickInterval returns the control-loop period.
func (c *Config) TickInterval() time.Duration {
	if c.Scheduler.TickHz <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.Scheduler.TickHz)
}

// DefaultTimeout returns the scheduler's default leaf timeout.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Scheduler.DefaultTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the HTTP read timeout.
func (t APITimeoutConfig) ReadTimeout() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteTimeout returns the HTTP write timeout. WebSocket streams are
// hijacked and not bound by it.
func (t APITimeoutConfig) WriteTimeout() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleTimeout returns the keep-alive idle timeout.
func (t APITimeoutConfig) IdleTimeout() time.Duration {
	return time.Duration(t.Idle) * time.Second
}
