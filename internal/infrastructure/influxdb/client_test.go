package influxdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
	"github.com/nerrad567/actioncore/internal/infrastructure/influxdb"
)

// testConfig targets a local dev InfluxDB on the default port.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "actioncore-dev-token",
		Org:           "actioncore",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := influxdb.Connect(testConfig(), "test-robot", nil)
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close()
	}
}

// connect opens a client whose last async write error is returned by the
// second result.
func connect(t *testing.T) (*influxdb.Client, func() error) {
	t.Helper()
	skipIfNoInfluxDB(t)

	var mu sync.Mutex
	var last error
	client, err := influxdb.Connect(testConfig(), "test-robot", func(err error) {
		mu.Lock()
		last = err
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, func() error {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg, "test-robot", nil)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg, "test-robot", nil)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_NilSafe(t *testing.T) {
	var client *influxdb.Client
	if client.IsConnected() {
		t.Error("IsConnected() on nil = true")
	}
	// Writes on a nil client are dropped.
	client.WriteQueueDepth(0, 1, time.Now())
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil error = %v", err)
	}
}

func TestConnect(t *testing.T) {
	client, _ := connect(t)
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if client.RobotID() != "test-robot" {
		t.Errorf("RobotID() = %q", client.RobotID())
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	skipIfNoInfluxDB(t)
	for _, tc := range []struct{ batch, flush int }{{0, 0}, {-5, -1}} {
		cfg := testConfig()
		cfg.BatchSize = tc.batch
		cfg.FlushInterval = tc.flush

		client, err := influxdb.Connect(cfg, "test-robot", nil)
		if err != nil {
			t.Fatalf("Connect(batch=%d, flush=%d) error = %v", tc.batch, tc.flush, err)
		}
		if !client.IsConnected() {
			t.Errorf("IsConnected() = false with batch=%d flush=%d", tc.batch, tc.flush)
		}
		client.Close()
	}
}

func TestHealthCheck(t *testing.T) {
	client, _ := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if err := client.HealthCheck(cancelled); err == nil {
		t.Error("HealthCheck() with cancelled context = nil")
	}
}

func TestWrites(t *testing.T) {
	client, lastErr := connect(t)

	now := time.Now()
	client.WriteCompletion(influxdb.Completion{
		Name:     "drive-to-dock",
		Type:     "drive",
		State:    "failure",
		Failure:  "timeout",
		TopLevel: true,
		Duration: 1500 * time.Millisecond,
		At:       now,
	})
	client.WriteCompletion(influxdb.Completion{Name: "blink", Type: "face", State: "success"})
	client.WriteQueueDepth(0, 3, now)
	client.WriteQueueDepth(2, 1, now)
	client.WriteTick(42, 2, 3, now)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("write error = %v", err)
	}
	if n := client.FailedWrites(); n != 0 {
		t.Errorf("FailedWrites() = %d", n)
	}
}

func TestClose(t *testing.T) {
	skipIfNoInfluxDB(t)
	client, err := influxdb.Connect(testConfig(), "test-robot", nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteQueueDepth(0, 1, time.Now())
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}

	// Writes and a second Close after shutdown are no-ops.
	client.WriteQueueDepth(0, 1, time.Now())
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
