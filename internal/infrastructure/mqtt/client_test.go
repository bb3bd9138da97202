package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Broker tests require Mosquitto at 127.0.0.1:1883 and skip otherwise.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "actioncore-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(testConfig(), "test-robot")
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTopics(t *testing.T) {
	topics := NewTopics("robot-7")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", topics.Status(), "actioncore/robot-7/status"},
		{"command", topics.Command("head"), "actioncore/robot-7/command/head"},
		{"completed", topics.ActionCompleted(), "actioncore/robot-7/action/completed"},
		{"queues", topics.ActionQueues(), "actioncore/robot-7/action/queues"},
		{"all commands", topics.AllCommands(), "actioncore/robot-7/command/+"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "robot"
	cfg.Auth.Password = "secret"

	opts := clientOptions(cfg, NewTopics("r1"))
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "actioncore-test" || opts.Username != "robot" {
		t.Errorf("ClientID = %q Username = %q", opts.ClientID, opts.Username)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("auto-reconnect and clean session must be enabled")
	}

	cfg.Broker.TLS = true
	if got := brokerURL(cfg.Broker); got != "ssl://127.0.0.1:1883" {
		t.Errorf("brokerURL(tls) = %q", got)
	}
	if clientOptions(cfg, NewTopics("r1")).TLSConfig == nil {
		t.Error("TLSConfig not set with tls enabled")
	}
}

func TestClientOptions_Will(t *testing.T) {
	opts := clientOptions(testConfig(), NewTopics("r1"))

	if !opts.WillEnabled || opts.WillTopic != "actioncore/r1/status" || !opts.WillRetained {
		t.Fatalf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var st robotStatus
	if err := json.Unmarshal(opts.WillPayload, &st); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if st.State != "offline" || st.Reason != "unexpected_disconnect" || st.At.IsZero() {
		t.Errorf("will payload = %+v", st)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999
	cfg.Reconnect.InitialDelay = 0

	_, err := Connect(cfg, "test-robot")
	if err == nil {
		t.Skip("something is listening on port 19999")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_NilSafe(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() on nil client = true")
	}
}

func TestConnect_Hooks(t *testing.T) {
	connected := make(chan struct{}, 1)
	client, err := Connect(testConfig(), "test-robot", OnConnect(func() {
		select {
		case connected <- struct{}{}:
		default:
		}
	}))
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	defer client.Close()

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Error("OnConnect hook did not run")
	}
}

func TestPublish(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.Publish(client.Topics().Command("head"), []byte(`{"name":"nod"}`), 1, false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := client.PublishRetained(client.Topics().ActionQueues(), []byte(`{}`)); err != nil {
		t.Errorf("PublishRetained() error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := connectOrSkip(t)

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "actioncore/t", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "actioncore/t", make([]byte, maxPayloadBytes+1), 1, ErrPayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	client := connectOrSkip(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v", err)
	}

	client.Close()
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
	if err := client.Publish("actioncore/t", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close error = %v, want ErrNotConnected", err)
	}
}
