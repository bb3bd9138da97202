package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/actioncore/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	keepAlive      = 30 * time.Second

	disconnectQuiesceMS = 500
)

// clientOptions maps cfg onto paho options, including the last will that
// marks the robot offline if the process dies without calling Close.
func clientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	o := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true). // stale commands must not be replayed
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		o.SetUsername(cfg.Auth.Username)
		o.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		o.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	will := statusMessage(cfg.Broker.ClientID, "offline", "unexpected_disconnect")
	o.SetBinaryWill(topics.Status(), will, 1, true)
	return o
}

func brokerURL(b config.MQTTBrokerConfig) string {
	if b.TLS {
		return fmt.Sprintf("ssl://%s:%d", b.Host, b.Port)
	}
	return fmt.Sprintf("tcp://%s:%d", b.Host, b.Port)
}

// robotStatus is the retained payload on the status topic.
type robotStatus struct {
	State    string    `json:"state"`
	ClientID string    `json:"client_id"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

func statusMessage(clientID, state, reason string) []byte {
	b, _ := json.Marshal(robotStatus{State: state, ClientID: clientID, Reason: reason, At: time.Now().UTC()})
	return b
}
