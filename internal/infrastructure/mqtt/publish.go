package mqtt

import "fmt"

const maxPayloadBytes = 1 << 20

// Publish sends payload to topic and waits for the broker acknowledgement
// required by qos, up to publishTimeout.
//
// It blocks, so callers on the scheduler tick hand payloads to a goroutine
// that calls it:
//
//	err := client.Publish(client.Topics().Command("head"), payload, 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > 2:
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	case len(payload) > maxPayloadBytes:
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), maxPayloadBytes)
	case !c.IsConnected():
		return ErrNotConnected
	}

	tok := c.paho.Publish(topic, qos, retained, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: no ack within %v", ErrPublishFailed, topic, publishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.QoS(), true)
}
