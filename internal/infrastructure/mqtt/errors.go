package mqtt

import "errors"

// Sentinel errors returned by the client. Wrapped errors keep these as
// their cause, so check with errors.Is.
var (
	ErrNotConnected     = errors.New("mqtt: not connected to broker")
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrPayloadTooLarge  = errors.New("mqtt: payload too large")

	// ErrInvalidQoS covers anything outside 0..2.
	ErrInvalidQoS   = errors.New("mqtt: invalid QoS")
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
