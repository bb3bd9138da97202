// Package actuator delivers commands emitted by action leaves to the
// hardware layer.
//
// The scheduler tick must never wait on I/O, so MQTTCommander only encodes
// the command and hands it to a bounded buffer. A separate goroutine drains
// the buffer and publishes each command to its track topic:
//
//	leaf Init/Poll ──Emit──▶ [buffer] ──Run──▶ actioncore/{robot}/command/{track}
//	                            │
//	                            └─ full: ErrCommandDropped
//
// # Key Types
//
//   - MQTTCommander: action.Commander backed by an MQTT publisher
//   - RecordingCommander: in-memory action.Commander for tests and dry runs
//
// # Thread Safety
//
// Emit is called from the tick goroutine while Run publishes from its own.
// Both commanders are safe for concurrent use.
//
// # Usage
//
//	cmdr := actuator.NewMQTTCommander(client, client.Topics(), client.QoS(), cfg.MQTT.CommandBuffer, log)
//	go cmdr.Run(ctx)
//	list.SetCommander(cmdr)
package actuator
