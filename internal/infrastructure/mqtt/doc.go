// Package mqtt connects a robot to its MQTT broker.
//
// One Client per process publishes under actioncore/{robot}/... (see
// Topics). On every connect it sends a retained "online" status, and its
// last will flips that to "offline" if the process dies without Close.
//
// Publish waits for the broker, so the scheduler never calls it directly.
// The actuator and telemetry packages queue their messages and drain them
// on their own goroutines:
//
//	action.List → actuator.MQTTCommander ─┐
//	                                       ├→ mqtt.Client → broker
//	watcher     → telemetry.Publisher   ──┘
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Robot.ID, mqtt.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt
