// Package influxdb writes action telemetry to InfluxDB v2 through the
// official influxdb-client-go batched writer, so callers on the scheduler
// tick never wait on the network.
//
// Measurements:
//
//	action_completions   one point per finished runner; tags type, state,
//	                     failure, top_level
//	action_queue_depth   per-queue length samples; tag queue
//	action_tick          tick number, queue count, locked track count
//
// Every point also carries a robot_id tag.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Robot.ID, func(err error) {
//	    log.Error("influx write failed", "error", err)
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package influxdb
