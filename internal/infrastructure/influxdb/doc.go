// Package influxdb writes simulator telemetry to InfluxDB.
//
// Every tick produces one device_state point per device field (power as
// 0/1 plus the device's setting, if any) and one environment point with
// the ambient temperature. Points carry the simulated time, not wall time.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteEnvironment(23, simTime)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; batch failures are
// delivered to the SetOnError callback.
package influxdb
