package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the simulator.
const (
	MeasurementDeviceState = "device_state"
	MeasurementEnvironment = "environment"
)

// WriteDeviceMetric records one field of a device's state at the simulated
// time ts. Power is written as 0/1, settings as their numeric value.
//
//	client.WriteDeviceMetric(id, "light", "brightness", 50, simTime)
func (c *Client) WriteDeviceMetric(deviceID, kind, field string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		map[string]interface{}{
			field: value,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WriteEnvironment records the ambient temperature fed into the rules.
func (c *Client) WriteEnvironment(temperatureC float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementEnvironment,
		map[string]string{},
		map[string]interface{}{
			"temperature_c": temperatureC,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}
