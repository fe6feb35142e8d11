// Package mqtt publishes simulator state to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained per-device state and per-tick summaries
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	homesim/state/{kind}/{device_id}   retained device status
//	homesim/tick                       one summary per tick
//	homesim/system/status              online/offline (LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Publish(mqtt.Topics{}.Tick(), payload, 1, false)
package mqtt
