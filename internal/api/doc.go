// Package api provides the read-only HTTP API and WebSocket event stream for
// the home simulator.
//
// Endpoints:
//
//	GET /api/v1/health          liveness
//	GET /api/v1/status          simulation mode, tick count, sim time, runtime stats
//	GET /api/v1/devices         device status in registry order (?kind= filter)
//	GET /api/v1/devices/stats   counts by kind and powered-on total
//	GET /api/v1/devices/{id}    one device
//	GET /api/v1/ticks           tick history, newest first (?limit=)
//	GET /api/v1/ticks/{id}      one recorded tick
//	GET /metrics                Prometheus exposition (when enabled)
//	GET /ws                     WebSocket event stream
//
// WebSocket clients send {"type":"subscribe","channels":[...]} with any of
// "tick.completed" (one summary per tick) and "devices" (the device list
// after each tick, preceded by a snapshot of the current state).
//
// The API never mutates devices: the rule engine is the only writer.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
