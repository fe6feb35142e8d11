package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
	"github.com/nerrad567/homesim/internal/infrastructure/mqtt"
)

// TickEvent is handed to every observer after a tick.
type TickEvent struct {
	Report  automation.TickReport
	SimTime time.Time
}

// Observer consumes completed ticks. Errors are logged by the driver and
// never stop the loop.
type Observer interface {
	Name() string
	Observe(ctx context.Context, ev TickEvent) error
}

// MQTTPublisher is the subset of the MQTT client the state observer needs.
type MQTTPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// WSHub pushes completed ticks to WebSocket clients.
type WSHub interface {
	PublishTick(report automation.TickReport, simTime time.Time)
}

// TelemetryWriter records time-series points.
type TelemetryWriter interface {
	WriteDeviceMetric(deviceID, kind, field string, value float64, ts time.Time)
	WriteEnvironment(temperatureC float64, ts time.Time)
}

// TickRecorder records per-tick metrics.
type TickRecorder interface {
	ObserveTick(report automation.TickReport)
}

// ─── MQTT ───────────────────────────────────────────────────────────────────

// DeviceStateMessage is the retained payload on each device state topic.
type DeviceStateMessage struct {
	device.StatusRecord
	SimTime string `json:"sim_time"`
}

// TickMessage is the payload on the tick summary topic.
type TickMessage struct {
	ID          string                  `json:"id"`
	SimTime     string                  `json:"sim_time"`
	Temperature int                     `json:"temperature"`
	DevicesOn   int                     `json:"devices_on"`
	Rules       []automation.RuleResult `json:"rules"`
}

// MQTTObserver publishes retained device state and a tick summary.
type MQTTObserver struct {
	client MQTTPublisher
	topics mqtt.Topics
}

// NewMQTTObserver creates an observer publishing through client.
func NewMQTTObserver(client MQTTPublisher) *MQTTObserver {
	return &MQTTObserver{client: client}
}

// Name implements Observer.
func (o *MQTTObserver) Name() string { return "mqtt" }

// Observe implements Observer. It publishes every device before returning the
// first error seen.
func (o *MQTTObserver) Observe(_ context.Context, ev TickEvent) error {
	simTime := ev.SimTime.Format(device.TimeLayout)
	var firstErr error

	for _, rec := range ev.Report.Devices {
		payload, err := json.Marshal(DeviceStateMessage{StatusRecord: rec, SimTime: simTime})
		if err != nil {
			return fmt.Errorf("marshalling device state: %w", err)
		}
		if err := o.client.Publish(o.topics.DeviceState(string(rec.Kind), rec.ID), payload, 1, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	payload, err := json.Marshal(TickMessage{
		ID:          ev.Report.ID,
		SimTime:     simTime,
		Temperature: ev.Report.Temperature,
		DevicesOn:   ev.Report.PoweredOn(),
		Rules:       ev.Report.Rules,
	})
	if err != nil {
		return fmt.Errorf("marshalling tick: %w", err)
	}
	if err := o.client.Publish(o.topics.Tick(), payload, 1, false); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ─── WebSocket ──────────────────────────────────────────────────────────────

// HubObserver broadcasts each tick to WebSocket subscribers.
type HubObserver struct {
	hub WSHub
}

// NewHubObserver creates an observer broadcasting on hub.
func NewHubObserver(hub WSHub) *HubObserver {
	return &HubObserver{hub: hub}
}

// Name implements Observer.
func (o *HubObserver) Name() string { return "websocket" }

// Observe implements Observer.
func (o *HubObserver) Observe(_ context.Context, ev TickEvent) error {
	o.hub.PublishTick(ev.Report, ev.SimTime)
	return nil
}

// ─── History ────────────────────────────────────────────────────────────────

// HistoryObserver appends each tick to the tick history.
type HistoryObserver struct {
	repo automation.Repository
}

// NewHistoryObserver creates an observer recording into repo.
func NewHistoryObserver(repo automation.Repository) *HistoryObserver {
	return &HistoryObserver{repo: repo}
}

// Name implements Observer.
func (o *HistoryObserver) Name() string { return "history" }

// Observe implements Observer.
func (o *HistoryObserver) Observe(ctx context.Context, ev TickEvent) error {
	rec := automation.RecordFromReport(ev.Report)
	rec.SimTime = ev.SimTime.Format(device.TimeLayout)
	return o.repo.CreateTick(ctx, &rec)
}

// ─── Telemetry ──────────────────────────────────────────────────────────────

// TelemetryObserver writes power and setting per device plus the ambient temperature.
type TelemetryObserver struct {
	writer TelemetryWriter
}

// NewTelemetryObserver creates an observer writing to writer.
func NewTelemetryObserver(writer TelemetryWriter) *TelemetryObserver {
	return &TelemetryObserver{writer: writer}
}

// Name implements Observer.
func (o *TelemetryObserver) Name() string { return "telemetry" }

// Observe implements Observer.
func (o *TelemetryObserver) Observe(_ context.Context, ev TickEvent) error {
	ts := ev.SimTime
	for _, rec := range ev.Report.Devices {
		power := 0.0
		if rec.Power {
			power = 1.0
		}
		o.writer.WriteDeviceMetric(rec.ID, string(rec.Kind), "power", power, ts)
		if rec.Setting != nil {
			o.writer.WriteDeviceMetric(rec.ID, string(rec.Kind), rec.SettingName, float64(*rec.Setting), ts)
		}
	}
	o.writer.WriteEnvironment(float64(ev.Report.Temperature), ts)
	return nil
}

// ─── Metrics ────────────────────────────────────────────────────────────────

// MetricsObserver feeds ticks to a metrics recorder.
type MetricsObserver struct {
	recorder TickRecorder
}

// NewMetricsObserver creates an observer feeding recorder.
func NewMetricsObserver(recorder TickRecorder) *MetricsObserver {
	return &MetricsObserver{recorder: recorder}
}

// Name implements Observer.
func (o *MetricsObserver) Name() string { return "metrics" }

// Observe implements Observer.
func (o *MetricsObserver) Observe(_ context.Context, ev TickEvent) error {
	o.recorder.ObserveTick(ev.Report)
	return nil
}
