package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
	"github.com/nerrad567/homesim/internal/infrastructure/config"
	"github.com/nerrad567/homesim/internal/infrastructure/logging"
)

// Channels a WebSocket client can subscribe to.
const (
	// ChannelTicks carries one TickPayload per completed tick.
	ChannelTicks = "tick.completed"
	// ChannelDevices carries the full device list after every tick. A new
	// subscriber first receives the registry's current state.
	ChannelDevices = "devices"
)

var knownChannels = map[string]struct{}{
	ChannelTicks:   {},
	ChannelDevices: {},
}

// TickPayload summarises a tick for WebSocket clients.
type TickPayload struct {
	ID          string                  `json:"id"`
	SimTime     string                  `json:"sim_time"`
	Temperature int                     `json:"temperature"`
	DevicesOn   int                     `json:"devices_on"`
	Rules       []automation.RuleResult `json:"rules"`
	DurationMS  float64                 `json:"duration_ms"`
}

// DevicesPayload is the device list sent on ChannelDevices.
type DevicesPayload struct {
	SimTime  string                `json:"sim_time,omitempty"`
	Snapshot bool                  `json:"snapshot,omitempty"`
	Devices  []device.StatusRecord `json:"devices"`
}

// Hub tracks connected clients and fans tick results out to them.
type Hub struct {
	cfg      config.WebSocketConfig
	registry *device.Registry
	logger   *logging.Logger

	mu          sync.RWMutex
	clients     map[*wsClient]struct{}
	lastSimTime string
}

// NewHub creates a hub. registry backs the snapshot sent to new device
// subscribers and may be nil, in which case no snapshot is sent.
func NewHub(cfg config.WebSocketConfig, registry *device.Registry, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:      withWSDefaults(cfg),
		registry: registry,
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
	}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

// PublishTick sends the tick summary and the resulting device list to
// their subscribers.
func (h *Hub) PublishTick(report automation.TickReport, simTime time.Time) {
	at := simTime.Format(device.TimeLayout)

	h.mu.Lock()
	h.lastSimTime = at
	h.mu.Unlock()

	h.publish(ChannelTicks, TickPayload{
		ID:          report.ID,
		SimTime:     at,
		Temperature: report.Temperature,
		DevicesOn:   report.PoweredOn(),
		Rules:       report.Rules,
		DurationMS:  float64(report.Duration) / float64(time.Millisecond),
	})
	h.publish(ChannelDevices, DevicesPayload{SimTime: at, Devices: report.Devices})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// publish encodes one event and queues it on every subscribed client.
func (h *Hub) publish(channel string, payload any) {
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("encoding websocket event failed", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	recipients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		if c.subscribed(channel) {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range recipients {
		if !c.enqueue(data) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("websocket clients too slow, event dropped", "channel", channel, "dropped", dropped)
	}
}

// snapshot returns the current device list for a new subscriber.
func (h *Hub) snapshot() (DevicesPayload, bool) {
	if h.registry == nil {
		return DevicesPayload{}, false
	}
	h.mu.RLock()
	at := h.lastSimTime
	h.mu.RUnlock()
	return DevicesPayload{SimTime: at, Snapshot: true, Devices: h.registry.StatusReport()}, true
}

func encodeEvent(channel string, payload any) ([]byte, error) {
	return json.Marshal(ServerMessage{
		Type:      MsgEvent,
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
}
