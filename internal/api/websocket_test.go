package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
)

// Compile-time check: the logging wrapper must not hide hijacking.
var _ http.Hijacker = (*statusWriter)(nil)

// connectWebSocket serves the full router, middleware included, and dials the hub.
func connectWebSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket connect failed: %v (status %d)", err, status)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func send(t *testing.T, ws *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

// receive reads one server message, decoding its payload into payload when non-nil.
func receive(t *testing.T, ws *websocket.Conn, payload any) ServerMessage {
	t.Helper()
	//nolint:errcheck // a missed deadline fails the read below
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var raw struct {
		ServerMessage
		Payload json.RawMessage `json:"payload"`
	}
	if err := ws.ReadJSON(&raw); err != nil {
		t.Fatalf("read: %v", err)
	}
	if payload != nil && len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			t.Fatalf("decode payload %s: %v", raw.Payload, err)
		}
	}
	return raw.ServerMessage
}

func subscribe(t *testing.T, ws *websocket.Conn, channels ...string) {
	t.Helper()
	send(t, ws, ClientMessage{Type: MsgSubscribe, ID: "sub-1", Channels: channels})
	if msg := receive(t, ws, nil); msg.Type != MsgAck || msg.ID != "sub-1" {
		t.Fatalf("subscribe reply = %+v", msg)
	}
}

func testTick() (automation.TickReport, time.Time) {
	brightness := 50
	return automation.TickReport{
		ID:          "tick-7",
		At:          automation.TimeOfDay{Hour: 8, Second: 5},
		Temperature: 45,
		Rules:       []automation.RuleResult{{Rule: automation.RuleSchedule, Touched: 2}},
		Devices: []device.StatusRecord{
			{ID: "l1", Name: "Garage Light", Kind: device.KindLight, Power: true, Setting: &brightness, SettingName: "brightness"},
		},
		Duration: 2 * time.Millisecond,
	}, time.Date(2026, 3, 1, 8, 0, 5, 0, time.UTC)
}

func TestWebSocket_HandshakeThroughMiddleware(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)
}

func TestWebSocket_TickDelivered(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)
	subscribe(t, ws, ChannelTicks)

	srv.hub.PublishTick(testTick())

	var got TickPayload
	msg := receive(t, ws, &got)
	if msg.Type != MsgEvent || msg.Channel != ChannelTicks {
		t.Fatalf("event = %+v", msg)
	}
	if got.ID != "tick-7" || got.SimTime != "2026-03-01 08:00:05" || got.Temperature != 45 || got.DevicesOn != 1 {
		t.Errorf("tick payload = %+v", got)
	}
	if got.DurationMS != 2 {
		t.Errorf("DurationMS = %v, want 2", got.DurationMS)
	}
}

func TestWebSocket_DevicesSnapshotThenUpdates(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)
	subscribe(t, ws, ChannelDevices)

	var snap DevicesPayload
	msg := receive(t, ws, &snap)
	if msg.Channel != ChannelDevices || !snap.Snapshot {
		t.Fatalf("first devices event = %+v %+v, want snapshot", msg, snap)
	}
	if len(snap.Devices) != 3 || snap.Devices[0].Name != "Garage Light" || !snap.Devices[0].Power {
		t.Errorf("snapshot devices = %+v", snap.Devices)
	}

	srv.hub.PublishTick(testTick())

	var update DevicesPayload
	receive(t, ws, &update)
	if update.Snapshot || update.SimTime != "2026-03-01 08:00:05" || len(update.Devices) != 1 {
		t.Errorf("update = %+v", update)
	}
}

func TestWebSocket_OnlySubscribedChannels(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)
	subscribe(t, ws, ChannelTicks)

	srv.hub.PublishTick(testTick())
	srv.hub.PublishTick(testTick())

	for i := 0; i < 2; i++ {
		if msg := receive(t, ws, nil); msg.Channel != ChannelTicks {
			t.Errorf("event %d channel = %q, want %q", i, msg.Channel, ChannelTicks)
		}
	}
}

func TestWebSocket_Requests(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)

	tests := []struct {
		name     string
		send     string
		wantType string
	}{
		{"ping", `{"type":"ping","id":"p1"}`, MsgPong},
		{"invalid json", `not json`, MsgError},
		{"unknown type", `{"type":"shout","id":"x"}`, MsgError},
		{"unknown channel", `{"type":"subscribe","id":"s","channels":["devices","alarms"]}`, MsgError},
		{"no channels", `{"type":"subscribe","id":"s"}`, MsgError},
		{"unsubscribe", `{"type":"unsubscribe","id":"u","channels":["devices"]}`, MsgAck},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(tt.send)); err != nil {
				t.Fatalf("write: %v", err)
			}
			if msg := receive(t, ws, nil); msg.Type != tt.wantType {
				t.Errorf("reply = %q, want %q", msg.Type, tt.wantType)
			}
		})
	}
}

func TestWebSocket_RejectedSubscriptionChangesNothing(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)

	send(t, ws, ClientMessage{Type: MsgSubscribe, ID: "bad", Channels: []string{ChannelTicks, "alarms"}})
	if msg := receive(t, ws, nil); msg.Type != MsgError {
		t.Fatalf("reply = %+v, want error", msg)
	}

	// A tick published now must not arrive; the ping reply must be next.
	srv.hub.PublishTick(testTick())
	send(t, ws, ClientMessage{Type: MsgPing, ID: "p"})
	if msg := receive(t, ws, nil); msg.Type != MsgPong {
		t.Errorf("next message = %+v, want pong", msg)
	}
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	ws := connectWebSocket(t, srv)
	waitForClients(t, srv.hub, 1)

	ws.Close()
	waitForClients(t, srv.hub, 0)
}

func TestWebSocket_NoHub(t *testing.T) {
	srv, _ := testServer(t, Deps{})
	srv.hub = nil

	if w := doGet(t, srv, "/ws"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestStatusWriter_HijackUnsupported(t *testing.T) {
	w := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := w.Hijack(); err == nil {
		t.Error("Hijack() over a recorder should fail")
	}
	if w.Unwrap() == nil {
		t.Error("Unwrap() returned nil")
	}
}
