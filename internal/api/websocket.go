package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types. Clients send subscribe, unsubscribe and ping; the server
// answers with ack, pong or error and pushes event messages.
const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgPing        = "ping"
	MsgPong        = "pong"
	MsgAck         = "ack"
	MsgEvent       = "event"
	MsgError       = "error"

	// wsSendBufferSize is the per-client outbound queue length.
	wsSendBufferSize = 64
)

// ClientMessage is a request from a WebSocket client.
type ClientMessage struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// ServerMessage is anything the server writes to a client.
type ServerMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are filtered by corsMiddleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsClient is one connected socket. send is closed exactly once, by close.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	channels map[string]struct{}
	closed   bool
}

// handleWebSocket upgrades the request and starts the client's pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeUnavailable(w, "websocket hub not running")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		channels: make(map[string]struct{}),
	}
	s.hub.register(c)

	go c.writeLoop()
	go c.readLoop()
}

func (c *wsClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

// enqueue queues data without blocking. It reports false when the client
// is gone or its queue is full.
func (c *wsClient) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

func (c *wsClient) readLoop() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	wait := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		//nolint:errcheck // a failed deadline surfaces as a read error
		c.conn.SetReadDeadline(time.Now().Add(wait))
		c.handle(data)
	}
}

func (c *wsClient) writeLoop() {
	cfg := c.hub.cfg
	ping := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // write errors are caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // peer may already be gone
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			//nolint:errcheck // write errors are caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handle(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(MsgError, "", map[string]string{"message": "invalid JSON message"})
		return
	}

	switch msg.Type {
	case MsgSubscribe:
		c.subscribe(msg)
	case MsgUnsubscribe:
		c.mu.Lock()
		for _, ch := range msg.Channels {
			delete(c.channels, ch)
		}
		c.mu.Unlock()
		c.reply(MsgAck, msg.ID, map[string]any{"unsubscribed": msg.Channels})
	case MsgPing:
		c.reply(MsgPong, msg.ID, nil)
	default:
		c.reply(MsgError, msg.ID, map[string]string{"message": "unknown message type: " + msg.Type})
	}
}

// subscribe is all or nothing: one unknown channel rejects the request.
func (c *wsClient) subscribe(msg ClientMessage) {
	if len(msg.Channels) == 0 {
		c.reply(MsgError, msg.ID, map[string]string{"message": "no channels given"})
		return
	}
	var unknown []string
	for _, ch := range msg.Channels {
		if _, ok := knownChannels[ch]; !ok {
			unknown = append(unknown, ch)
		}
	}
	if len(unknown) > 0 {
		c.reply(MsgError, msg.ID, map[string]string{
			"message": "unknown channel: " + strings.Join(unknown, ", "),
			"allowed": allowedChannels(),
		})
		return
	}

	c.mu.Lock()
	_, hadDevices := c.channels[ChannelDevices]
	for _, ch := range msg.Channels {
		c.channels[ch] = struct{}{}
	}
	c.mu.Unlock()

	c.reply(MsgAck, msg.ID, map[string]any{"subscribed": msg.Channels})

	if !hadDevices && c.subscribed(ChannelDevices) {
		if snap, ok := c.hub.snapshot(); ok {
			if data, err := encodeEvent(ChannelDevices, snap); err == nil {
				c.enqueue(data)
			}
		}
	}
}

func (c *wsClient) reply(msgType, id string, payload any) {
	data, err := json.Marshal(ServerMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func allowedChannels() string {
	names := make([]string, 0, len(knownChannels))
	for ch := range knownChannels {
		names = append(names, ch)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
