package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub manages WebSocket connections and channel subscriptions. Dashboards
// subscribe to "leads" for lead-change events and "import:<jobId>" for live
// import progress; the redis bus feeds Publish.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*Conn]bool
	subs    map[string]map[*Conn]bool // channel -> connections
	publish chan Event
	log     *zap.Logger
}

// Conn represents a WebSocket connection
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	hub  *Hub
	subs map[string]bool // subscribed channels
}

// Event represents a message to be published
type Event struct {
	Channel string
	Message map[string]interface{}
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns:   make(map[*Conn]bool),
		subs:    make(map[string]map[*Conn]bool),
		publish: make(chan Event, 256),
		log:     log,
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for event := range h.publish {
		h.mu.RLock()
		conns := h.subs[event.Channel]
		h.mu.RUnlock()

		if conns != nil {
			msg, _ := json.Marshal(map[string]interface{}{
				"type":    "event",
				"channel": event.Channel,
				"data":    event.Message,
			})
			for conn := range conns {
				select {
				case conn.send <- msg:
				default:
					h.unregister(conn)
				}
			}
		}
	}
}

// Register adds a new connection to the hub
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(conn.send)
		for channel := range conn.subs {
			if subs := h.subs[channel]; subs != nil {
				delete(subs, conn)
				if len(subs) == 0 {
					delete(h.subs, channel)
				}
			}
		}
	}
}

// Subscribe adds a connection to a channel
func (h *Hub) Subscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Conn]bool)
	}
	h.subs[channel][conn] = true
	conn.subs[channel] = true
}

// Unsubscribe removes a connection from a channel
func (h *Hub) Unsubscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subs[channel]; subs != nil {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, channel)
		}
	}
	delete(conn.subs, channel)
}

// Publish sends an event to all subscribers of a channel
func (h *Hub) Publish(channel string, message map[string]interface{}) {
	select {
	case h.publish <- Event{Channel: channel, Message: message}:
	default:
		h.log.Warn("Hub publish channel full, dropping event", zap.String("channel", channel))
	}
}

// NewConn creates a new connection
func NewConn(ws *websocket.Conn, hub *Hub) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, 256),
		hub:  hub,
		subs: make(map[string]bool),
	}
}

// ReadPump handles reading from the WebSocket connection
func (c *Conn) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Warn("Failed to parse message", zap.Error(err))
			continue
		}

		c.handleMessage(msg)
	}
}

// WritePump handles writing to the WebSocket connection
func (c *Conn) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) handleMessage(msg map[string]interface{}) {
	msgType, _ := msg["type"].(string)

	switch msgType {
	case "subscribe":
		channel, _ := msg["channel"].(string)
		if channel != "" {
			c.hub.Subscribe(c, channel)
			c.sendAck("subscribed", channel)
		}
	case "unsubscribe":
		channel, _ := msg["channel"].(string)
		if channel != "" {
			c.hub.Unsubscribe(c, channel)
			c.sendAck("unsubscribed", channel)
		}
	case "ping":
		c.sendAck("pong", "")
	default:
		c.hub.log.Warn("Unknown message type", zap.String("type", msgType))
	}
}

func (c *Conn) sendAck(msgType, channel string) {
	ack := map[string]interface{}{
		"type": "ack",
		"ack":  msgType,
	}
	if channel != "" {
		ack["channel"] = channel
	}
	msg, _ := json.Marshal(ack)
	select {
	case c.send <- msg:
	default:
	}
}
