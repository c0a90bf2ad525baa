package mockserver

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// message is the outbound push envelope.
type message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) close() {
	close(c.send)
}

// Hub fans pushes out to every connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	logger  *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
		logger:  logger,
	}
}

func (h *Hub) Add(conn *websocket.Conn) *wsClient {
	c := newWSClient(conn)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) Remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Send delivers a message to one client only.
func (h *Hub) Send(c *wsClient, msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorw("marshal push", "err", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Broadcast delivers a message to every client. Clients that cannot keep up
// are disconnected.
func (h *Hub) Broadcast(msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorw("marshal push", "err", err)
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws client too slow, disconnecting")
			h.Remove(c)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
