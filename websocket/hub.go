package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

// Hub fans session events out to every socket watching that session.
type Hub struct {
	sessions   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

type envelope struct {
	sessionID string
	payload   []byte
}

type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	UserID         string
	SessionID      string
	MessageHandler func(*Client, []byte) // handles incoming frames
}

// Message is a frame sent by the browser.
type Message struct {
	Type    string `json:"type"` // "message" or "complete"
	Content string `json:"content"`
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan envelope, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			clients, ok := h.sessions[client.SessionID]
			if !ok {
				clients = make(map[*Client]bool)
				h.sessions[client.SessionID] = clients
			}
			clients[client] = true
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID, "session_id", client.SessionID)

		case msg := <-h.publish:
			h.mu.Lock()
			for client := range h.sessions[msg.sessionID] {
				select {
				case client.Send <- msg.payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.sessions {
				for client := range clients {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.sessions[client.SessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.sessions, client.SessionID)
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish sends event as JSON to the clients of sessionID. It never blocks
// the caller for long; events are dropped once the hub is stopped.
func (h *Hub) Publish(sessionID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal session event", "error", err, "session_id", sessionID)
		return
	}
	select {
	case h.publish <- envelope{sessionID: sessionID, payload: payload}:
	case <-h.done:
	case <-time.After(writeWait):
		slog.Warn("Dropped session event, hub is busy", "session_id", sessionID)
	}
}

// ClientCount returns how many sockets watch sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) RegisterClient(conn *websocket.Conn, userID, sessionID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		UserID:    userID,
		SessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
	return client
}

// Close unregisters the client and closes its connection.
func (c *Client) Close() {
	select {
	case c.Hub.unregister <- c:
	case <-c.Hub.done:
	}
	c.Conn.Close()
}

func (c *Client) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err, "session_id", c.SessionID)
			}
			break
		}

		if c.MessageHandler != nil {
			c.MessageHandler(c, messageBytes)
		}
	}
}

// WriteNow writes payload straight to the connection. It must not be used
// once WritePump is running.
func (c *Client) WriteNow(payload []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
