package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/krshsl/interview-coach/models"
	ws "github.com/krshsl/interview-coach/websocket"
)

// safeSend tries to send a message to the client channel, recovers if closed
func safeSend(ch chan<- []byte, msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel is closed, ignore
		}
	}()
	select {
	case ch <- msg:
	default:
	}
}

// WebSocketHandler serves the live channel of a session. Committed messages
// arrive through the hub; the browser may also send messages over it.
type WebSocketHandler struct {
	sessions *SessionService
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(sessions *SessionService, hub *ws.Hub, allowedOrigins string) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, allowedOrigins)
			},
		},
	}
}

// RegisterRoutes mounts the socket under the /session subrouter.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{id}/ws", h.ServeSession)
}

func (h *WebSocketHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	session, err := h.sessions.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID, "session_id", session.ID)

	client := h.hub.RegisterClient(conn, user.ID, session.ID)
	client.MessageHandler = func(c *ws.Client, messageBytes []byte) {
		h.HandleWebSocketMessage(user, c, messageBytes)
	}

	// Registered before the snapshot read: a message committed in between is
	// either in the snapshot or queued on Send.
	current, err := h.sessions.Get(context.Background(), user, session.ID)
	if err != nil || current == nil {
		slog.Error("Failed to load session snapshot", "error", err, "session_id", session.ID)
		client.Close()
		return
	}
	snapshot := newSessionOut(current)
	payload, err := json.Marshal(SessionEvent{Type: "session", Session: &snapshot})
	if err != nil {
		slog.Error("Failed to marshal session event", "error", err)
		client.Close()
		return
	}
	if err := client.WriteNow(payload); err != nil {
		slog.Error("Failed to send session snapshot", "error", err, "session_id", session.ID)
		client.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}

// HandleWebSocketMessage processes one frame from the browser
func (h *WebSocketHandler) HandleWebSocketMessage(user *models.User, client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err, "session_id", client.SessionID)
		h.sendError(client, NewHTTPError(http.StatusBadRequest, "invalid message", "INVALID_BODY"))
		return
	}

	slog.Info("WebSocket message received", "type", msg.Type, "user_id", user.ID, "session_id", client.SessionID)

	ctx := context.Background()
	switch msg.Type {
	case "message":
		// the reply reaches this client through the hub
		if _, err := h.sessions.SendMessage(ctx, user, client.SessionID, msg.Content); err != nil {
			h.sendError(client, err)
		}
	case "complete":
		if _, err := h.sessions.Complete(ctx, user, client.SessionID); err != nil {
			h.sendError(client, err)
		}
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "session_id", client.SessionID)
		h.sendError(client, NewHTTPError(http.StatusBadRequest, "unknown message type", "INVALID_BODY"))
	}
}

func (h *WebSocketHandler) sendError(client *ws.Client, err error) {
	httpErr := MapErrorToHTTP(err)
	h.sendEvent(client, SessionEvent{
		Type:  "error",
		Error: &ErrorResponse{Detail: httpErr.Message, Code: httpErr.Code},
	})
}

func (h *WebSocketHandler) sendEvent(client *ws.Client, event SessionEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal session event", "error", err)
		return
	}
	safeSend(client.Send, b)
}
