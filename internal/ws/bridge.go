package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/presence"
	"github.com/nfrund/chatkit/internal/pubsub"
)

// maxPayloadBytes bounds a single realtime frame. Large enough for
// inline image delivery notifications.
const maxPayloadBytes = 5 << 20 // 5 MB

// Bridge manages WebSocket connections and routes pushed events to them.
// It owns the transport-level client map; the presence registry owns the
// identity-to-handle mapping built on top of it.
type Bridge struct {
	registry *presence.Registry

	mu      sync.RWMutex
	clients map[string]*Client // connID -> client
}

// NewBridge creates a Bridge backed by the given presence registry.
func NewBridge(registry *presence.Registry) *Bridge {
	return &Bridge{
		registry: registry,
		clients:  make(map[string]*Client),
	}
}

// Handler returns the echo handler that upgrades requests to WebSocket
// connections. The client supplies its identity as the userId handshake
// query parameter; connections without one are accepted but never appear
// in the presence registry.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.QueryParam("userId")

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}
		conn.SetReadLimit(maxPayloadBytes)

		client := &Client{
			ID:     uuid.NewString(),
			UserID: userID,
			conn:   conn,
			send:   make(chan []byte, 256),
			bridge: b,
		}

		b.mu.Lock()
		b.clients[client.ID] = client
		b.mu.Unlock()

		go client.writePump()

		// Register with presence after the client can receive, so the
		// resulting broadcast reaches the connecting client too.
		if userID != "" {
			b.registry.Connect(userID, client.ID)
		}

		slog.Info("WebSocket client connected", "conn_id", client.ID, "user_id", userID)

		// Block the handler on the read loop; returning would tear down
		// the hijacked connection.
		client.readPump()
		return nil
	}
}

// unregister removes a closed client, evicting its presence entry first
// so the offline broadcast does not target the closing connection.
func (b *Bridge) unregister(client *Client) {
	b.registry.Disconnect(client.ID)

	b.mu.Lock()
	if _, ok := b.clients[client.ID]; ok {
		delete(b.clients, client.ID)
		close(client.send)
	}
	b.mu.Unlock()

	slog.Info("WebSocket client disconnected", "conn_id", client.ID, "user_id", client.UserID)
}

// SendTo pushes a payload to a single connection handle. Fire-and-forget:
// unknown handles and full send buffers drop the payload. The lock is
// held across the send so unregister cannot close the channel between
// the lookup and the select.
func (b *Bridge) SendTo(connID string, payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	client, ok := b.clients[connID]
	if !ok {
		slog.Debug("Dropping push to unknown connection", "conn_id", connID)
		return
	}

	select {
	case client.send <- payload:
	default:
		slog.Warn("Client send channel full, dropping message", "conn_id", connID, "user_id", client.UserID)
	}
}

// Broadcast pushes a payload to every connected client.
func (b *Bridge) Broadcast(payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, client := range b.clients {
		select {
		case client.send <- payload:
		default:
			slog.Warn("Client send channel full, dropping broadcast", "conn_id", client.ID, "user_id", client.UserID)
		}
	}
}

// Start subscribes the bridge to presence updates, re-emitting each one
// to every client as a getOnlineUsers event.
func (b *Bridge) Start(ctx context.Context, subscriber pubsub.Subscriber) error {
	return subscriber.Subscribe(ctx, presence.TopicUpdated, func(ctx context.Context, msg pubsub.Message) error {
		var update presence.Update
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			return err
		}
		payload, err := Encode(EventOnlineUsers, update.Users)
		if err != nil {
			return err
		}
		b.Broadcast(payload)
		return nil
	})
}

// ConnectedCount reports the number of live connections, for health
// reporting.
func (b *Bridge) ConnectedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
