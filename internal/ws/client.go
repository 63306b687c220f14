package ws

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 10 * time.Second

// Client represents a single connected WebSocket client. ID is the
// connection handle registered with the presence registry; UserID is the
// identity supplied in the handshake, empty for anonymous connections.
type Client struct {
	ID     string
	UserID string
	conn   *websocket.Conn
	send   chan []byte
	bridge *Bridge
}

// readPump drains the connection until the peer closes it, then triggers
// unregistration. Inbound frames are not part of the protocol; all
// client actions arrive over the HTTP API.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "client disconnected")
	}()

	for {
		_, _, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Debug("WebSocket closed by client", "conn_id", c.ID, "user_id", c.UserID)
			} else if err != io.EOF {
				slog.Debug("WebSocket read error", "conn_id", c.ID, "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the client's send channel to the
// WebSocket connection.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			slog.Debug("WebSocket write error", "conn_id", c.ID, "user_id", c.UserID, "error", err)
			return
		}
	}
}
