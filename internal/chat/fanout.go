package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nfrund/chatkit/internal/domain"
	"github.com/nfrund/chatkit/internal/presence"
	"github.com/nfrund/chatkit/internal/pubsub"
	"github.com/nfrund/chatkit/internal/ws"
)

// Pusher pushes a payload to a single connection handle.
type Pusher interface {
	SendTo(connID string, payload []byte)
}

// Fanout listens for created messages and pushes them to the live
// connections of both parties. Fire-and-forget: no acknowledgment, no
// retry, no delivery state. If neither party is connected the message is
// already durable and will appear on the next conversation fetch.
type Fanout struct {
	registry *presence.Registry
	pusher   Pusher
	logger   *slog.Logger
}

// NewFanout creates a Fanout reading connection handles from the registry.
func NewFanout(registry *presence.Registry, pusher Pusher) *Fanout {
	return &Fanout{
		registry: registry,
		pusher:   pusher,
		logger:   slog.Default().With("service", "fanout"),
	}
}

// Start subscribes the fanout to message-created events.
func (f *Fanout) Start(ctx context.Context, subscriber pubsub.Subscriber) error {
	return subscriber.Subscribe(ctx, TopicMessageCreated, f.handleMessageCreated)
}

func (f *Fanout) handleMessageCreated(ctx context.Context, msg pubsub.Message) error {
	var record domain.Message
	if err := json.Unmarshal(msg.Payload, &record); err != nil {
		f.logger.Error("Failed to unmarshal created message", "error", err)
		return nil
	}

	payload, err := ws.Encode(ws.EventNewMessage, &record)
	if err != nil {
		f.logger.Error("Failed to encode newMessage event", "error", err)
		return nil
	}

	targets := []string{record.ReceiverID}
	if record.SenderID != record.ReceiverID {
		targets = append(targets, record.SenderID)
	}
	for _, userID := range targets {
		connID, ok := f.registry.Lookup(userID)
		if !ok {
			continue
		}
		f.pusher.SendTo(connID, payload)
	}
	return nil
}
