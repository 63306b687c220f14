package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillBus implements Bus using watermill's in-memory GoChannel.
// A single process-wide instance carries presence and message events
// between the HTTP layer and the WebSocket bridge.
type WatermillBus struct {
	pub message.Publisher
	sub message.Subscriber
}

// NewWatermillBus initializes the in-memory bus.
func NewWatermillBus() *WatermillBus {
	logger := watermill.NewStdLogger(false, false)
	ch := gochannel.NewGoChannel(gochannel.Config{}, logger)

	return &WatermillBus{pub: ch, sub: ch}
}

// Publish implements the Publisher interface.
func (b *WatermillBus) Publish(ctx context.Context, msg Message) error {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	return b.pub.Publish(msg.Topic, wmMsg)
}

// Subscribe implements the Subscriber interface. The handler runs in a
// background goroutine per topic; Subscribe itself returns immediately.
func (b *WatermillBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := Message{Topic: topic, Payload: wmMsg.Payload}
			if err := handler(ctx, msg); err != nil {
				// In-memory bus: redelivery would just replay the same
				// failure, so log and acknowledge.
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts down the bus and stops message consumption.
func (b *WatermillBus) Close() error {
	return b.sub.Close()
}
