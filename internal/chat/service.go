package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatkit/internal/domain"
	"github.com/nfrund/chatkit/internal/pubsub"
)

// ImageResolver resolves an inline image payload to a stored URL before
// the message is persisted.
type ImageResolver interface {
	Save(ctx context.Context, payload string) (string, error)
}

// Service implements the messaging operations: sending, conversation
// retrieval and the contact sidebar.
type Service struct {
	messages  domain.MessageRepository
	users     domain.UserRepository
	images    ImageResolver
	publisher pubsub.Publisher
}

// NewService creates a chat Service.
func NewService(messages domain.MessageRepository, users domain.UserRepository, images ImageResolver, publisher pubsub.Publisher) *Service {
	return &Service{
		messages:  messages,
		users:     users,
		images:    images,
		publisher: publisher,
	}
}

// Send validates the payload, resolves any inline image to a stored URL,
// persists the message and announces it on the bus. Once the append has
// succeeded the send cannot fail: delivery is best-effort and publish
// errors are logged and swallowed.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error) {
	if text == "" && image == "" {
		return nil, domain.NewValidationError("Message must contain text or an image")
	}

	imageURL := ""
	if image != "" {
		url, err := s.images.Save(ctx, image)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	msg, err := s.messages.Append(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal message for fanout", "error", err)
		return msg, nil
	}
	if err := s.publisher.Publish(ctx, pubsub.Message{Topic: TopicMessageCreated, Payload: payload}); err != nil {
		slog.Error("Failed to publish message created event", "error", err)
	}

	return msg, nil
}

// Conversation returns the full exchange between two identities in
// creation order.
func (s *Service) Conversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	return s.messages.Conversation(ctx, a, b)
}

// Contacts lists every other user for the sidebar.
func (s *Service) Contacts(ctx context.Context, excludingID string) ([]domain.User, error) {
	return s.users.ListOthers(ctx, excludingID)
}
