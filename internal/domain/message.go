package domain

import (
	"context"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Message is a single chat message between two users. Messages are
// immutable after creation; there is no edit or delete operation.
// Sender and receiver reference user record keys; referential integrity
// is not enforced by the store.
type Message struct {
	ID         *surrealmodels.RecordID       `json:"id,omitempty"`
	SenderID   string                        `json:"senderId"`
	ReceiverID string                        `json:"receiverId"`
	Text       string                        `json:"text,omitempty"`
	Image      string                        `json:"image,omitempty"`
	CreatedAt  *surrealmodels.CustomDateTime `json:"createdAt,omitempty"`
}

// MessageRepository defines the contract for message persistence.
type MessageRepository interface {
	// Append unconditionally persists a new message. The caller is
	// responsible for ensuring at least one of text/image is present and
	// for resolving image payloads to stored URLs beforehand.
	Append(ctx context.Context, senderID, receiverID, text, image string) (*Message, error)
	// Conversation returns every message exchanged between the two
	// identities, in ascending creation-time order. Symmetric in its
	// arguments.
	Conversation(ctx context.Context, a, b string) ([]Message, error)
}
