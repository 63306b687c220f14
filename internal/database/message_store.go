package database

import (
	"context"
	"fmt"

	"github.com/nfrund/chatkit/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// SurrealMessageStore implements domain.MessageRepository on SurrealDB.
// Messages are append-only; no edit or delete queries exist.
type SurrealMessageStore struct {
	db *surrealdb.DB
}

// NewSurrealMessageStore creates a new SurrealMessageStore.
func NewSurrealMessageStore(db *surrealdb.DB) *SurrealMessageStore {
	return &SurrealMessageStore{db: db}
}

var _ domain.MessageRepository = (*SurrealMessageStore)(nil)

// Append unconditionally persists a new message. Validation of the
// text/image payload is the caller's responsibility.
func (s *SurrealMessageStore) Append(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error) {
	query := `
		CREATE message SET
			senderId = $senderId,
			receiverId = $receiverId,
			text = $text,
			image = $image,
			createdAt = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"senderId":   senderID,
		"receiverId": receiverID,
		"text":       text,
		"image":      image,
	}

	created, err := QueryOne[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("message was not created or could not be fetched")
	}
	return created, nil
}

// Conversation returns the full bidirectional exchange between two
// identities in ascending creation order. The explicit ORDER BY keeps
// the result deterministic regardless of store-native ordering.
func (s *SurrealMessageStore) Conversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	query := `
		SELECT * FROM message
		WHERE (senderId = $a AND receiverId = $b)
		   OR (senderId = $b AND receiverId = $a)
		ORDER BY createdAt ASC
	`
	params := map[string]any{"a": a, "b": b}

	messages, err := Query[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("fetching conversation: %w", err)
	}
	return messages, nil
}
