package testutils

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/chatkit/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// FakeMessageRepo is an in-memory domain.MessageRepository for unit tests.
// Messages are kept in insertion order with monotonically increasing
// creation timestamps.
type FakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
	clock    time.Time
}

// NewFakeMessageRepo creates an empty FakeMessageRepo.
func NewFakeMessageRepo() *FakeMessageRepo {
	return &FakeMessageRepo{clock: time.Now().UTC()}
}

func (r *FakeMessageRepo) Append(ctx context.Context, senderID, receiverID, text, image string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strictly increasing timestamps keep ordering assertions deterministic.
	r.clock = r.clock.Add(time.Millisecond)
	created := surrealmodels.CustomDateTime{Time: r.clock}

	msg := domain.Message{
		ID:         NewTestRecordID("message"),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  &created,
	}
	r.messages = append(r.messages, msg)

	clone := msg
	return &clone, nil
}

func (r *FakeMessageRepo) Conversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Time.Before(out[j].CreatedAt.Time)
	})
	return out, nil
}

// All returns every stored message, for assertions on persistence.
func (r *FakeMessageRepo) All() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}
