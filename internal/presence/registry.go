package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/nfrund/chatkit/internal/pubsub"
)

// TopicUpdated carries the full online set after every connect/disconnect.
const TopicUpdated = "presence.updated"

// Update is the payload published on TopicUpdated.
type Update struct {
	Users []string `json:"users"`
}

// Registry owns the process-wide mapping from user identity to the
// connection handle of their most recent realtime connection. At most one
// handle is addressable per identity: a new connection for the same
// identity overwrites the existing entry rather than appending to it.
//
// The mapping is not persisted; after a restart every user appears
// offline until they reconnect.
type Registry struct {
	mu        sync.Mutex
	byUser    map[string]string // userID -> connID
	byConn    map[string]string // connID -> userID
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry publishing updates on the bus.
func NewRegistry(publisher pubsub.Publisher) *Registry {
	return &Registry{
		byUser:    make(map[string]string),
		byConn:    make(map[string]string),
		publisher: publisher,
		logger:    slog.Default().With("service", "presence"),
	}
}

// Connect records connID as the addressable handle for userID,
// superseding any previous connection, then broadcasts the current online
// set to all clients. The broadcast reflects the registry state
// immediately after the mutation.
func (r *Registry) Connect(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok {
		// Last write wins: the superseded handle is no longer addressable.
		delete(r.byConn, old)
		r.logger.Debug("Superseding existing connection", "user_id", userID, "old_conn", old, "new_conn", connID)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
	online := r.onlineLocked()

	r.logger.Info("User connected", "user_id", userID, "conn_id", connID, "online", len(online))
	// Published under the lock so concurrent mutations cannot invert
	// broadcast order and leave clients with a stale final set.
	r.publish(online)
}

// Disconnect removes the entry owned by the closing connection and
// broadcasts the updated online set. A late disconnect of a superseded
// connection must not evict the owner's current entry, so the entry is
// removed only while the stored handle still equals the closing handle.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	if r.byUser[userID] == connID {
		delete(r.byUser, userID)
	}
	online := r.onlineLocked()

	r.logger.Info("User disconnected", "user_id", userID, "conn_id", connID, "online", len(online))
	r.publish(online)
}

// Lookup returns the connection handle for userID, if any. Pure read.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}

// Online returns a sorted snapshot of the identities currently connected.
func (r *Registry) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}

func (r *Registry) onlineLocked() []string {
	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (r *Registry) publish(online []string) {
	payload, err := json.Marshal(Update{Users: online})
	if err != nil {
		r.logger.Error("Failed to marshal presence update", "error", err)
		return
	}
	if err := r.publisher.Publish(context.Background(), pubsub.Message{
		Topic:   TopicUpdated,
		Payload: payload,
	}); err != nil {
		r.logger.Error("Failed to publish presence update", "error", err)
	}
}
