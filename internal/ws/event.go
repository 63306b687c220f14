package ws

import "encoding/json"

// Event names pushed over the realtime channel.
const (
	// EventOnlineUsers carries the full set of online identities. Emitted
	// to every client on each connect/disconnect.
	EventOnlineUsers = "getOnlineUsers"
	// EventNewMessage carries a full message record. Emitted to sender
	// and receiver connections on message creation.
	EventNewMessage = "newMessage"
)

// Event is the wire envelope for everything pushed to clients.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Encode marshals a named event with its payload into wire bytes.
func Encode(name string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Name: name, Data: raw})
}
