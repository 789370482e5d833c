package amqp

import (
	"time"

	"github.com/goccy/go-json"
)

// ChangeMessage announces one mutation of the expense collection.
// Consumers re-read the collection for details; the message only carries the identity
// of the change.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage stamps a change message with the current time.
func NewChangeMessage(kind, id string, revision uint64) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		ID:        id,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
