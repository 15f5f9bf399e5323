package item

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stored record.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenerateID returns a new random UUID for an item.
func GenerateID() string {
	return uuid.NewString()
}

// Action names a mutation.
type Action string

// Item mutations reported to an EventSink.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event describes one successful mutation. Item holds the new state, or
// only the ID for deletions.
type Event struct {
	Action    Action    `json:"action"`
	Item      Item      `json:"item"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
