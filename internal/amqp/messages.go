package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a confirmed record mutation.
type EventType string

const (
	EventRecordCreated EventType = "record.created"
	EventRecordUpdated EventType = "record.updated"
	EventRecordDeleted EventType = "record.deleted"
)

var ErrInvalidEvent = errors.New("invalid record event")

// RecordEvent is published after the backend confirms a create, update or delete.
type RecordEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RecordID  string    `json:"recordId"`
	UserID    string    `json:"userId"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(t EventType, recordID, userID, amount string) *RecordEvent {
	return &RecordEvent{
		ID:        uuid.NewString(),
		Type:      t,
		RecordID:  recordID,
		UserID:    userID,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
}

func (e *RecordEvent) Validate() error {
	switch e.Type {
	case EventRecordCreated, EventRecordUpdated, EventRecordDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.ID == "" || e.RecordID == "" || e.UserID == "" {
		return fmt.Errorf("%w: missing id, recordId or userId", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates a message body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
