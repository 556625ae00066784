package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeTicketBooked    Type = "ticket.booked"
	TypeTicketValidated Type = "ticket.validated"
	TypeStationDeleted  Type = "station.deleted"
	TypeTrainDeleted    Type = "train.deleted"
	TypeRoleChanged     Type = "user.role_changed"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Subject    string         `json:"subject"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current UTC time.
func New(t Type, subject string, attrs map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Subject:    subject,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(e Event)
}

type Bus interface {
	Publisher
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
