package outbox

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AccountRegistered      = "clinic.account.registered.v1"
	BookingRequested       = "clinic.booking.requested.v1"
	BookingApproved        = "clinic.booking.approved.v1"
	BookingRejected        = "clinic.booking.rejected.v1"
	AppointmentCompleted   = "clinic.appointment.completed.v1"
	AppointmentCancelled   = "clinic.appointment.cancelled.v1"
	AppointmentRescheduled = "clinic.appointment.rescheduled.v1"
	AppointmentUpdated     = "clinic.appointment.updated.v1"
)

// NewEvent marshals payload into an outbox event with a fresh id. The id
// travels as the event_id header so consumers can deduplicate.
func NewEvent(aggregateType, aggregateID, eventType string, payload map[string]any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
