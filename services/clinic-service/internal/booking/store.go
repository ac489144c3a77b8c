package booking

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

// Tx is the transactional view the workflows write through. Lookups by id
// return an apperr NotFound error when the row is missing.
type Tx interface {
	GetBookingForUpdate(ctx context.Context, id string) (model.Booking, error)
	InsertBooking(ctx context.Context, b model.Booking) error
	// DecideBooking moves a requested booking to status and records the
	// deciding staff member. It fails with Conflict when the booking is no
	// longer requested.
	DecideBooking(ctx context.Context, id, status, staffID string, processedAt time.Time) error

	GetSlotForUpdate(ctx context.Context, id string) (model.TimeSlot, error)
	SetSlotStatus(ctx context.Context, id, status string) error

	InsertAppointment(ctx context.Context, a model.Appointment) error
	GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id, status, notes string, updatedAt time.Time) error
	RescheduleAppointment(ctx context.Context, id string, at time.Time, notes string, updatedAt time.Time) error

	AccountRole(ctx context.Context, accountID string) (string, error)
	InsertNotification(ctx context.Context, n model.Notification) error
	AppendEvent(ctx context.Context, evt outbox.Event) error
	RecordAudit(ctx context.Context, e audit.Entry) error
}

type Store interface {
	// InTx commits when fn returns nil and rolls back every write otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error

	ListBookingsByStudent(ctx context.Context, studentID string) ([]model.Booking, error)
	ListRequestedBookings(ctx context.Context, limit int) ([]model.Booking, error)
	ListAppointmentsByStudent(ctx context.Context, studentID string) ([]model.Appointment, error)
	ListAppointmentsByStaff(ctx context.Context, staffID string, statuses []string) ([]model.Appointment, error)
	ListAppointments(ctx context.Context, status string, limit int) ([]model.Appointment, error)
}

// Notifier delivers an already committed notification.
type Notifier interface {
	Deliver(ctx context.Context, n model.Notification) error
}
