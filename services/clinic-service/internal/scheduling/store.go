package scheduling

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

type Tx interface {
	// LockStaffDate serializes slot writes for one staff member and date
	// until the transaction ends.
	LockStaffDate(ctx context.Context, staffID string, date time.Time) error
	ListSlotsForStaffDate(ctx context.Context, staffID string, date time.Time) ([]model.TimeSlot, error)
	InsertSlot(ctx context.Context, s model.TimeSlot) error
	GetSlotForUpdate(ctx context.Context, id string) (model.TimeSlot, error)
	DeleteSlot(ctx context.Context, id string) error

	ListSchedulesForWeekday(ctx context.Context, staffID string, weekday time.Weekday) ([]model.Schedule, error)
	// UpsertSchedule inserts s or replaces the row with the same staff,
	// weekday and start, returning the stored row.
	UpsertSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error)

	RecordAudit(ctx context.Context, e audit.Entry) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	StaffExists(ctx context.Context, staffID string) (bool, error)
	// ListSlots returns a staff member's slots, optionally bounded by an
	// inclusive date range.
	ListSlots(ctx context.Context, staffID string, from, to *time.Time) ([]model.TimeSlot, error)
	ListSchedules(ctx context.Context, staffID string) ([]model.Schedule, error)
}
