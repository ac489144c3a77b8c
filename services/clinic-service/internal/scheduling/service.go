// Package scheduling publishes staff availability: date-specific slots guarded
// by the overlap rule and recurring weekly windows.
package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

type Service struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLocation sets the zone slot dates and "today" are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		loc:    time.UTC,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the zone used for dates.
func (s *Service) Location() *time.Location { return s.loc }

// SlotInput is the wire form of a new slot: YYYY-MM-DD and HH:MM values.
type SlotInput struct {
	Date  string
	Start string
	End   string
}

// AddSlot publishes an available slot. The overlap check and the insert run
// under a per-staff, per-date lock so two concurrent requests cannot both
// pass the check.
func (s *Service) AddSlot(ctx context.Context, staffID string, in SlotInput) (model.TimeSlot, error) {
	date, iv, err := s.parseSlot(in)
	if err != nil {
		return model.TimeSlot{}, err
	}
	if err := availability.ValidateCandidate(date, iv, s.now()); err != nil {
		return model.TimeSlot{}, err
	}

	slot := model.TimeSlot{
		ID:          s.newID(),
		StaffID:     staffID,
		Date:        date,
		StartMinute: iv.Start,
		EndMinute:   iv.End,
		Status:      model.SlotAvailable,
		CreatedAt:   s.now().UTC(),
	}
	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockStaffDate(ctx, staffID, date); err != nil {
			return err
		}
		existing, err := tx.ListSlotsForStaffDate(ctx, staffID, date)
		if err != nil {
			return err
		}
		if other, ok := availability.FindOverlap(staffID, date, iv, existing); ok {
			return apperr.Conflict("slot overlaps " + availability.FormatClock(other.StartMinute) + "-" + availability.FormatClock(other.EndMinute))
		}
		if err := tx.InsertSlot(ctx, slot); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.SlotCreated,
			ActorID:   staffID,
			Metadata: map[string]any{
				"slot_id": slot.ID,
				"date":    date.Format(availability.DateLayout),
				"start":   availability.FormatClock(iv.Start),
				"end":     availability.FormatClock(iv.End),
			},
		})
	})
	if err != nil {
		return model.TimeSlot{}, dependency("add slot", err)
	}
	return slot, nil
}

func (s *Service) parseSlot(in SlotInput) (time.Time, availability.Interval, error) {
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Start) == "" || strings.TrimSpace(in.End) == "" {
		return time.Time{}, availability.Interval{}, apperr.Validation("date, start_time and end_time are required")
	}
	date, err := availability.ParseDate(in.Date, s.loc)
	if err != nil {
		return time.Time{}, availability.Interval{}, apperr.Validation(err.Error())
	}
	start, err := availability.ParseClock(in.Start)
	if err != nil {
		return time.Time{}, availability.Interval{}, apperr.Validation(err.Error())
	}
	end, err := availability.ParseClock(in.End)
	if err != nil {
		return time.Time{}, availability.Interval{}, apperr.Validation(err.Error())
	}
	return date, availability.Interval{Start: start, End: end}, nil
}

// ListSlots returns the staff member's own slots in an optional date range.
func (s *Service) ListSlots(ctx context.Context, staffID string, from, to *time.Time) ([]model.TimeSlot, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("to must not be before from")
	}
	out, err := s.store.ListSlots(ctx, staffID, from, to)
	return out, dependency("list slots", err)
}

// DeleteSlot removes an available slot owned by staffID.
func (s *Service) DeleteSlot(ctx context.Context, staffID, slotID string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		slot, err := tx.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.StaffID != staffID {
			return apperr.Forbidden("slot belongs to another staff member")
		}
		if slot.Status != model.SlotAvailable {
			return apperr.Conflict("slot is already booked")
		}
		if err := tx.DeleteSlot(ctx, slotID); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.SlotDeleted,
			ActorID:   staffID,
			Metadata:  map[string]any{"slot_id": slotID},
		})
	})
	return dependency("delete slot", err)
}

// WeeklyInput is the wire form of one recurring window.
type WeeklyInput struct {
	Weekday int
	Start   string
	End     string
	Status  string
}

// SetWeekly upserts a recurring window keyed by weekday and start. A window
// that overlaps a different window on the same weekday is a Conflict.
func (s *Service) SetWeekly(ctx context.Context, staffID string, in WeeklyInput) (model.Schedule, error) {
	if in.Weekday < 0 || in.Weekday > 6 {
		return model.Schedule{}, apperr.Validation("weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, err := availability.ParseClock(in.Start)
	if err != nil {
		return model.Schedule{}, apperr.Validation(err.Error())
	}
	end, err := availability.ParseClock(in.End)
	if err != nil {
		return model.Schedule{}, apperr.Validation(err.Error())
	}
	if start >= end {
		return model.Schedule{}, apperr.Validation("start time must be before end time")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.ScheduleAvailable
	}
	if status != model.ScheduleAvailable && status != model.ScheduleUnavailable {
		return model.Schedule{}, apperr.Validation("status must be available or unavailable")
	}

	entry := model.Schedule{
		ID:          s.newID(),
		StaffID:     staffID,
		Weekday:     time.Weekday(in.Weekday),
		StartMinute: start,
		EndMinute:   end,
		Status:      status,
	}
	candidate := availability.Interval{Start: start, End: end}

	var out model.Schedule
	err = s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.ListSchedulesForWeekday(ctx, staffID, entry.Weekday)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.StartMinute == start {
				continue
			}
			if candidate.Overlaps(availability.Interval{Start: e.StartMinute, End: e.EndMinute}) {
				return apperr.Conflict("weekly window overlaps " + availability.FormatClock(e.StartMinute) + "-" + availability.FormatClock(e.EndMinute))
			}
		}
		out, err = tx.UpsertSchedule(ctx, entry)
		return err
	})
	if err != nil {
		return model.Schedule{}, dependency("set weekly schedule", err)
	}
	return out, nil
}

// Schedule assembles the staff member's recurring and specific availability.
func (s *Service) Schedule(ctx context.Context, staffID string, f availability.Filter) (availability.Assembled, error) {
	if strings.TrimSpace(staffID) == "" {
		return availability.Assembled{}, apperr.Validation("staff_id is required")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return availability.Assembled{}, apperr.Validation("to must not be before from")
	}
	ok, err := s.store.StaffExists(ctx, staffID)
	if err != nil {
		return availability.Assembled{}, dependency("load schedule", err)
	}
	if !ok {
		return availability.Assembled{}, apperr.NotFound("staff member not found")
	}

	recurring, err := s.store.ListSchedules(ctx, staffID)
	if err != nil {
		return availability.Assembled{}, dependency("load schedule", err)
	}
	slots, err := s.store.ListSlots(ctx, staffID, f.From, f.To)
	if err != nil {
		return availability.Assembled{}, dependency("load schedule", err)
	}
	return availability.Assemble(recurring, slots, f), nil
}

func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Dependency(op, err)
}
