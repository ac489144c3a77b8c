package booking

import (
	"context"
	"strings"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

const maxReasonLength = 500

// RequestInput names either an explicit time or a published slot.
type RequestInput struct {
	At     *time.Time
	SlotID string
	Reason string
}

// Request records a student's booking request in the requested state.
func (s *Service) Request(ctx context.Context, studentID string, in RequestInput) (model.Booking, error) {
	in.SlotID = strings.TrimSpace(in.SlotID)
	in.Reason = strings.TrimSpace(in.Reason)
	if studentID == "" {
		return model.Booking{}, apperr.Unauthorized("student identity required")
	}
	if (in.At == nil) == (in.SlotID == "") {
		return model.Booking{}, apperr.Validation("provide exactly one of date_time or slot_id")
	}
	if len(in.Reason) > maxReasonLength {
		return model.Booking{}, apperr.Validation("reason is too long")
	}

	now := s.now().UTC()
	b := model.Booking{
		ID:        s.newID(),
		StudentID: studentID,
		SlotID:    in.SlotID,
		Reason:    in.Reason,
		Status:    model.BookingRequested,
		CreatedAt: now,
	}
	if in.At != nil {
		b.RequestedAt = in.At.UTC()
	}

	err := s.store.InTx(ctx, func(tx Tx) error {
		if b.SlotID != "" {
			slot, err := tx.GetSlotForUpdate(ctx, b.SlotID)
			if err != nil {
				return err
			}
			if slot.Status != model.SlotAvailable {
				return apperr.Conflict("slot is already booked")
			}
			b.RequestedAt = s.slotStart(slot)
		}
		if !b.RequestedAt.After(now) {
			return apperr.Validation("appointment time must be in the future")
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		evt, err := outbox.NewEvent("booking", b.ID, outbox.BookingRequested, map[string]any{
			"booking_id":   b.ID,
			"student_id":   b.StudentID,
			"slot_id":      b.SlotID,
			"requested_at": b.RequestedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, evt)
	})
	if err != nil {
		return model.Booking{}, dependency("request booking", err)
	}
	return b, nil
}

func (s *Service) ListStudentBookings(ctx context.Context, studentID string) ([]model.Booking, error) {
	out, err := s.store.ListBookingsByStudent(ctx, studentID)
	return out, dependency("list bookings", err)
}

func (s *Service) PendingBookings(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	out, err := s.store.ListRequestedBookings(ctx, limit)
	return out, dependency("list pending bookings", err)
}
