package booking

import (
	"context"
	"strings"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"

	maxNotesLength = 2000
)

type Decision struct {
	BookingID string
	Action    string
	Notes     string
}

// Outcome is what a decision committed. Appointment is nil on rejection.
type Outcome struct {
	Booking      model.Booking
	Appointment  *model.Appointment
	Notification model.Notification
}

// Decide approves or rejects a requested booking. Every write of one decision
// shares a transaction, and the requested status is re-checked under the row
// lock, so concurrent decisions on one booking cannot both succeed.
func (s *Service) Decide(ctx context.Context, staffID string, d Decision) (Outcome, error) {
	d.BookingID = strings.TrimSpace(d.BookingID)
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	d.Notes = strings.TrimSpace(d.Notes)
	if staffID == "" {
		return Outcome{}, apperr.Unauthorized("staff identity required")
	}
	if d.BookingID == "" {
		return Outcome{}, apperr.Validation("booking_id is required")
	}
	if d.Action != ActionApprove && d.Action != ActionReject {
		return Outcome{}, apperr.Validation("action must be approve or reject")
	}
	if len(d.Notes) > maxNotesLength {
		return Outcome{}, apperr.Validation("notes are too long")
	}

	var out Outcome
	err := s.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, d.BookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingRequested {
			return apperr.Conflict("booking already " + b.Status)
		}

		now := s.now().UTC()
		if d.Action == ActionApprove {
			out, err = s.approve(ctx, tx, b, staffID, d.Notes, now)
		} else {
			out, err = s.reject(ctx, tx, b, staffID, d.Notes, now)
		}
		return err
	})
	if err != nil {
		return Outcome{}, dependency("decide booking", err)
	}

	s.deliver(ctx, out.Notification)
	return out, nil
}

// approve creates the appointment for b. A slot-bound appointment always
// belongs to the slot's owner; other staff may not approve it, admins may.
func (s *Service) approve(ctx context.Context, tx Tx, b model.Booking, staffID, notes string, now time.Time) (Outcome, error) {
	owner := staffID
	if b.SlotID != "" {
		slot, err := tx.GetSlotForUpdate(ctx, b.SlotID)
		if err != nil {
			return Outcome{}, err
		}
		if slot.StaffID != staffID {
			role, err := tx.AccountRole(ctx, staffID)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return Outcome{}, err
			}
			if role != model.RoleAdmin {
				return Outcome{}, apperr.Forbidden("slot belongs to another staff member")
			}
		}
		owner = slot.StaffID
		if slot.Status != model.SlotAvailable {
			return Outcome{}, apperr.Conflict("slot is already booked")
		}
		if err := tx.SetSlotStatus(ctx, slot.ID, model.SlotBooked); err != nil {
			return Outcome{}, err
		}
	}

	if err := tx.DecideBooking(ctx, b.ID, model.BookingApproved, staffID, now); err != nil {
		return Outcome{}, err
	}
	b.Status = model.BookingApproved
	b.StaffID = staffID
	b.ProcessedAt = &now

	appt := model.Appointment{
		ID:          s.newID(),
		BookingID:   b.ID,
		StudentID:   b.StudentID,
		StaffID:     owner,
		ScheduledAt: b.RequestedAt,
		Status:      model.AppointmentPending,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.InsertAppointment(ctx, appt); err != nil {
		return Outcome{}, err
	}

	n := model.Notification{
		ID:            s.newID(),
		AppointmentID: appt.ID,
		RecipientID:   b.StudentID,
		SenderID:      staffID,
		Type:          model.NotificationBookingApproved,
		Content:       "Your appointment request for " + s.formatWhen(b.RequestedAt) + " has been approved.",
		Status:        model.NotificationUnread,
		SentAt:        now,
	}
	if err := tx.InsertNotification(ctx, n); err != nil {
		return Outcome{}, err
	}

	evt, err := outbox.NewEvent("booking", b.ID, outbox.BookingApproved, map[string]any{
		"booking_id":     b.ID,
		"appointment_id": appt.ID,
		"student_id":     b.StudentID,
		"staff_id":       owner,
		"approved_by":    staffID,
		"scheduled_at":   appt.ScheduledAt.Format(time.RFC3339),
	})
	if err != nil {
		return Outcome{}, err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return Outcome{}, err
	}
	if err := tx.RecordAudit(ctx, audit.Entry{
		EventType: audit.BookingApproved,
		ActorID:   staffID,
		Metadata:  map[string]any{"booking_id": b.ID, "appointment_id": appt.ID},
	}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Booking: b, Appointment: &appt, Notification: n}, nil
}

func (s *Service) reject(ctx context.Context, tx Tx, b model.Booking, staffID, notes string, now time.Time) (Outcome, error) {
	if err := tx.DecideBooking(ctx, b.ID, model.BookingRejected, staffID, now); err != nil {
		return Outcome{}, err
	}
	b.Status = model.BookingRejected
	b.StaffID = staffID
	b.ProcessedAt = &now

	content := "Your appointment request for " + s.formatWhen(b.RequestedAt) + " has been rejected."
	if notes != "" {
		content += " " + notes
	}
	n := model.Notification{
		ID:          s.newID(),
		RecipientID: b.StudentID,
		SenderID:    staffID,
		Type:        model.NotificationBookingRejected,
		Content:     content,
		Status:      model.NotificationUnread,
		SentAt:      now,
	}
	if err := tx.InsertNotification(ctx, n); err != nil {
		return Outcome{}, err
	}

	evt, err := outbox.NewEvent("booking", b.ID, outbox.BookingRejected, map[string]any{
		"booking_id": b.ID,
		"student_id": b.StudentID,
		"staff_id":   staffID,
	})
	if err != nil {
		return Outcome{}, err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return Outcome{}, err
	}
	if err := tx.RecordAudit(ctx, audit.Entry{
		EventType: audit.BookingRejected,
		ActorID:   staffID,
		Metadata:  map[string]any{"booking_id": b.ID, "notes": notes},
	}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Booking: b, Notification: n}, nil
}
