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

// RescheduleInput changes the time and/or notes of an appointment.
type RescheduleInput struct {
	At    *time.Time
	Notes *string
}

// Reschedule moves a student's own future, non-terminal appointment. The
// status is left untouched. Moving off a booked slot frees that slot.
func (s *Service) Reschedule(ctx context.Context, studentID, appointmentID string, in RescheduleInput) (model.Appointment, error) {
	if in.At == nil && in.Notes == nil {
		return model.Appointment{}, apperr.Validation("date_time or notes is required")
	}
	if in.Notes != nil && len(*in.Notes) > maxNotesLength {
		return model.Appointment{}, apperr.Validation("notes are too long")
	}
	now := s.now().UTC()
	if in.At != nil && !in.At.After(now) {
		return model.Appointment{}, apperr.Validation("appointment time must be in the future")
	}

	var out model.Appointment
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := s.ownedMutable(ctx, tx, studentID, appointmentID, now)
		if err != nil {
			return err
		}
		previous := a.ScheduledAt
		if in.At != nil && !in.At.Equal(previous) {
			if err := s.releaseSlot(ctx, tx, a.BookingID, previous); err != nil {
				return err
			}
			a.ScheduledAt = in.At.UTC()
		}
		if in.Notes != nil {
			a.Notes = strings.TrimSpace(*in.Notes)
		}
		a.UpdatedAt = now
		if err := tx.RescheduleAppointment(ctx, a.ID, a.ScheduledAt, a.Notes, now); err != nil {
			return err
		}

		evt, err := outbox.NewEvent("appointment", a.ID, outbox.AppointmentRescheduled, map[string]any{
			"appointment_id": a.ID,
			"student_id":     a.StudentID,
			"staff_id":       a.StaffID,
			"previous_at":    previous.Format(time.RFC3339),
			"scheduled_at":   a.ScheduledAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		if err := tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AppointmentMoved,
			ActorID:   studentID,
			Metadata:  map[string]any{"appointment_id": a.ID, "previous_at": previous, "scheduled_at": a.ScheduledAt},
		}); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, dependency("reschedule appointment", err)
	}
	return out, nil
}

// Cancel cancels a student's own future, non-terminal appointment and tells
// the assigned staff member.
func (s *Service) Cancel(ctx context.Context, studentID, appointmentID string) (model.Appointment, error) {
	now := s.now().UTC()
	var (
		out   model.Appointment
		notes []model.Notification
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := s.ownedMutable(ctx, tx, studentID, appointmentID, now)
		if err != nil {
			return err
		}
		if !model.CanTransitionAppointment(a.Status, model.AppointmentCancelled) {
			return apperr.Conflict("appointment cannot be cancelled from " + a.Status)
		}
		a.Status = model.AppointmentCancelled
		a.UpdatedAt = now
		if err := tx.SetAppointmentStatus(ctx, a.ID, a.Status, a.Notes, now); err != nil {
			return err
		}
		if err := s.releaseSlot(ctx, tx, a.BookingID, a.ScheduledAt); err != nil {
			return err
		}

		if a.StaffID != "" {
			n := model.Notification{
				ID:            s.newID(),
				AppointmentID: a.ID,
				RecipientID:   a.StaffID,
				SenderID:      studentID,
				Type:          model.NotificationAppointmentCancelled,
				Content:       "The appointment on " + s.formatWhen(a.ScheduledAt) + " was cancelled by the student.",
				Status:        model.NotificationUnread,
				SentAt:        now,
			}
			if err := tx.InsertNotification(ctx, n); err != nil {
				return err
			}
			notes = append(notes, n)
		}
		if err := s.statusEvent(ctx, tx, a, outbox.AppointmentCancelled, studentID); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, dependency("cancel appointment", err)
	}
	s.deliver(ctx, notes...)
	return out, nil
}

// Complete marks a pending or scheduled appointment completed. Notes, when
// given, replace the stored notes.
func (s *Service) Complete(ctx context.Context, staffID, appointmentID string, notes *string) (model.Appointment, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return model.Appointment{}, apperr.Validation("appointment_id is required")
	}
	if notes != nil && len(*notes) > maxNotesLength {
		return model.Appointment{}, apperr.Validation("notes are too long")
	}
	now := s.now().UTC()

	var (
		out model.Appointment
		n   model.Notification
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !model.CanTransitionAppointment(a.Status, model.AppointmentCompleted) {
			return apperr.Conflict("appointment cannot be completed from " + a.Status)
		}
		a.Status = model.AppointmentCompleted
		if notes != nil {
			a.Notes = strings.TrimSpace(*notes)
		}
		a.UpdatedAt = now
		if err := tx.SetAppointmentStatus(ctx, a.ID, a.Status, a.Notes, now); err != nil {
			return err
		}

		n = model.Notification{
			ID:            s.newID(),
			AppointmentID: a.ID,
			RecipientID:   a.StudentID,
			SenderID:      staffID,
			Type:          model.NotificationAppointmentCompleted,
			Content:       "Your appointment on " + s.formatWhen(a.ScheduledAt) + " has been marked completed.",
			Status:        model.NotificationUnread,
			SentAt:        now,
		}
		if err := tx.InsertNotification(ctx, n); err != nil {
			return err
		}
		if err := s.statusEvent(ctx, tx, a, outbox.AppointmentCompleted, staffID); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, dependency("complete appointment", err)
	}
	s.deliver(ctx, n)
	return out, nil
}

// SetStatus is the administrative status change. It follows the same
// transition table as the student and staff operations.
func (s *Service) SetStatus(ctx context.Context, actorID, appointmentID, status string, notes *string) (model.Appointment, error) {
	status = strings.TrimSpace(status)
	if !model.ValidAppointmentStatus(status) {
		return model.Appointment{}, apperr.Validation("unknown appointment status")
	}
	if notes != nil && len(*notes) > maxNotesLength {
		return model.Appointment{}, apperr.Validation("notes are too long")
	}
	now := s.now().UTC()

	var out model.Appointment
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !model.CanTransitionAppointment(a.Status, status) {
			return apperr.Conflict("appointment cannot move from " + a.Status + " to " + status)
		}
		a.Status = status
		if notes != nil {
			a.Notes = strings.TrimSpace(*notes)
		}
		a.UpdatedAt = now
		if err := tx.SetAppointmentStatus(ctx, a.ID, a.Status, a.Notes, now); err != nil {
			return err
		}
		if status == model.AppointmentCancelled {
			if err := s.releaseSlot(ctx, tx, a.BookingID, a.ScheduledAt); err != nil {
				return err
			}
		}
		if err := s.statusEvent(ctx, tx, a, outbox.AppointmentUpdated, actorID); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return model.Appointment{}, dependency("update appointment", err)
	}
	return out, nil
}

func (s *Service) ownedMutable(ctx context.Context, tx Tx, studentID, appointmentID string, now time.Time) (model.Appointment, error) {
	a, err := tx.GetAppointmentForUpdate(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	if a.StudentID != studentID {
		return model.Appointment{}, apperr.Forbidden("appointment belongs to another student")
	}
	if model.IsTerminalAppointment(a.Status) {
		return model.Appointment{}, apperr.Conflict("appointment is already " + a.Status)
	}
	if !a.ScheduledAt.After(now) {
		return model.Appointment{}, apperr.Conflict("appointment has already started")
	}
	return a, nil
}

func (s *Service) statusEvent(ctx context.Context, tx Tx, a model.Appointment, eventType, actorID string) error {
	evt, err := outbox.NewEvent("appointment", a.ID, eventType, map[string]any{
		"appointment_id": a.ID,
		"booking_id":     a.BookingID,
		"student_id":     a.StudentID,
		"staff_id":       a.StaffID,
		"status":         a.Status,
		"updated_at":     a.UpdatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return err
	}
	return tx.RecordAudit(ctx, audit.Entry{
		EventType: audit.AppointmentStatus,
		ActorID:   actorID,
		Metadata:  map[string]any{"appointment_id": a.ID, "status": a.Status},
	})
}

func (s *Service) ListStudentAppointments(ctx context.Context, studentID string) ([]model.Appointment, error) {
	out, err := s.store.ListAppointmentsByStudent(ctx, studentID)
	return out, dependency("list appointments", err)
}

// History lists the staff member's appointments that reached a terminal state.
func (s *Service) History(ctx context.Context, staffID string) ([]model.Appointment, error) {
	out, err := s.store.ListAppointmentsByStaff(ctx, staffID, []string{
		model.AppointmentCompleted, model.AppointmentCancelled, model.AppointmentRejected,
	})
	return out, dependency("list appointment history", err)
}

func (s *Service) ListAppointments(ctx context.Context, status string, limit int) ([]model.Appointment, error) {
	if status != "" && !model.ValidAppointmentStatus(status) {
		return nil, apperr.Validation("unknown appointment status")
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	out, err := s.store.ListAppointments(ctx, status, limit)
	return out, dependency("list appointments", err)
}
