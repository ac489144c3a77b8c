// Package booking implements booking intake, the staff approval workflow and
// the appointment lifecycle that follows it.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides id generation.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLocation sets the clinic time zone used in notification text.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store Store, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		loc:      time.UTC,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// deliver hands committed notifications to the notifier. Failures are logged
// and never undo the committed change.
func (s *Service) deliver(ctx context.Context, notes ...model.Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range notes {
		if err := s.notifier.Deliver(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed",
				"notification_id", n.ID,
				"recipient_id", n.RecipientID,
				"type", n.Type,
				"err", err,
			)
		}
	}
}

// slotStart is the instant a slot begins in the clinic time zone.
func (s *Service) slotStart(slot model.TimeSlot) time.Time {
	d := slot.Date
	return time.Date(d.Year(), d.Month(), d.Day(), 0, slot.StartMinute, 0, 0, s.loc).UTC()
}

// releaseSlot makes the slot behind bookingID available again when the
// appointment starting at at still occupies it. An appointment moved off its
// slot no longer holds it, so a later cancellation leaves the slot alone.
func (s *Service) releaseSlot(ctx context.Context, tx Tx, bookingID string, at time.Time) error {
	b, err := tx.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.SlotID == "" {
		return nil
	}
	slot, err := tx.GetSlotForUpdate(ctx, b.SlotID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if slot.Status != model.SlotBooked || !s.slotStart(slot).Equal(at) {
		return nil
	}
	return tx.SetSlotStatus(ctx, slot.ID, model.SlotAvailable)
}

// dependency wraps untyped store errors so callers see a generic failure.
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

func (s *Service) formatWhen(t time.Time) string {
	return t.In(s.loc).Format("Mon 2 Jan 2006 15:04")
}
