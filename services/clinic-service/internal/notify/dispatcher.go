package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/sms"
)

// PhoneBook resolves the SMS number of an account.
type PhoneBook interface {
	PhoneNumber(ctx context.Context, accountID string) (string, error)
}

// Dispatcher delivers stored notifications to the live feed and by SMS.
// It runs after the notification row is committed.
type Dispatcher struct {
	hub    *Hub
	sender sms.Sender
	phones PhoneBook
	logger *slog.Logger
}

func NewDispatcher(hub *Hub, sender sms.Sender, phones PhoneBook, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, sender: sender, phones: phones, logger: logger}
}

func (d *Dispatcher) Deliver(ctx context.Context, n model.Notification) error {
	if d.hub != nil {
		d.hub.Publish(n)
	}
	if d.sender == nil || d.phones == nil {
		return nil
	}
	phone, err := d.phones.PhoneNumber(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("lookup phone for %s: %w", n.RecipientID, err)
	}
	if phone == "" {
		d.logger.Debug("sms skipped, recipient has no phone", "recipient_id", n.RecipientID)
		return nil
	}
	if err := d.sender.Send(ctx, sms.Message{To: phone, Body: n.Content, Reference: n.ID}); err != nil {
		return fmt.Errorf("%s: %w", d.sender.ProviderID(), err)
	}
	return nil
}
