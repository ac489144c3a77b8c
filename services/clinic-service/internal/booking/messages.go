package booking

import (
	"context"
	"strings"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const maxMessageLength = 1000

type MessageInput struct {
	StudentID     string
	AppointmentID string
	Content       string
}

// SendMessage stores a staff_message notification for a student and
// delivers it after commit.
func (s *Service) SendMessage(ctx context.Context, staffID string, in MessageInput) (model.Notification, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.AppointmentID = strings.TrimSpace(in.AppointmentID)
	in.Content = strings.TrimSpace(in.Content)
	if in.StudentID == "" || in.Content == "" {
		return model.Notification{}, apperr.Validation("student_id and content are required")
	}
	if len(in.Content) > maxMessageLength {
		return model.Notification{}, apperr.Validation("content is too long")
	}

	n := model.Notification{
		ID:            s.newID(),
		AppointmentID: in.AppointmentID,
		RecipientID:   in.StudentID,
		SenderID:      staffID,
		Type:          model.NotificationStaffMessage,
		Content:       in.Content,
		Status:        model.NotificationDelivered,
		SentAt:        s.now().UTC(),
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		role, err := tx.AccountRole(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if role != model.RoleStudent {
			return apperr.Validation("recipient is not a student")
		}
		if in.AppointmentID != "" {
			a, err := tx.GetAppointmentForUpdate(ctx, in.AppointmentID)
			if err != nil {
				return err
			}
			if a.StudentID != in.StudentID {
				return apperr.Validation("appointment belongs to another student")
			}
		}
		if err := tx.InsertNotification(ctx, n); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.StaffMessageSent,
			ActorID:   staffID,
			Metadata:  map[string]any{"student_id": in.StudentID, "notification_id": n.ID},
		})
	})
	if err != nil {
		return model.Notification{}, dependency("send message", err)
	}
	s.deliver(ctx, n)
	return n, nil
}
