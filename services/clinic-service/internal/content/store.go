package content

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

type Tx interface {
	InsertFeedback(ctx context.Context, f model.Feedback) error
	ApproveFeedback(ctx context.Context, id string) (model.Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error

	InsertFAQ(ctx context.Context, f model.FAQ) error
	// UpdateFAQ replaces the non-nil fields and returns the stored row.
	UpdateFAQ(ctx context.Context, id string, question, answer, category *string, at time.Time) (model.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error

	InsertAnnouncement(ctx context.Context, a model.Announcement) error
	UpsertSetting(ctx context.Context, key, value string, at time.Time) error

	RecordAudit(ctx context.Context, e audit.Entry) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	AppointmentByID(ctx context.Context, id string) (model.Appointment, error)
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
	ListFeedback(ctx context.Context, status string) ([]model.Feedback, error)
	ListFAQs(ctx context.Context, category string) ([]model.FAQ, error)
	ListAnnouncements(ctx context.Context, limit int) ([]model.Announcement, error)
	ListSettings(ctx context.Context) ([]model.Setting, error)
	Report(ctx context.Context) (Report, error)
	ListAudit(ctx context.Context, limit int) ([]audit.AuditEvent, error)
}

// Report is the administrative overview.
type Report struct {
	AccountsByRole       map[string]int
	BookingsByStatus     map[string]int
	AppointmentsByStatus map[string]int
	FeedbackCount        int
	AverageRating        float64
}
