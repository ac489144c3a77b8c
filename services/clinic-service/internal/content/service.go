// Package content serves the clinic's notifications inbox, feedback, FAQs,
// announcements, settings and admin reports.
package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const (
	maxFeedbackLength = 2000
	maxTextLength     = 5000
	maxSettingKey     = 100
)

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Notifications(ctx context.Context, accountID string, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	out, err := s.store.ListNotifications(ctx, accountID, limit)
	return out, dependency("list notifications", err)
}

type FeedbackInput struct {
	AppointmentID string
	Message       string
	Rating        int
}

// SubmitFeedback stores pending feedback. A referenced appointment must be
// the caller's own and completed.
func (s *Service) SubmitFeedback(ctx context.Context, accountID string, in FeedbackInput) (model.Feedback, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.AppointmentID = strings.TrimSpace(in.AppointmentID)
	if in.Message == "" {
		return model.Feedback{}, apperr.Validation("message is required")
	}
	if len(in.Message) > maxFeedbackLength {
		return model.Feedback{}, apperr.Validation("message is too long")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Feedback{}, apperr.Validation("rating must be between 1 and 5")
	}
	if in.AppointmentID != "" {
		a, err := s.store.AppointmentByID(ctx, in.AppointmentID)
		if err != nil {
			return model.Feedback{}, dependency("submit feedback", err)
		}
		if a.StudentID != accountID {
			return model.Feedback{}, apperr.Forbidden("appointment belongs to another student")
		}
		if a.Status != model.AppointmentCompleted {
			return model.Feedback{}, apperr.Conflict("feedback is accepted for completed appointments only")
		}
	}

	f := model.Feedback{
		ID:            s.newID(),
		AccountID:     accountID,
		AppointmentID: in.AppointmentID,
		Message:       in.Message,
		Rating:        in.Rating,
		Status:        model.FeedbackPending,
		SubmittedAt:   s.now().UTC(),
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		return tx.InsertFeedback(ctx, f)
	})
	if err != nil {
		return model.Feedback{}, dependency("submit feedback", err)
	}
	return f, nil
}

func (s *Service) ListFeedback(ctx context.Context, status string) ([]model.Feedback, error) {
	if status != "" && status != model.FeedbackPending && status != model.FeedbackApproved {
		return nil, apperr.Validation("status must be pending or approved")
	}
	out, err := s.store.ListFeedback(ctx, status)
	return out, dependency("list feedback", err)
}

func (s *Service) ApproveFeedback(ctx context.Context, adminID, id string) (model.Feedback, error) {
	var out model.Feedback
	err := s.store.InTx(ctx, func(tx Tx) error {
		f, err := tx.ApproveFeedback(ctx, id)
		if err != nil {
			return err
		}
		out = f
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.FeedbackModerated,
			ActorID:   adminID,
			Metadata:  map[string]any{"feedback_id": id, "action": "approve"},
		})
	})
	if err != nil {
		return model.Feedback{}, dependency("approve feedback", err)
	}
	return out, nil
}

func (s *Service) DeleteFeedback(ctx context.Context, adminID, id string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteFeedback(ctx, id); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.FeedbackModerated,
			ActorID:   adminID,
			Metadata:  map[string]any{"feedback_id": id, "action": "delete"},
		})
	})
	return dependency("delete feedback", err)
}

func (s *Service) FAQs(ctx context.Context, category string) ([]model.FAQ, error) {
	out, err := s.store.ListFAQs(ctx, strings.TrimSpace(category))
	return out, dependency("list faqs", err)
}

type FAQInput struct {
	Question *string
	Answer   *string
	Category *string
}

func (s *Service) CreateFAQ(ctx context.Context, adminID string, in FAQInput) (model.FAQ, error) {
	question, answer := trimmed(in.Question), trimmed(in.Answer)
	if question == "" || answer == "" {
		return model.FAQ{}, apperr.Validation("question and answer are required")
	}
	if len(question) > maxTextLength || len(answer) > maxTextLength {
		return model.FAQ{}, apperr.Validation("question or answer is too long")
	}
	category := trimmed(in.Category)
	if category == "" {
		category = "general"
	}
	now := s.now().UTC()
	f := model.FAQ{ID: s.newID(), Question: question, Answer: answer, Category: category, CreatedAt: now, UpdatedAt: now}

	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertFAQ(ctx, f); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.FAQChanged,
			ActorID:   adminID,
			Metadata:  map[string]any{"faq_id": f.ID, "action": "create"},
		})
	})
	if err != nil {
		return model.FAQ{}, dependency("create faq", err)
	}
	return f, nil
}

func (s *Service) UpdateFAQ(ctx context.Context, adminID, id string, in FAQInput) (model.FAQ, error) {
	if in.Question == nil && in.Answer == nil && in.Category == nil {
		return model.FAQ{}, apperr.Validation("nothing to update")
	}
	for _, v := range []*string{in.Question, in.Answer, in.Category} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			return model.FAQ{}, apperr.Validation("fields must not be empty")
		}
		if len(*v) > maxTextLength {
			return model.FAQ{}, apperr.Validation("field is too long")
		}
	}

	var out model.FAQ
	err := s.store.InTx(ctx, func(tx Tx) error {
		f, err := tx.UpdateFAQ(ctx, id, in.Question, in.Answer, in.Category, s.now().UTC())
		if err != nil {
			return err
		}
		out = f
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.FAQChanged,
			ActorID:   adminID,
			Metadata:  map[string]any{"faq_id": id, "action": "update"},
		})
	})
	if err != nil {
		return model.FAQ{}, dependency("update faq", err)
	}
	return out, nil
}

func (s *Service) DeleteFAQ(ctx context.Context, adminID, id string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteFAQ(ctx, id); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.FAQChanged,
			ActorID:   adminID,
			Metadata:  map[string]any{"faq_id": id, "action": "delete"},
		})
	})
	return dependency("delete faq", err)
}

func (s *Service) Announcements(ctx context.Context) ([]model.Announcement, error) {
	out, err := s.store.ListAnnouncements(ctx, 50)
	return out, dependency("list announcements", err)
}

func (s *Service) CreateAnnouncement(ctx context.Context, adminID, title, body string) (model.Announcement, error) {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" || body == "" {
		return model.Announcement{}, apperr.Validation("title and body are required")
	}
	if len(title) > 200 || len(body) > maxTextLength {
		return model.Announcement{}, apperr.Validation("title or body is too long")
	}
	a := model.Announcement{ID: s.newID(), Title: title, Body: body, AuthorID: adminID, CreatedAt: s.now().UTC()}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertAnnouncement(ctx, a); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AnnouncementCreated,
			ActorID:   adminID,
			Metadata:  map[string]any{"announcement_id": a.ID},
		})
	})
	if err != nil {
		return model.Announcement{}, dependency("create announcement", err)
	}
	return a, nil
}

func (s *Service) Settings(ctx context.Context) ([]model.Setting, error) {
	out, err := s.store.ListSettings(ctx)
	return out, dependency("list settings", err)
}

// UpdateSettings upserts every pair in one transaction.
func (s *Service) UpdateSettings(ctx context.Context, adminID string, values map[string]string) ([]model.Setting, error) {
	if len(values) == 0 {
		return nil, apperr.Validation("no settings given")
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		key := strings.TrimSpace(k)
		if key == "" || len(key) > maxSettingKey {
			return nil, apperr.Validation("invalid setting key")
		}
		if len(values[k]) > maxTextLength {
			return nil, apperr.Validation("setting value is too long")
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := s.now().UTC()
	err := s.store.InTx(ctx, func(tx Tx) error {
		for _, k := range keys {
			if err := tx.UpsertSetting(ctx, strings.TrimSpace(k), values[k], now); err != nil {
				return err
			}
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.SettingsUpdated,
			ActorID:   adminID,
			Metadata:  map[string]any{"keys": keys},
		})
	})
	if err != nil {
		return nil, dependency("update settings", err)
	}
	return s.Settings(ctx)
}

func (s *Service) Report(ctx context.Context) (Report, error) {
	r, err := s.store.Report(ctx)
	return r, dependency("build report", err)
}

func (s *Service) AuditLog(ctx context.Context, limit int) ([]audit.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out, err := s.store.ListAudit(ctx, limit)
	return out, dependency("list audit log", err)
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
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
