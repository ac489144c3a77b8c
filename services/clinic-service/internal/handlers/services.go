package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/accounts"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/scheduling"
)

// The handler dependencies are declared as interfaces so the HTTP layer can
// be exercised without a database.

type AccountService interface {
	Register(ctx context.Context, caller *auth.Principal, in accounts.RegisterInput) (accounts.Session, error)
	Login(ctx context.Context, email, password string) (accounts.Session, error)
	Profile(ctx context.Context, accountID string) (model.Account, error)
	StudentProfile(ctx context.Context, studentID string) (model.StudentProfile, error)
	UpdateProfile(ctx context.Context, accountID string, in accounts.ProfileInput) (model.Account, error)
	ChangePassword(ctx context.Context, accountID, current, next string) error
	ListUsers(ctx context.Context, role string) ([]model.Account, error)
	UpdateUser(ctx context.Context, adminID, userID string, in accounts.UserUpdate) (model.Account, error)
	DeleteUser(ctx context.Context, adminID, userID string) error
}

type BookingService interface {
	Request(ctx context.Context, studentID string, in booking.RequestInput) (model.Booking, error)
	ListStudentBookings(ctx context.Context, studentID string) ([]model.Booking, error)
	PendingBookings(ctx context.Context, limit int) ([]model.Booking, error)
	Decide(ctx context.Context, staffID string, d booking.Decision) (booking.Outcome, error)
	Complete(ctx context.Context, staffID, appointmentID string, notes *string) (model.Appointment, error)
	Reschedule(ctx context.Context, studentID, appointmentID string, in booking.RescheduleInput) (model.Appointment, error)
	Cancel(ctx context.Context, studentID, appointmentID string) (model.Appointment, error)
	SetStatus(ctx context.Context, actorID, appointmentID, status string, notes *string) (model.Appointment, error)
	ListStudentAppointments(ctx context.Context, studentID string) ([]model.Appointment, error)
	History(ctx context.Context, staffID string) ([]model.Appointment, error)
	ListAppointments(ctx context.Context, status string, limit int) ([]model.Appointment, error)
	SendMessage(ctx context.Context, staffID string, in booking.MessageInput) (model.Notification, error)
}

type SchedulingService interface {
	Location() *time.Location
	AddSlot(ctx context.Context, staffID string, in scheduling.SlotInput) (model.TimeSlot, error)
	ListSlots(ctx context.Context, staffID string, from, to *time.Time) ([]model.TimeSlot, error)
	DeleteSlot(ctx context.Context, staffID, slotID string) error
	SetWeekly(ctx context.Context, staffID string, in scheduling.WeeklyInput) (model.Schedule, error)
	Schedule(ctx context.Context, staffID string, f availability.Filter) (availability.Assembled, error)
}

type ContentService interface {
	Notifications(ctx context.Context, accountID string, limit int) ([]model.Notification, error)
	SubmitFeedback(ctx context.Context, accountID string, in content.FeedbackInput) (model.Feedback, error)
	ListFeedback(ctx context.Context, status string) ([]model.Feedback, error)
	ApproveFeedback(ctx context.Context, adminID, id string) (model.Feedback, error)
	DeleteFeedback(ctx context.Context, adminID, id string) error
	FAQs(ctx context.Context, category string) ([]model.FAQ, error)
	CreateFAQ(ctx context.Context, adminID string, in content.FAQInput) (model.FAQ, error)
	UpdateFAQ(ctx context.Context, adminID, id string, in content.FAQInput) (model.FAQ, error)
	DeleteFAQ(ctx context.Context, adminID, id string) error
	Announcements(ctx context.Context) ([]model.Announcement, error)
	CreateAnnouncement(ctx context.Context, adminID, title, body string) (model.Announcement, error)
	Settings(ctx context.Context) ([]model.Setting, error)
	UpdateSettings(ctx context.Context, adminID string, values map[string]string) ([]model.Setting, error)
	Report(ctx context.Context) (content.Report, error)
	AuditLog(ctx context.Context, limit int) ([]audit.AuditEvent, error)
}

// Streamer upgrades a request to the caller's live notification feed.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, accountID string)
}

var (
	_ AccountService    = (*accounts.Service)(nil)
	_ BookingService    = (*booking.Service)(nil)
	_ SchedulingService = (*scheduling.Service)(nil)
	_ ContentService    = (*content.Service)(nil)
)
