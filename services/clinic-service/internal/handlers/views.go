package handlers

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

type accountView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func accountFrom(a model.Account) accountView {
	return accountView{
		ID:        a.ID,
		Email:     a.Email,
		Phone:     a.Phone,
		FullName:  a.FullName,
		Role:      a.Role,
		Status:    a.Status,
		CreatedAt: formatTime(a.CreatedAt),
	}
}

type slotView struct {
	ID        string `json:"id"`
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func slotFrom(s model.TimeSlot) slotView {
	return slotView{
		ID:        s.ID,
		StaffID:   s.StaffID,
		Date:      s.Date.Format(availability.DateLayout),
		StartTime: availability.FormatClock(s.StartMinute),
		EndTime:   availability.FormatClock(s.EndMinute),
		Status:    s.Status,
	}
}

type scheduleView struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

type scheduleEntryView struct {
	Kind      string  `json:"kind"`
	ID        string  `json:"id"`
	Weekday   int     `json:"weekday"`
	DayName   string  `json:"day_name"`
	Date      *string `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Status    string  `json:"status"`
}

type conflictView struct {
	First  slotView `json:"first"`
	Second slotView `json:"second"`
}

type assembledView struct {
	StaffID   string              `json:"staff_id"`
	Entries   []scheduleEntryView `json:"entries"`
	Conflicts []conflictView      `json:"conflicts"`
}

func assembledFrom(staffID string, a availability.Assembled) assembledView {
	out := assembledView{StaffID: staffID, Entries: []scheduleEntryView{}, Conflicts: []conflictView{}}
	for _, e := range a.Entries {
		v := scheduleEntryView{
			Kind:      e.Kind,
			ID:        e.ID,
			Weekday:   int(e.Weekday),
			DayName:   e.Weekday.String(),
			StartTime: availability.FormatClock(e.StartMinute),
			EndTime:   availability.FormatClock(e.EndMinute),
			Status:    e.Status,
		}
		if e.Date != nil {
			d := e.Date.Format(availability.DateLayout)
			v.Date = &d
		}
		out.Entries = append(out.Entries, v)
	}
	for _, c := range a.Conflicts {
		out.Conflicts = append(out.Conflicts, conflictView{First: slotFrom(c.A), Second: slotFrom(c.B)})
	}
	return out
}

type bookingView struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"student_id"`
	SlotID      *string `json:"slot_id"`
	DateTime    string  `json:"date_time"`
	Reason      string  `json:"reason"`
	Status      string  `json:"status"`
	StaffID     *string `json:"staff_id"`
	CreatedAt   string  `json:"created_at"`
	ProcessedAt *string `json:"processed_at"`
}

func bookingFrom(b model.Booking) bookingView {
	v := bookingView{
		ID:        b.ID,
		StudentID: b.StudentID,
		SlotID:    optional(b.SlotID),
		DateTime:  formatTime(b.RequestedAt),
		Reason:    b.Reason,
		Status:    b.Status,
		StaffID:   optional(b.StaffID),
		CreatedAt: formatTime(b.CreatedAt),
	}
	if b.ProcessedAt != nil {
		p := formatTime(*b.ProcessedAt)
		v.ProcessedAt = &p
	}
	return v
}

type appointmentView struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	StudentID string  `json:"student_id"`
	StaffID   *string `json:"staff_id"`
	DateTime  string  `json:"date_time"`
	Status    string  `json:"status"`
	Notes     string  `json:"notes"`
	UpdatedAt string  `json:"updated_at"`
}

func appointmentFrom(a model.Appointment) appointmentView {
	return appointmentView{
		ID:        a.ID,
		BookingID: a.BookingID,
		StudentID: a.StudentID,
		StaffID:   optional(a.StaffID),
		DateTime:  formatTime(a.ScheduledAt),
		Status:    a.Status,
		Notes:     a.Notes,
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

func appointmentsFrom(in []model.Appointment) []appointmentView {
	out := make([]appointmentView, 0, len(in))
	for _, a := range in {
		out = append(out, appointmentFrom(a))
	}
	return out
}

type notificationView struct {
	ID            string  `json:"id"`
	AppointmentID *string `json:"appointment_id"`
	SenderID      *string `json:"sender_id"`
	Type          string  `json:"type"`
	Content       string  `json:"content"`
	Status        string  `json:"status"`
	SentAt        string  `json:"sent_at"`
}

func notificationFrom(n model.Notification) notificationView {
	return notificationView{
		ID:            n.ID,
		AppointmentID: optional(n.AppointmentID),
		SenderID:      optional(n.SenderID),
		Type:          n.Type,
		Content:       n.Content,
		Status:        n.Status,
		SentAt:        formatTime(n.SentAt),
	}
}

type feedbackView struct {
	ID            string  `json:"id"`
	AccountID     string  `json:"account_id"`
	AppointmentID *string `json:"appointment_id"`
	Message       string  `json:"message"`
	Rating        int     `json:"rating"`
	Status        string  `json:"status"`
	SubmittedAt   string  `json:"submitted_at"`
}

func feedbackFrom(f model.Feedback) feedbackView {
	return feedbackView{
		ID:            f.ID,
		AccountID:     f.AccountID,
		AppointmentID: optional(f.AppointmentID),
		Message:       f.Message,
		Rating:        f.Rating,
		Status:        f.Status,
		SubmittedAt:   formatTime(f.SubmittedAt),
	}
}

type faqView struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Category  string `json:"category"`
	UpdatedAt string `json:"updated_at"`
}

func faqFrom(f model.FAQ) faqView {
	return faqView{ID: f.ID, Question: f.Question, Answer: f.Answer, Category: f.Category, UpdatedAt: formatTime(f.UpdatedAt)}
}

type announcementView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

func announcementFrom(a model.Announcement) announcementView {
	return announcementView{ID: a.ID, Title: a.Title, Body: a.Body, AuthorID: a.AuthorID, CreatedAt: formatTime(a.CreatedAt)}
}

type auditView struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	ActorID   *string         `json:"actor_id"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

func auditFrom(e audit.AuditEvent) auditView {
	return auditView{ID: e.ID, EventType: e.EventType, ActorID: optional(e.ActorID), Metadata: e.Metadata, CreatedAt: formatTime(e.CreatedAt)}
}

func settingsMap(in []model.Setting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
