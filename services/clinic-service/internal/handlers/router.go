package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
)

// RouterConfig wires the handlers behind authentication and role checks.
type RouterConfig struct {
	Auth    *AuthHandler
	Staff   *StaffHandler
	Student *StudentHandler
	Content *ContentHandler
	Admin   *AdminHandler

	Verifier auth.Verifier
	// AuthLimiter throttles /auth/login and /auth/register. Optional.
	AuthLimiter httpx.Middleware
	// Timeout bounds every REST handler; the websocket stream is exempt.
	Timeout time.Duration
}

// NewRouter registers every API route on r. Roles are checked per route
// because several paths are shared between students and staff.
func NewRouter(r *mux.Router, cfg RouterConfig) {
	requireAuth := httpx.Middleware(auth.RequireAuth(cfg.Verifier))
	var rest []httpx.Middleware
	if cfg.Timeout > 0 {
		rest = append(rest, httpx.WithTimeout(cfg.Timeout))
	}

	handle := func(method, path string, h http.HandlerFunc, roles ...string) {
		chain := append([]httpx.Middleware{}, rest...)
		chain = append(chain, requireAuth)
		if len(roles) > 0 {
			chain = append(chain, auth.RequireRole(roles...))
		}
		r.Handle(path, httpx.Chain(h, chain...)).Methods(method)
	}

	staff := []string{auth.RoleStaff, auth.RoleAdmin}
	student := []string{auth.RoleStudent}
	admin := []string{auth.RoleAdmin}

	public := append([]httpx.Middleware{}, rest...)
	if cfg.AuthLimiter != nil {
		public = append(public, cfg.AuthLimiter)
	}
	r.Handle("/auth/login", httpx.Chain(http.HandlerFunc(cfg.Auth.Login), public...)).Methods(http.MethodPost)
	r.Handle("/auth/register", httpx.Chain(http.HandlerFunc(cfg.Auth.Register),
		append(public, auth.OptionalAuth(cfg.Verifier))...)).Methods(http.MethodPost)

	handle(http.MethodGet, "/profile", cfg.Auth.Profile)
	handle(http.MethodPut, "/profile", cfg.Auth.UpdateProfile)
	handle(http.MethodPut, "/profile/password", cfg.Auth.ChangePassword)

	handle(http.MethodPost, "/availability", cfg.Staff.CreateSlot, staff...)
	handle(http.MethodGet, "/availability", cfg.Staff.ListSlots, staff...)
	handle(http.MethodDelete, "/availability/{id}", cfg.Staff.DeleteSlot, staff...)
	handle(http.MethodPut, "/schedule/weekly", cfg.Staff.SetWeekly, staff...)
	handle(http.MethodGet, "/schedule", cfg.Staff.Schedule)
	handle(http.MethodGet, "/bookings/pending", cfg.Staff.PendingBookings, staff...)
	handle(http.MethodGet, "/students/{id}", cfg.Staff.Student, staff...)
	handle(http.MethodPost, "/messages", cfg.Staff.SendMessage, staff...)

	// Literal appointment paths first so {id} does not capture them.
	handle(http.MethodPut, "/appointments/manage", cfg.Staff.Manage, staff...)
	handle(http.MethodPut, "/appointments/complete", cfg.Staff.Complete, staff...)
	handle(http.MethodGet, "/appointments/history", cfg.Staff.History, staff...)
	handle(http.MethodPost, "/appointments", cfg.Student.Book, student...)
	handle(http.MethodGet, "/appointments", cfg.Student.Appointments, student...)
	handle(http.MethodPut, "/appointments/{id}", cfg.Student.Reschedule, student...)
	handle(http.MethodDelete, "/appointments/{id}", cfg.Student.Cancel, student...)
	handle(http.MethodGet, "/bookings", cfg.Student.Bookings, student...)
	handle(http.MethodGet, "/notifications", cfg.Student.Notifications)
	handle(http.MethodPost, "/feedback", cfg.Student.Feedback, student...)

	handle(http.MethodGet, "/faqs", cfg.Content.FAQs)
	handle(http.MethodGet, "/announcements", cfg.Content.Announcements)
	r.Handle("/notifications/stream", httpx.Chain(http.HandlerFunc(cfg.Content.Stream), requireAuth)).Methods(http.MethodGet)

	handle(http.MethodGet, "/admin/users", cfg.Admin.Users, admin...)
	handle(http.MethodPut, "/admin/users/{id}", cfg.Admin.UpdateUser, admin...)
	handle(http.MethodDelete, "/admin/users/{id}", cfg.Admin.DeleteUser, admin...)
	handle(http.MethodGet, "/admin/settings", cfg.Admin.Settings, admin...)
	handle(http.MethodPut, "/admin/settings", cfg.Admin.UpdateSettings, admin...)
	handle(http.MethodPost, "/admin/faqs", cfg.Admin.CreateFAQ, admin...)
	handle(http.MethodPut, "/admin/faqs/{id}", cfg.Admin.UpdateFAQ, admin...)
	handle(http.MethodDelete, "/admin/faqs/{id}", cfg.Admin.DeleteFAQ, admin...)
	handle(http.MethodPost, "/admin/announcements", cfg.Admin.CreateAnnouncement, admin...)
	handle(http.MethodGet, "/admin/reports", cfg.Admin.Reports, admin...)
	handle(http.MethodGet, "/admin/logs", cfg.Admin.Logs, admin...)
	handle(http.MethodGet, "/admin/appointments", cfg.Admin.Appointments, admin...)
	handle(http.MethodPut, "/admin/appointments/{id}", cfg.Admin.UpdateAppointment, admin...)
	handle(http.MethodGet, "/admin/feedback", cfg.Admin.Feedback, admin...)
	handle(http.MethodPut, "/admin/feedback/{id}/approve", cfg.Admin.ApproveFeedback, admin...)
	handle(http.MethodDelete, "/admin/feedback/{id}", cfg.Admin.DeleteFeedback, admin...)
}
