package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/accounts"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
)

type AdminHandler struct {
	accounts AccountService
	bookings BookingService
	content  ContentService
	logger   *slog.Logger
}

func NewAdminHandler(accts AccountService, bookings BookingService, contentSvc ContentService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accts, bookings: bookings, content: contentSvc, logger: logger}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	list, err := h.accounts.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]accountView, 0, len(list))
	for _, a := range list {
		out = append(out, accountFrom(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type userUpdateRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.accounts.UpdateUser(r.Context(), principal(r).AccountID, pathID(r), accounts.UserUpdate{Role: req.Role, Status: req.Status})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountFrom(a))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), principal(r).AccountID, pathID(r)); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.Settings(r.Context())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsMap(list))
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if !decode(w, r, &req) {
		return
	}
	list, err := h.content.UpdateSettings(r.Context(), principal(r).AccountID, req)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingsMap(list))
}

type faqRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	Category *string `json:"category"`
}

func (req faqRequest) input() content.FAQInput {
	return content.FAQInput{Question: req.Question, Answer: req.Answer, Category: req.Category}
}

func (h *AdminHandler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := h.content.CreateFAQ(r.Context(), principal(r).AccountID, req.input())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, faqFrom(f))
}

func (h *AdminHandler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := h.content.UpdateFAQ(r.Context(), principal(r).AccountID, pathID(r), req.input())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, faqFrom(f))
}

func (h *AdminHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteFAQ(r.Context(), principal(r).AccountID, pathID(r)); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type announcementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *AdminHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.content.CreateAnnouncement(r.Context(), principal(r).AccountID, req.Title, req.Body)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, announcementFrom(a))
}

type reportResponse struct {
	AccountsByRole       map[string]int `json:"accounts_by_role"`
	BookingsByStatus     map[string]int `json:"bookings_by_status"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	FeedbackCount        int            `json:"feedback_count"`
	AverageRating        float64        `json:"average_rating"`
}

func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	rep, err := h.content.Report(r.Context())
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reportResponse(rep))
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.AuditLog(r.Context(), queryLimit(r, 50))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]auditView, 0, len(list))
	for _, e := range list {
		out = append(out, auditFrom(e))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListAppointments(r.Context(), r.URL.Query().Get("status"), queryLimit(r, 200))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentsFrom(list))
}

type appointmentStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *AdminHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentStatusRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.bookings.SetStatus(r.Context(), principal(r).AccountID, pathID(r), req.Status, req.Notes)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentFrom(a))
}

func (h *AdminHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListFeedback(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]feedbackView, 0, len(list))
	for _, f := range list {
		out = append(out, feedbackFrom(f))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) ApproveFeedback(w http.ResponseWriter, r *http.Request) {
	f, err := h.content.ApproveFeedback(r.Context(), principal(r).AccountID, pathID(r))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, feedbackFrom(f))
}

func (h *AdminHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteFeedback(r.Context(), principal(r).AccountID, pathID(r)); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
