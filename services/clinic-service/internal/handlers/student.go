package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
)

type StudentHandler struct {
	bookings BookingService
	content  ContentService
	logger   *slog.Logger
}

func NewStudentHandler(bookings BookingService, contentSvc ContentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{bookings: bookings, content: contentSvc, logger: logger}
}

type bookRequest struct {
	DateTime string `json:"date_time"`
	SlotID   string `json:"slot_id"`
	Reason   string `json:"reason"`
}

// Book records an appointment request; staff approval turns it into an
// appointment.
func (h *StudentHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	b, err := h.bookings.Request(r.Context(), principal(r).AccountID, booking.RequestInput{
		At:     at,
		SlotID: req.SlotID,
		Reason: req.Reason,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, bookingFrom(b))
}

func (h *StudentHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListStudentAppointments(r.Context(), principal(r).AccountID)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentsFrom(list))
}

func (h *StudentHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListStudentBookings(r.Context(), principal(r).AccountID)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, bookingFrom(b))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type rescheduleRequest struct {
	DateTime *string `json:"date_time"`
	Notes    *string `json:"notes"`
}

func (h *StudentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if !decode(w, r, &req) {
		return
	}
	var in booking.RescheduleInput
	if req.DateTime != nil {
		at, err := parseDateTime(*req.DateTime)
		if err != nil {
			writeErr(w, r, h.logger, err)
			return
		}
		in.At = at
	}
	in.Notes = req.Notes
	a, err := h.bookings.Reschedule(r.Context(), principal(r).AccountID, pathID(r), in)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentFrom(a))
}

func (h *StudentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, err := h.bookings.Cancel(r.Context(), principal(r).AccountID, pathID(r))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentFrom(a))
}

func (h *StudentHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.Notifications(r.Context(), principal(r).AccountID, queryLimit(r, 100))
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]notificationView, 0, len(list))
	for _, n := range list {
		out = append(out, notificationFrom(n))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type feedbackRequest struct {
	AppointmentID string `json:"appointment_id"`
	Message       string `json:"message"`
	Rating        int    `json:"rating"`
}

func (h *StudentHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := h.content.SubmitFeedback(r.Context(), principal(r).AccountID, content.FeedbackInput{
		AppointmentID: req.AppointmentID,
		Message:       req.Message,
		Rating:        req.Rating,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, feedbackFrom(f))
}
