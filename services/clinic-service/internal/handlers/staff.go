package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/availability"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/scheduling"
)

// StaffHandler serves availability, schedules, booking decisions and
// staff-side appointment actions.
type StaffHandler struct {
	scheduling SchedulingService
	bookings   BookingService
	accounts   AccountService
	logger     *slog.Logger
}

func NewStaffHandler(sched SchedulingService, bookings BookingService, accts AccountService, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{scheduling: sched, bookings: bookings, accounts: accts, logger: logger}
}

type createSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *StaffHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if !decode(w, r, &req) {
		return
	}
	slot, err := h.scheduling.AddSlot(r.Context(), principal(r).AccountID, scheduling.SlotInput{
		Date:  req.Date,
		Start: req.StartTime,
		End:   req.EndTime,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, slotFrom(slot))
}

func (h *StaffHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dateRange(r)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	slots, err := h.scheduling.ListSlots(r.Context(), principal(r).AccountID, from, to)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotFrom(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *StaffHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduling.DeleteSlot(r.Context(), principal(r).AccountID, pathID(r)); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type weeklyRequest struct {
	Weekday   *int   `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func (h *StaffHandler) SetWeekly(w http.ResponseWriter, r *http.Request) {
	var req weeklyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Weekday == nil {
		httpx.WriteError(w, http.StatusBadRequest, "weekday is required")
		return
	}
	s, err := h.scheduling.SetWeekly(r.Context(), principal(r).AccountID, scheduling.WeeklyInput{
		Weekday: *req.Weekday,
		Start:   req.StartTime,
		End:     req.EndTime,
		Status:  req.Status,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduleView{
		ID:        s.ID,
		Weekday:   int(s.Weekday),
		StartTime: availability.FormatClock(s.StartMinute),
		EndTime:   availability.FormatClock(s.EndMinute),
		Status:    s.Status,
	})
}

// Schedule is readable by every role. Staff default to their own schedule;
// other callers must name staff_id.
func (h *StaffHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	q := r.URL.Query()
	staffID := strings.TrimSpace(q.Get("staff_id"))
	if staffID == "" && p.IsStaff() {
		staffID = p.AccountID
	}

	f, err := h.scheduleFilter(r)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	assembled, err := h.scheduling.Schedule(r.Context(), staffID, f)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, assembledFrom(staffID, assembled))
}

func (h *StaffHandler) scheduleFilter(r *http.Request) (availability.Filter, error) {
	q := r.URL.Query()
	var f availability.Filter
	if raw := strings.TrimSpace(q.Get("weekday")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 6 {
			return f, apperr.Validation("weekday must be between 0 and 6")
		}
		wd := time.Weekday(n)
		f.Weekday = &wd
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	f.Status = strings.TrimSpace(q.Get("status"))
	for name, dst := range map[string]**int{"start_after": &f.StartAfter, "end_before": &f.EndBefore} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		m, err := availability.ParseClock(raw)
		if err != nil {
			return f, apperr.Validation(name + ": " + err.Error())
		}
		*dst = &m
	}
	return f, nil
}

func (h *StaffHandler) dateRange(r *http.Request) (*time.Time, *time.Time, error) {
	q := r.URL.Query()
	var out [2]*time.Time
	for i, name := range []string{"from", "to"} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		d, err := availability.ParseDate(raw, h.scheduling.Location())
		if err != nil {
			return nil, nil, apperr.Validation(name + ": " + err.Error())
		}
		out[i] = &d
	}
	return out[0], out[1], nil
}

func (h *StaffHandler) PendingBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.PendingBookings(r.Context(), queryLimit(r, 100))
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

type manageRequest struct {
	BookingID string `json:"booking_id"`
	Action    string `json:"action"`
	Notes     string `json:"notes"`
}

type manageResponse struct {
	Booking      bookingView      `json:"booking"`
	Appointment  *appointmentView `json:"appointment"`
	Notification notificationView `json:"notification"`
}

// Manage approves or rejects a pending booking.
func (h *StaffHandler) Manage(w http.ResponseWriter, r *http.Request) {
	var req manageRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.bookings.Decide(r.Context(), principal(r).AccountID, booking.Decision{
		BookingID: req.BookingID,
		Action:    req.Action,
		Notes:     req.Notes,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	resp := manageResponse{Booking: bookingFrom(out.Booking), Notification: notificationFrom(out.Notification)}
	if out.Appointment != nil {
		a := appointmentFrom(*out.Appointment)
		resp.Appointment = &a
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type completeRequest struct {
	AppointmentID string  `json:"appointment_id"`
	Notes         *string `json:"notes"`
}

func (h *StaffHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.bookings.Complete(r.Context(), principal(r).AccountID, req.AppointmentID, req.Notes)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentFrom(a))
}

func (h *StaffHandler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.History(r.Context(), principal(r).AccountID)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appointmentsFrom(list))
}

type studentDetailResponse struct {
	accountView
	StudentNumber string            `json:"student_number"`
	Appointments  []appointmentView `json:"appointments"`
}

func (h *StaffHandler) Student(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	p, err := h.accounts.StudentProfile(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	appts, err := h.bookings.ListStudentAppointments(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, studentDetailResponse{
		accountView:   accountFrom(p.Account),
		StudentNumber: p.StudentNumber,
		Appointments:  appointmentsFrom(appts),
	})
}

type messageRequest struct {
	StudentID     string `json:"student_id"`
	AppointmentID string `json:"appointment_id"`
	Content       string `json:"content"`
}

func (h *StaffHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.bookings.SendMessage(r.Context(), principal(r).AccountID, booking.MessageInput{
		StudentID:     req.StudentID,
		AppointmentID: req.AppointmentID,
		Content:       req.Content,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, notificationFrom(n))
}
