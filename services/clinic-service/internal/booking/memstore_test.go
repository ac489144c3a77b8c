package booking

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

// memStore serializes transactions with a mutex and restores a snapshot when
// fn fails, which is enough to observe commit and rollback behaviour.
type memStore struct {
	mu sync.Mutex

	roles         map[string]string
	slots         map[string]model.TimeSlot
	bookings      map[string]model.Booking
	appointments  map[string]model.Appointment
	notifications []model.Notification
	events        []outbox.Event
	audits        []audit.Entry

	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		roles:        map[string]string{},
		slots:        map[string]model.TimeSlot{},
		bookings:     map[string]model.Booking{},
		appointments: map[string]model.Appointment{},
		failOn:       map[string]error{},
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots := maps.Clone(m.slots)
	bookings := maps.Clone(m.bookings)
	appointments := maps.Clone(m.appointments)
	nNotes, nEvents, nAudits := len(m.notifications), len(m.events), len(m.audits)

	if err := fn(memTx{m}); err != nil {
		m.slots = slots
		m.bookings = bookings
		m.appointments = appointments
		m.notifications = m.notifications[:nNotes]
		m.events = m.events[:nEvents]
		m.audits = m.audits[:nAudits]
		return err
	}
	return nil
}

func (m *memStore) ListBookingsByStudent(_ context.Context, studentID string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.StudentID == studentID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListRequestedBookings(_ context.Context, limit int) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.Status == model.BookingRequested {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListAppointmentsByStudent(_ context.Context, studentID string) ([]model.Appointment, error) {
	return m.filterAppointments(func(a model.Appointment) bool { return a.StudentID == studentID }), nil
}

func (m *memStore) ListAppointmentsByStaff(_ context.Context, staffID string, statuses []string) ([]model.Appointment, error) {
	return m.filterAppointments(func(a model.Appointment) bool {
		if a.StaffID != staffID {
			return false
		}
		for _, s := range statuses {
			if a.Status == s {
				return true
			}
		}
		return len(statuses) == 0
	}), nil
}

func (m *memStore) ListAppointments(_ context.Context, status string, limit int) ([]model.Appointment, error) {
	out := m.filterAppointments(func(a model.Appointment) bool { return status == "" || a.Status == status })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) filterAppointments(keep func(model.Appointment) bool) []model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (m *memStore) appointmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appointments)
}

func (m *memStore) notificationsFor(recipient string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipient {
			out = append(out, n)
		}
	}
	return out
}

type memTx struct{ m *memStore }

func (t memTx) fail(op string) error { return t.m.failOn[op] }

func (t memTx) GetBookingForUpdate(_ context.Context, id string) (model.Booking, error) {
	if err := t.fail("GetBookingForUpdate"); err != nil {
		return model.Booking{}, err
	}
	b, ok := t.m.bookings[id]
	if !ok {
		return model.Booking{}, apperr.NotFound("booking not found")
	}
	return b, nil
}

func (t memTx) InsertBooking(_ context.Context, b model.Booking) error {
	if err := t.fail("InsertBooking"); err != nil {
		return err
	}
	t.m.bookings[b.ID] = b
	return nil
}

func (t memTx) DecideBooking(_ context.Context, id, status, staffID string, processedAt time.Time) error {
	if err := t.fail("DecideBooking"); err != nil {
		return err
	}
	b, ok := t.m.bookings[id]
	if !ok || b.Status != model.BookingRequested {
		return apperr.Conflict("booking is no longer requested")
	}
	b.Status = status
	b.StaffID = staffID
	b.ProcessedAt = &processedAt
	t.m.bookings[id] = b
	return nil
}

func (t memTx) GetSlotForUpdate(_ context.Context, id string) (model.TimeSlot, error) {
	s, ok := t.m.slots[id]
	if !ok {
		return model.TimeSlot{}, apperr.NotFound("slot not found")
	}
	return s, nil
}

func (t memTx) SetSlotStatus(_ context.Context, id, status string) error {
	s := t.m.slots[id]
	s.Status = status
	t.m.slots[id] = s
	return nil
}

func (t memTx) InsertAppointment(_ context.Context, a model.Appointment) error {
	if err := t.fail("InsertAppointment"); err != nil {
		return err
	}
	for _, existing := range t.m.appointments {
		if existing.BookingID == a.BookingID {
			return apperr.Conflict("booking already has an appointment")
		}
	}
	t.m.appointments[a.ID] = a
	return nil
}

func (t memTx) GetAppointmentForUpdate(_ context.Context, id string) (model.Appointment, error) {
	a, ok := t.m.appointments[id]
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment not found")
	}
	return a, nil
}

func (t memTx) SetAppointmentStatus(_ context.Context, id, status, notes string, updatedAt time.Time) error {
	a := t.m.appointments[id]
	a.Status, a.Notes, a.UpdatedAt = status, notes, updatedAt
	t.m.appointments[id] = a
	return nil
}

func (t memTx) RescheduleAppointment(_ context.Context, id string, at time.Time, notes string, updatedAt time.Time) error {
	a := t.m.appointments[id]
	a.ScheduledAt, a.Notes, a.UpdatedAt = at, notes, updatedAt
	t.m.appointments[id] = a
	return nil
}

func (t memTx) AccountRole(_ context.Context, accountID string) (string, error) {
	role, ok := t.m.roles[accountID]
	if !ok {
		return "", apperr.NotFound("account not found")
	}
	return role, nil
}

func (t memTx) InsertNotification(_ context.Context, n model.Notification) error {
	if err := t.fail("InsertNotification"); err != nil {
		return err
	}
	t.m.notifications = append(t.m.notifications, n)
	return nil
}

func (t memTx) AppendEvent(_ context.Context, evt outbox.Event) error {
	t.m.events = append(t.m.events, evt)
	return nil
}

func (t memTx) RecordAudit(_ context.Context, e audit.Entry) error {
	t.m.audits = append(t.m.audits, e)
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []model.Notification
	err       error
}

func (r *recordingNotifier) Deliver(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, n)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delivered)
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func newTestService(store *memStore, notifier *recordingNotifier) *Service {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(store, notifier, logger,
		WithClock(func() time.Time { return testNow }),
		WithIDs(sequentialIDs()),
	)
}

// seedBooking stores a requested booking for tomorrow at 10:00.
func seedBooking(store *memStore, id, studentID string) model.Booking {
	b := model.Booking{
		ID:          id,
		StudentID:   studentID,
		RequestedAt: testNow.Add(25 * time.Hour),
		Status:      model.BookingRequested,
		CreatedAt:   testNow,
	}
	store.bookings[id] = b
	store.roles[studentID] = model.RoleStudent
	return b
}

func seedAppointment(store *memStore, id, studentID, staffID, status string, at time.Time) model.Appointment {
	a := model.Appointment{
		ID:          id,
		BookingID:   "b-" + id,
		StudentID:   studentID,
		StaffID:     staffID,
		ScheduledAt: at,
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	store.appointments[id] = a
	store.bookings[a.BookingID] = model.Booking{
		ID:          a.BookingID,
		StudentID:   studentID,
		RequestedAt: at,
		Status:      model.BookingApproved,
		StaffID:     staffID,
		CreatedAt:   testNow,
	}
	store.roles[studentID] = model.RoleStudent
	return a
}

// seedSlot stores an available slot tomorrow at 10:00-10:30.
func seedSlot(store *memStore, id, staffID string) model.TimeSlot {
	slot := model.TimeSlot{
		ID:          id,
		StaffID:     staffID,
		Date:        testNow.AddDate(0, 0, 1),
		StartMinute: 600,
		EndMinute:   630,
		Status:      model.SlotAvailable,
	}
	store.slots[id] = slot
	store.roles[staffID] = model.RoleStaff
	return slot
}

// bookSlot runs a slot request through approval and returns the appointment.
func bookSlot(t *testing.T, svc *Service, slotID, studentID, staffID string) model.Appointment {
	t.Helper()
	b, err := svc.Request(context.Background(), studentID, RequestInput{SlotID: slotID})
	if err != nil {
		t.Fatalf("request slot %s: %v", slotID, err)
	}
	out, err := svc.Decide(context.Background(), staffID, Decision{BookingID: b.ID, Action: ActionApprove})
	if err != nil {
		t.Fatalf("approve booking %s: %v", b.ID, err)
	}
	return *out.Appointment
}
