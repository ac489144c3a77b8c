package booking

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

func strPtr(s string) *string { return &s }

func TestCompleteThenCancelConflicts(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(24*time.Hour))

	a, err := svc.Complete(context.Background(), "staff-1", "a1", strPtr("all good"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != model.AppointmentCompleted || a.Notes != "all good" {
		t.Fatalf("unexpected appointment: %+v", a)
	}
	if n := store.notificationsFor("stu-1"); len(n) != 1 || n[0].Type != model.NotificationAppointmentCompleted {
		t.Fatalf("unexpected notifications: %+v", n)
	}

	_, err = svc.Cancel(context.Background(), "stu-1", "a1")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict cancelling completed appointment, got %v", err)
	}
	if store.appointments["a1"].Status != model.AppointmentCompleted {
		t.Fatalf("status changed after rejected cancel")
	}
}

func TestCancelNotifiesStaff(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentScheduled, testNow.Add(24*time.Hour))

	a, err := svc.Cancel(context.Background(), "stu-1", "a1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if a.Status != model.AppointmentCancelled {
		t.Fatalf("expected cancelled, got %s", a.Status)
	}
	if n := store.notificationsFor("staff-1"); len(n) != 1 || n[0].Type != model.NotificationAppointmentCancelled {
		t.Fatalf("unexpected staff notifications: %+v", n)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one delivery")
	}
}

func TestCancelChecksOwnershipAndTime(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(24*time.Hour))
	seedAppointment(store, "a2", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(-time.Hour))

	if _, err := svc.Cancel(context.Background(), "stu-2", "a1"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "stu-1", "a2"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for past appointment, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "stu-1", "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRescheduleKeepsStatus(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentScheduled, testNow.Add(24*time.Hour))
	next := testNow.Add(72 * time.Hour)

	a, err := svc.Reschedule(context.Background(), "stu-1", "a1", RescheduleInput{At: &next})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !a.ScheduledAt.Equal(next) || a.Status != model.AppointmentScheduled {
		t.Fatalf("unexpected appointment: %+v", a)
	}
	if !store.appointments["a1"].ScheduledAt.Equal(next) {
		t.Fatalf("new time not stored")
	}
}

func TestRescheduleValidation(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentCancelled, testNow.Add(24*time.Hour))
	past := testNow.Add(-time.Minute)

	if _, err := svc.Reschedule(context.Background(), "stu-1", "a1", RescheduleInput{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for empty input, got %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), "stu-1", "a1", RescheduleInput{At: &past}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for past time, got %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), "stu-1", "a1", RescheduleInput{Notes: strPtr("x")}); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for terminal appointment, got %v", err)
	}
}

func TestSetStatusFollowsTransitions(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(24*time.Hour))

	if _, err := svc.SetStatus(context.Background(), "admin-1", "a1", "bogus", nil); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation, got %v", err)
	}
	a, err := svc.SetStatus(context.Background(), "admin-1", "a1", model.AppointmentScheduled, nil)
	if err != nil {
		t.Fatalf("set scheduled: %v", err)
	}
	if a.Status != model.AppointmentScheduled {
		t.Fatalf("expected scheduled, got %s", a.Status)
	}
	if _, err := svc.SetStatus(context.Background(), "admin-1", "a1", model.AppointmentPending, nil); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict moving back to pending, got %v", err)
	}
}

func TestHistoryOnlyTerminal(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentCompleted, testNow.Add(-48*time.Hour))
	seedAppointment(store, "a2", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(48*time.Hour))
	seedAppointment(store, "a3", "stu-2", "staff-2", model.AppointmentCancelled, testNow.Add(-24*time.Hour))

	got, err := svc.History(context.Background(), "staff-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestSendMessage(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)
	seedAppointment(store, "a1", "stu-1", "staff-1", model.AppointmentPending, testNow.Add(24*time.Hour))
	store.roles["staff-2"] = model.RoleStaff

	n, err := svc.SendMessage(context.Background(), "staff-1", MessageInput{StudentID: "stu-1", AppointmentID: "a1", Content: "please arrive early"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Type != model.NotificationStaffMessage || n.Status != model.NotificationDelivered || n.AppointmentID != "a1" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected delivery")
	}

	if _, err := svc.SendMessage(context.Background(), "staff-1", MessageInput{StudentID: "staff-2", Content: "hi"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for non-student recipient, got %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "staff-1", MessageInput{StudentID: "stu-1", Content: " "}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for empty content, got %v", err)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedSlot(store, "s1", "staff-1")
	a := bookSlot(t, svc, "s1", "stu-1", "staff-1")
	if store.slots["s1"].Status != model.SlotBooked {
		t.Fatalf("slot should be booked after approval")
	}

	if _, err := svc.Cancel(context.Background(), "stu-1", a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if store.slots["s1"].Status != model.SlotAvailable {
		t.Fatalf("slot should be available after cancel, got %s", store.slots["s1"].Status)
	}
	if _, err := svc.Request(context.Background(), "stu-2", RequestInput{SlotID: "s1"}); err != nil {
		t.Fatalf("slot should be bookable again: %v", err)
	}
}

func TestAdminCancelReleasesSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedSlot(store, "s1", "staff-1")
	a := bookSlot(t, svc, "s1", "stu-1", "staff-1")

	if _, err := svc.SetStatus(context.Background(), "admin-1", a.ID, model.AppointmentScheduled, nil); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if store.slots["s1"].Status != model.SlotBooked {
		t.Fatalf("non-cancelling status change must keep the slot booked")
	}
	if _, err := svc.SetStatus(context.Background(), "admin-1", a.ID, model.AppointmentCancelled, nil); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if store.slots["s1"].Status != model.SlotAvailable {
		t.Fatalf("slot should be available after admin cancel, got %s", store.slots["s1"].Status)
	}
}

func TestRescheduleOffSlotReleasesItOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedSlot(store, "s1", "staff-1")
	first := bookSlot(t, svc, "s1", "stu-1", "staff-1")

	later := testNow.Add(72 * time.Hour)
	if _, err := svc.Reschedule(context.Background(), "stu-1", first.ID, RescheduleInput{At: &later}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if store.slots["s1"].Status != model.SlotAvailable {
		t.Fatalf("slot should be freed by reschedule, got %s", store.slots["s1"].Status)
	}

	bookSlot(t, svc, "s1", "stu-2", "staff-1")
	if _, err := svc.Cancel(context.Background(), "stu-1", first.ID); err != nil {
		t.Fatalf("cancel moved appointment: %v", err)
	}
	if store.slots["s1"].Status != model.SlotBooked {
		t.Fatalf("cancelling the moved appointment must not free the other student's slot")
	}
}

func TestRescheduleNotesOnlyKeepsSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})
	seedSlot(store, "s1", "staff-1")
	a := bookSlot(t, svc, "s1", "stu-1", "staff-1")

	if _, err := svc.Reschedule(context.Background(), "stu-1", a.ID, RescheduleInput{Notes: strPtr("running late")}); err != nil {
		t.Fatalf("reschedule notes: %v", err)
	}
	if store.slots["s1"].Status != model.SlotBooked {
		t.Fatalf("notes change must keep the slot booked")
	}
}
