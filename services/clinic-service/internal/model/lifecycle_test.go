package model

import "testing"

func TestAppointmentTransitions(t *testing.T) {
	allowed := [][2]string{
		{AppointmentPending, AppointmentCompleted},
		{AppointmentPending, AppointmentCancelled},
		{AppointmentPending, AppointmentScheduled},
		{AppointmentScheduled, AppointmentCancelled},
		{AppointmentScheduled, AppointmentCompleted},
	}
	for _, tr := range allowed {
		if !CanTransitionAppointment(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	for _, from := range []string{AppointmentCompleted, AppointmentCancelled, AppointmentRejected} {
		if !IsTerminalAppointment(from) {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, to := range []string{AppointmentPending, AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentRejected} {
			if CanTransitionAppointment(from, to) {
				t.Fatalf("expected %s -> %s to be rejected", from, to)
			}
		}
	}

	if CanTransitionAppointment(AppointmentPending, AppointmentRejected) {
		t.Fatal("rejected must not be reachable from pending")
	}
	if IsTerminalAppointment(AppointmentPending) {
		t.Fatal("pending is not terminal")
	}
}
