package model

// appointmentTransitions lists the allowed status moves. Statuses missing
// from the map (completed, cancelled, rejected) are terminal.
var appointmentTransitions = map[string][]string{
	AppointmentPending:   {AppointmentScheduled, AppointmentCompleted, AppointmentCancelled},
	AppointmentScheduled: {AppointmentCompleted, AppointmentCancelled},
}

func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentPending, AppointmentCompleted, AppointmentCancelled, AppointmentRejected:
		return true
	}
	return false
}

func IsTerminalAppointment(s string) bool {
	_, ok := appointmentTransitions[s]
	return !ok
}

func CanTransitionAppointment(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
