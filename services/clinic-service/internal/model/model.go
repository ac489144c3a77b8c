package model

import "time"

const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"

	AccountActive   = "active"
	AccountInactive = "inactive"
)

type Account struct {
	ID           string
	Email        string
	Phone        string
	FullName     string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Student struct {
	AccountID     string
	StudentNumber string
}

type Staff struct {
	AccountID string
	Position  string
	IsAdmin   bool
}

// StudentProfile is a student account joined with its student row.
type StudentProfile struct {
	Account
	StudentNumber string
}

const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
)

// TimeSlot is staff availability on one calendar date. Start and End are
// minutes after midnight and form the half-open interval [Start, End).
type TimeSlot struct {
	ID          string
	StaffID     string
	Date        time.Time
	StartMinute int
	EndMinute   int
	Status      string
	CreatedAt   time.Time
}

const (
	ScheduleAvailable   = "available"
	ScheduleUnavailable = "unavailable"
)

// Schedule is one recurring weekly window. Weekday follows time.Weekday.
type Schedule struct {
	ID          string
	StaffID     string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Status      string
}

const (
	BookingRequested = "requested"
	BookingApproved  = "approved"
	BookingRejected  = "rejected"
)

type Booking struct {
	ID          string
	StudentID   string
	SlotID      string
	RequestedAt time.Time
	Reason      string
	Status      string
	StaffID     string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

const (
	AppointmentScheduled = "scheduled"
	AppointmentPending   = "pending"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentRejected  = "rejected"
)

type Appointment struct {
	ID          string
	BookingID   string
	StudentID   string
	StaffID     string
	ScheduledAt time.Time
	Status      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	NotificationUnread    = "unread"
	NotificationDelivered = "delivered"
	NotificationSent      = "sent"

	NotificationBookingApproved      = "booking_approved"
	NotificationBookingRejected      = "booking_rejected"
	NotificationAppointmentCompleted = "appointment_completed"
	NotificationAppointmentCancelled = "appointment_cancelled"
	NotificationStaffMessage         = "staff_message"
)

// Notification is immutable once stored. AppointmentID is empty when the
// notification is not tied to an appointment.
type Notification struct {
	ID            string
	AppointmentID string
	RecipientID   string
	SenderID      string
	Type          string
	Content       string
	Status        string
	SentAt        time.Time
}

const (
	FeedbackPending  = "pending"
	FeedbackApproved = "approved"
)

type Feedback struct {
	ID            string
	AccountID     string
	AppointmentID string
	Message       string
	Rating        int
	Status        string
	SubmittedAt   time.Time
}

type FAQ struct {
	ID        string
	Question  string
	Answer    string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Announcement struct {
	ID        string
	Title     string
	Body      string
	AuthorID  string
	CreatedAt time.Time
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
