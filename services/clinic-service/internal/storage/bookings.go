package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const bookingColumns = `id::text, student_id::text, COALESCE(slot_id::text, ''), requested_at, reason, status,
	COALESCE(staff_id::text, ''), created_at, processed_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.StudentID, &b.SlotID, &b.RequestedAt, &b.Reason, &b.Status, &b.StaffID, &b.CreatedAt, &b.ProcessedAt)
	return b, err
}

func collectBookings(rows pgx.Rows, err error) ([]model.Booking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) ListBookingsByStudent(ctx context.Context, studentID string) ([]model.Booking, error) {
	return collectBookings(s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE student_id = $1
		ORDER BY created_at DESC, id
	`, studentID))
}

func (s *Store) ListRequestedBookings(ctx context.Context, limit int) ([]model.Booking, error) {
	return collectBookings(s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'requested'
		ORDER BY created_at, id
		LIMIT $1
	`, limit))
}

func (t *Tx) GetBookingForUpdate(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRow(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE
	`, id))
	return b, mapErr(err, "booking not found")
}

func (t *Tx) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO bookings (id, student_id, slot_id, requested_at, reason, status, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)
	`, b.ID, b.StudentID, b.SlotID, b.RequestedAt, b.Reason, b.Status, b.CreatedAt)
	return mapErr(err, "")
}

// DecideBooking only updates a booking that is still requested; the status
// predicate backs the check made under the row lock.
func (t *Tx) DecideBooking(ctx context.Context, id, status, staffID string, processedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, staff_id = $3, processed_at = $4
		WHERE id = $1 AND status = 'requested'
	`, id, status, staffID, processedAt)
	if err != nil {
		return mapErr(err, "booking not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("booking is no longer requested")
	}
	return nil
}

const appointmentColumns = `id::text, booking_id::text, student_id::text, COALESCE(staff_id::text, ''), scheduled_at, status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.BookingID, &a.StudentID, &a.StaffID, &a.ScheduledAt, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectAppointments(rows pgx.Rows, err error) ([]model.Appointment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListAppointmentsByStudent(ctx context.Context, studentID string) ([]model.Appointment, error) {
	return collectAppointments(s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE student_id = $1
		ORDER BY scheduled_at DESC, id
	`, studentID))
}

func (s *Store) ListAppointmentsByStaff(ctx context.Context, staffID string, statuses []string) ([]model.Appointment, error) {
	return collectAppointments(s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1 AND status = ANY($2::text[])
		ORDER BY scheduled_at DESC, id
	`, staffID, statuses))
}

func (s *Store) ListAppointments(ctx context.Context, status string, limit int) ([]model.Appointment, error) {
	return collectAppointments(s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::text = '' OR status = $1)
		ORDER BY scheduled_at DESC, id
		LIMIT $2
	`, status, limit))
}

// AppointmentByID reads an appointment outside any transaction.
func (s *Store) AppointmentByID(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1
	`, id))
	return a, mapErr(err, "appointment not found")
}

func (t *Tx) InsertAppointment(ctx context.Context, a model.Appointment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO appointments (id, booking_id, student_id, staff_id, scheduled_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)
	`, a.ID, a.BookingID, a.StudentID, a.StaffID, a.ScheduledAt, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	return mapErr(err, "")
}

func (t *Tx) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE
	`, id))
	return a, mapErr(err, "appointment not found")
}

func (t *Tx) SetAppointmentStatus(ctx context.Context, id, status, notes string, updatedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments SET status = $2, notes = $3, updated_at = $4 WHERE id = $1
	`, id, status, notes, updatedAt)
	if err != nil {
		return mapErr(err, "appointment not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

func (t *Tx) RescheduleAppointment(ctx context.Context, id string, at time.Time, notes string, updatedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments SET scheduled_at = $2, notes = $3, updated_at = $4 WHERE id = $1
	`, id, at, notes, updatedAt)
	if err != nil {
		return mapErr(err, "appointment not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

const notificationColumns = `id::text, COALESCE(appointment_id::text, ''), recipient_id::text, COALESCE(sender_id::text, ''), type, content, status, sent_at`

func (t *Tx) InsertNotification(ctx context.Context, n model.Notification) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO notifications (id, appointment_id, recipient_id, sender_id, type, content, status, sent_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8)
	`, n.ID, n.AppointmentID, n.RecipientID, n.SenderID, n.Type, n.Content, n.Status, n.SentAt)
	return mapErr(err, "")
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY sent_at DESC, id
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.AppointmentID, &n.RecipientID, &n.SenderID, &n.Type, &n.Content, &n.Status, &n.SentAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
