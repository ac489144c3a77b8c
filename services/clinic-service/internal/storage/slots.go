package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const slotColumns = `id::text, staff_id::text, slot_date, start_minute, end_minute, status, created_at`

func scanSlot(row pgx.Row) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(&s.ID, &s.StaffID, &s.Date, &s.StartMinute, &s.EndMinute, &s.Status, &s.CreatedAt)
	return s, err
}

func collectSlots(rows pgx.Rows, err error) ([]model.TimeSlot, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// calendarDate drops the clock and zone of t, keeping its calendar date, so
// the value is encoded as the same DATE regardless of location.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Store) ListSlots(ctx context.Context, staffID string, from, to *time.Time) ([]model.TimeSlot, error) {
	var lo, hi *time.Time
	if from != nil {
		d := calendarDate(*from)
		lo = &d
	}
	if to != nil {
		d := calendarDate(*to)
		hi = &d
	}
	return collectSlots(s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE staff_id = $1
			AND ($2::date IS NULL OR slot_date >= $2::date)
			AND ($3::date IS NULL OR slot_date <= $3::date)
		ORDER BY slot_date, start_minute, id
	`, staffID, lo, hi))
}

// LockStaffDate takes a transaction-scoped advisory lock on the staff and
// date pair.
func (t *Tx) LockStaffDate(ctx context.Context, staffID string, date time.Time) error {
	_, err := t.tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtext($1::text || '/' || $2::text))
	`, staffID, calendarDate(date).Format("2006-01-02"))
	return err
}

func (t *Tx) ListSlotsForStaffDate(ctx context.Context, staffID string, date time.Time) ([]model.TimeSlot, error) {
	return collectSlots(t.tx.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE staff_id = $1 AND slot_date = $2
		ORDER BY start_minute
	`, staffID, calendarDate(date)))
}

func (t *Tx) InsertSlot(ctx context.Context, s model.TimeSlot) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO time_slots (id, staff_id, slot_date, start_minute, end_minute, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.StaffID, calendarDate(s.Date), s.StartMinute, s.EndMinute, s.Status, s.CreatedAt)
	return mapErr(err, "")
}

func (t *Tx) GetSlotForUpdate(ctx context.Context, id string) (model.TimeSlot, error) {
	s, err := scanSlot(t.tx.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM time_slots WHERE id = $1 FOR UPDATE
	`, id))
	return s, mapErr(err, "slot not found")
}

func (t *Tx) SetSlotStatus(ctx context.Context, id, status string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE time_slots SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return mapErr(err, "slot not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("slot not found")
	}
	return nil
}

func (t *Tx) DeleteSlot(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "slot not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("slot not found")
	}
	return nil
}

const scheduleColumns = `id::text, staff_id::text, weekday, start_minute, end_minute, status`

func scanSchedule(row pgx.Row) (model.Schedule, error) {
	var (
		s       model.Schedule
		weekday int16
	)
	err := row.Scan(&s.ID, &s.StaffID, &weekday, &s.StartMinute, &s.EndMinute, &s.Status)
	s.Weekday = time.Weekday(weekday)
	return s, err
}

func collectSchedules(rows pgx.Rows, err error) ([]model.Schedule, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *Store) ListSchedules(ctx context.Context, staffID string) ([]model.Schedule, error) {
	return collectSchedules(s.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE staff_id = $1
		ORDER BY weekday, start_minute
	`, staffID))
}

// ListSchedulesForWeekday also locks the staff and weekday pair, so the
// overlap check and the upsert that follows are not interleaved.
func (t *Tx) ListSchedulesForWeekday(ctx context.Context, staffID string, weekday time.Weekday) ([]model.Schedule, error) {
	if _, err := t.tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtext($1::text || '/weekday/' || $2::text))
	`, staffID, strconv.Itoa(int(weekday))); err != nil {
		return nil, err
	}
	return collectSchedules(t.tx.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE staff_id = $1 AND weekday = $2
		ORDER BY start_minute
	`, staffID, int16(weekday)))
}

func (t *Tx) UpsertSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error) {
	out, err := scanSchedule(t.tx.QueryRow(ctx, `
		INSERT INTO schedules (id, staff_id, weekday, start_minute, end_minute, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (staff_id, weekday, start_minute)
		DO UPDATE SET end_minute = EXCLUDED.end_minute, status = EXCLUDED.status
		RETURNING `+scheduleColumns,
		s.ID, s.StaffID, int16(s.Weekday), s.StartMinute, s.EndMinute, s.Status))
	return out, mapErr(err, "")
}
