package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const feedbackColumns = `id::text, account_id::text, COALESCE(appointment_id::text, ''), message, rating, status, submitted_at`

func scanFeedback(row pgx.Row) (model.Feedback, error) {
	var (
		f      model.Feedback
		rating int16
	)
	err := row.Scan(&f.ID, &f.AccountID, &f.AppointmentID, &f.Message, &rating, &f.Status, &f.SubmittedAt)
	f.Rating = int(rating)
	return f, err
}

func (t *Tx) InsertFeedback(ctx context.Context, f model.Feedback) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO feedback (id, account_id, appointment_id, message, rating, status, submitted_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)
	`, f.ID, f.AccountID, f.AppointmentID, f.Message, int16(f.Rating), f.Status, f.SubmittedAt)
	return mapErr(err, "")
}

func (t *Tx) ApproveFeedback(ctx context.Context, id string) (model.Feedback, error) {
	f, err := scanFeedback(t.tx.QueryRow(ctx, `
		UPDATE feedback SET status = 'approved' WHERE id = $1
		RETURNING `+feedbackColumns, id))
	return f, mapErr(err, "feedback not found")
}

func (t *Tx) DeleteFeedback(ctx context.Context, id string) error {
	return deleteByID(ctx, t.tx, `DELETE FROM feedback WHERE id = $1`, id, "feedback not found")
}

func (s *Store) ListFeedback(ctx context.Context, status string) ([]model.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE ($1::text = '' OR status = $1)
		ORDER BY submitted_at DESC, id
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const faqColumns = `id::text, question, answer, category, created_at, updated_at`

func scanFAQ(row pgx.Row) (model.FAQ, error) {
	var f model.FAQ
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (s *Store) ListFAQs(ctx context.Context, category string) ([]model.FAQ, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+faqColumns+`
		FROM faqs
		WHERE ($1::text = '' OR category = $1)
		ORDER BY category, created_at, id
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.FAQ
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (t *Tx) InsertFAQ(ctx context.Context, f model.FAQ) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO faqs (id, question, answer, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, f.ID, f.Question, f.Answer, f.Category, f.CreatedAt, f.UpdatedAt)
	return mapErr(err, "")
}

// UpdateFAQ keeps the stored value of every nil field.
func (t *Tx) UpdateFAQ(ctx context.Context, id string, question, answer, category *string, at time.Time) (model.FAQ, error) {
	f, err := scanFAQ(t.tx.QueryRow(ctx, `
		UPDATE faqs
		SET question = COALESCE($2, question),
			answer = COALESCE($3, answer),
			category = COALESCE($4, category),
			updated_at = $5
		WHERE id = $1
		RETURNING `+faqColumns, id, question, answer, category, at))
	return f, mapErr(err, "faq not found")
}

func (t *Tx) DeleteFAQ(ctx context.Context, id string) error {
	return deleteByID(ctx, t.tx, `DELETE FROM faqs WHERE id = $1`, id, "faq not found")
}

func (t *Tx) InsertAnnouncement(ctx context.Context, a model.Announcement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO announcements (id, title, body, author_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
	`, a.ID, a.Title, a.Body, a.AuthorID, a.CreatedAt)
	return mapErr(err, "")
}

func (s *Store) ListAnnouncements(ctx context.Context, limit int) ([]model.Announcement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, title, body, COALESCE(author_id::text, ''), created_at
		FROM announcements
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *Tx) UpsertSetting(ctx context.Context, key, value string, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value, at)
	return mapErr(err, "")
}

func (s *Store) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Setting
	for rows.Next() {
		var st model.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Report aggregates counts for the admin dashboard.
func (s *Store) Report(ctx context.Context) (content.Report, error) {
	r := content.Report{
		AccountsByRole:       map[string]int{},
		BookingsByStatus:     map[string]int{},
		AppointmentsByStatus: map[string]int{},
	}
	groups := []struct {
		sql string
		dst map[string]int
	}{
		{`SELECT role, count(*) FROM accounts GROUP BY role`, r.AccountsByRole},
		{`SELECT status, count(*) FROM bookings GROUP BY status`, r.BookingsByStatus},
		{`SELECT status, count(*) FROM appointments GROUP BY status`, r.AppointmentsByStatus},
	}
	for _, g := range groups {
		if err := countInto(ctx, s.pool, g.sql, g.dst); err != nil {
			return content.Report{}, err
		}
	}
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(avg(rating), 0)::float8 FROM feedback
	`).Scan(&r.FeedbackCount, &r.AverageRating)
	if err != nil {
		return content.Report{}, err
	}
	return r, nil
}

func countInto(ctx context.Context, q querier, sql string, dst map[string]int) error {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = int(n)
	}
	return rows.Err()
}

func (s *Store) ListAudit(ctx context.Context, limit int) ([]audit.AuditEvent, error) {
	return s.audit.ListRecent(ctx, limit)
}

func deleteByID(ctx context.Context, q querier, sql, id, notFound string) error {
	tag, err := q.Exec(ctx, sql, id)
	if err != nil {
		return mapErr(err, notFound)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
