package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
)

const (
	AccountRegistered   = "account.registered"
	AccountUpdated      = "account.updated"
	AccountDeleted      = "account.deleted"
	BookingApproved     = "booking.approved"
	BookingRejected     = "booking.rejected"
	AppointmentStatus   = "appointment.status_changed"
	AppointmentMoved    = "appointment.rescheduled"
	StaffMessageSent    = "staff.message_sent"
	SettingsUpdated     = "settings.updated"
	FAQChanged          = "faq.changed"
	AnnouncementCreated = "announcement.created"
	FeedbackModerated   = "feedback.moderated"
	SlotCreated         = "slot.created"
	SlotDeleted         = "slot.deleted"
)

// Entry is one audit record. ActorID may be empty for system actions.
type Entry struct {
	EventType string
	ActorID   string
	Metadata  map[string]any
}

// Execer is satisfied by both the pool and an open transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record writes e through q; pass the workflow's transaction so the audit row
// commits or rolls back with the change it describes.
func (r *Repository) Record(ctx context.Context, q Execer, e Entry) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO audit_events (event_type, actor_id, metadata)
		VALUES ($1, NULLIF($2, '')::uuid, $3)
	`, e.EventType, e.ActorID, raw)
	return err
}

type AuditEvent struct {
	ID        int64
	EventType string
	ActorID   string
	Metadata  json.RawMessage
	CreatedAt time.Time
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, COALESCE(actor_id::text, ''), metadata, created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.ActorID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
