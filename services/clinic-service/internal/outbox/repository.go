package outbox

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/md-rashed-zaman/campusclinic/libs/otel"
)

// Record is an unpublished outbox row. Column order matches selectPending.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	Attempts      int
	CreatedAt     time.Time
}

const selectPending = `
	SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload,
	       traceparent, tracestate, attempts, created_at
	FROM outbox_events
	WHERE published_at IS NULL AND next_attempt_at <= now()
	ORDER BY id
	LIMIT $1
	FOR UPDATE SKIP LOCKED`

// Repository reads and writes outbox_events through whatever transaction
// the caller holds.
type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

// Insert stores evt next to the workflow's own writes. The active trace
// context is kept on the row so publishing continues the same trace.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	tc := otelx.Capture(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, tc.Parent, tc.State)
	return err
}

// Due locks up to limit rows whose retry time has come. Rows locked by a
// concurrent publisher are skipped.
func (r *Repository) Due(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, selectPending, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Record])
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events SET published_at = now(), last_error = ''
		WHERE id = ANY($1)
	`, ids)
	return err
}

// Postpone records a failed attempt for one row and moves its next try to
// retryAt.
func (r *Repository) Postpone(ctx context.Context, tx pgx.Tx, id int64, retryAt time.Time, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3
		WHERE id = $1 AND published_at IS NULL
	`, id, truncateReason(reason), retryAt)
	return err
}

func truncateReason(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}
