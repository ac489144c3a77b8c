package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
)

func TestMapErr(t *testing.T) {
	plain := errors.New("connection refused")
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
		msg  string
	}{
		{"no rows", pgx.ErrNoRows, apperr.KindNotFound, "booking not found"},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.KindNotFound, "booking not found"},
		{"unique email", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}, apperr.KindConflict, "email already registered"},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, apperr.KindConflict, "slot overlaps an existing slot"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperr.KindValidation, "referenced record does not exist"},
		{"malformed id", &pgconn.PgError{Code: "22P02"}, apperr.KindNotFound, "booking not found"},
		{"other", plain, apperr.KindDependency, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapErr(tc.err, "booking not found")
			if apperr.KindOf(got) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, got)
			}
			if apperr.Message(got) != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, apperr.Message(got))
			}
		})
	}
	if mapErr(nil, "x") != nil {
		t.Fatalf("nil must stay nil")
	}
	if got := mapErr(plain, ""); got != plain {
		t.Fatalf("untyped errors must pass through unchanged")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	body, err := migrationFiles.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("empty migration")
	}
}
