// Package storage holds the PostgreSQL repositories of the clinic service.
package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

const (
	pgUniqueViolation     = "23505"
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// Store is the entry point for all reads and writes. Transactional work goes
// through InTx so every repository call in fn shares one pgx.Tx.
type Store struct {
	pool   *db.Pool
	audit  *audit.Repository
	outbox *outbox.Repository
}

func New(pool *db.Pool) *Store {
	return &Store{
		pool:   pool,
		audit:  audit.NewRepository(pool),
		outbox: outbox.NewRepository(),
	}
}

func (s *Store) Pool() *db.Pool { return s.pool }

func (s *Store) Audit() *audit.Repository { return s.audit }

// Tx is an open transaction with the clinic repositories bound to it.
type Tx struct {
	tx    pgx.Tx
	store *Store
}

func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&Tx{tx: tx, store: s})
	})
}

func (t *Tx) AppendEvent(ctx context.Context, evt outbox.Event) error {
	return mapErr(t.store.outbox.Insert(ctx, t.tx, evt), "")
}

func (t *Tx) RecordAudit(ctx context.Context, e audit.Entry) error {
	return mapErr(t.store.audit.Record(ctx, t.tx, e), "")
}

// mapErr converts driver errors into apperr kinds. notFound is the message
// used for pgx.ErrNoRows; other errors pass through unchanged so the caller
// reports them as dependency failures.
func mapErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if notFound == "" {
			notFound = "not found"
		}
		return apperr.NotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Conflict(conflictMessage(pgErr.ConstraintName))
		case pgExclusionViolation:
			return apperr.Conflict("slot overlaps an existing slot")
		case pgForeignKeyViolation:
			return apperr.Validation("referenced record does not exist")
		case pgInvalidText:
			if notFound != "" {
				return apperr.NotFound(notFound)
			}
			return apperr.Validation("malformed identifier")
		}
	}
	return err
}

func conflictMessage(constraint string) string {
	switch constraint {
	case "accounts_email_key":
		return "email already registered"
	case "students_student_number_key":
		return "student number already registered"
	case "appointments_booking_id_key":
		return "booking already has an appointment"
	default:
		return "record already exists"
	}
}
