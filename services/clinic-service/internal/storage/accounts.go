package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

// querier is satisfied by the pool and by an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id::text, email, phone, full_name, password_hash, role, status, created_at, updated_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.Phone, &a.FullName, &a.PasswordHash, &a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (model.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE lower(email) = lower($1)
	`, email))
	return a, mapErr(err, "account not found")
}

func (s *Store) AccountByID(ctx context.Context, id string) (model.Account, error) {
	a, err := accountByID(ctx, s.pool, id, false)
	return a, mapErr(err, "account not found")
}

func accountByID(ctx context.Context, q querier, id string, forUpdate bool) (model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	return scanAccount(q.QueryRow(ctx, sql, id))
}

// PhoneNumber returns the account's phone, or "" when none is stored.
func (s *Store) PhoneNumber(ctx context.Context, accountID string) (string, error) {
	var phone string
	err := s.pool.QueryRow(ctx, `SELECT phone FROM accounts WHERE id = $1`, accountID).Scan(&phone)
	return phone, mapErr(err, "account not found")
}

func (s *Store) StudentProfile(ctx context.Context, accountID string) (model.StudentProfile, error) {
	var p model.StudentProfile
	err := s.pool.QueryRow(ctx, `
		SELECT a.id::text, a.email, a.phone, a.full_name, a.password_hash, a.role, a.status, a.created_at, a.updated_at,
			s.student_number
		FROM accounts a
		JOIN students s ON s.account_id = a.id
		WHERE a.id = $1
	`, accountID).Scan(&p.ID, &p.Email, &p.Phone, &p.FullName, &p.PasswordHash, &p.Role, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.StudentNumber)
	return p, mapErr(err, "student not found")
}

// ListAccounts lists accounts, optionally restricted to one role.
func (s *Store) ListAccounts(ctx context.Context, role string) ([]model.Account, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if role == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 ORDER BY created_at, id`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) StaffExists(ctx context.Context, staffID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accounts a JOIN staff st ON st.account_id = a.id
			WHERE a.id = $1 AND a.status = 'active'
		)
	`, staffID).Scan(&exists)
	if mapped := mapErr(err, "staff member not found"); apperr.Is(mapped, apperr.KindNotFound) {
		return false, nil
	}
	return exists, err
}

func (t *Tx) InsertAccount(ctx context.Context, a model.Account) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (id, email, phone, full_name, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, a.ID, a.Email, a.Phone, a.FullName, a.PasswordHash, a.Role, a.Status, a.CreatedAt)
	return mapErr(err, "")
}

func (t *Tx) InsertStudent(ctx context.Context, st model.Student) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO students (account_id, student_number) VALUES ($1, $2)
	`, st.AccountID, st.StudentNumber)
	return mapErr(err, "")
}

// UpsertStaff creates the staff row or updates its admin flag.
func (t *Tx) UpsertStaff(ctx context.Context, st model.Staff) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO staff (account_id, position, is_admin) VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET is_admin = EXCLUDED.is_admin
	`, st.AccountID, st.Position, st.IsAdmin)
	return mapErr(err, "")
}

func (t *Tx) AccountForUpdate(ctx context.Context, id string) (model.Account, error) {
	a, err := accountByID(ctx, t.tx, id, true)
	return a, mapErr(err, "account not found")
}

func (t *Tx) AccountRole(ctx context.Context, accountID string) (string, error) {
	var role string
	err := t.tx.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, accountID).Scan(&role)
	return role, mapErr(err, "account not found")
}

// UpdateProfile changes full name, phone or both. Each combination has its
// own statement; nil fields are left untouched.
func (t *Tx) UpdateProfile(ctx context.Context, id string, fullName, phone *string, at time.Time) (model.Account, error) {
	var row pgx.Row
	switch {
	case fullName != nil && phone != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET full_name = $2, phone = $3, updated_at = $4
			WHERE id = $1
			RETURNING `+accountColumns, id, *fullName, *phone, at)
	case fullName != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET full_name = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+accountColumns, id, *fullName, at)
	case phone != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET phone = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+accountColumns, id, *phone, at)
	default:
		return model.Account{}, apperr.Validation("nothing to update")
	}
	a, err := scanAccount(row)
	return a, mapErr(err, "account not found")
}

func (t *Tx) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, hash, at)
	if err != nil {
		return mapErr(err, "account not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// UpdateRoleStatus is the administrative change of role and/or status.
func (t *Tx) UpdateRoleStatus(ctx context.Context, id string, role, status *string, at time.Time) (model.Account, error) {
	var row pgx.Row
	switch {
	case role != nil && status != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET role = $2, status = $3, updated_at = $4
			WHERE id = $1
			RETURNING `+accountColumns, id, *role, *status, at)
	case role != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET role = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+accountColumns, id, *role, at)
	case status != nil:
		row = t.tx.QueryRow(ctx, `
			UPDATE accounts SET status = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+accountColumns, id, *status, at)
	default:
		return model.Account{}, apperr.Validation("nothing to update")
	}
	a, err := scanAccount(row)
	return a, mapErr(err, "account not found")
}

func (t *Tx) DeleteAccount(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "account not found")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}
