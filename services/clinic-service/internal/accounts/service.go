// Package accounts handles registration, login, profiles and the admin user
// directory.
package accounts

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

type Signer interface {
	Sign(p auth.Principal) (string, error)
}

type Service struct {
	store  Store
	signer Signer
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, signer Signer, opts ...Option) *Service {
	s := &Service{store: store, signer: signer, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is a signed token and the account it was issued for.
type Session struct {
	Token   string
	Account model.Account
}

type RegisterInput struct {
	Email         string
	Password      string
	FullName      string
	Phone         string
	Role          string
	StudentNumber string
	Position      string
}

// Register creates an account and its role row. Staff and admin accounts
// can only be created by an authenticated admin. A self-registration gets a
// token; an admin creating an account gets only the account.
func (s *Service) Register(ctx context.Context, caller *auth.Principal, in RegisterInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)
	in.StudentNumber = strings.TrimSpace(in.StudentNumber)
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if !auth.ValidRole(in.Role) {
		return Session{}, apperr.Validation("role must be student, staff or admin")
	}
	if in.Role != model.RoleStudent && (caller == nil || caller.Role != model.RoleAdmin) {
		return Session{}, apperr.Forbidden("only an admin can create staff accounts")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return Session{}, apperr.Validation("a valid email is required")
	}
	if in.FullName == "" {
		return Session{}, apperr.Validation("full_name is required")
	}
	if in.Role == model.RoleStudent && in.StudentNumber == "" {
		return Session{}, apperr.Validation("student_number is required for students")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return Session{}, apperr.Validation(err.Error())
		}
		return Session{}, apperr.Dependency("hash password", err)
	}

	now := s.now().UTC()
	acct := model.Account{
		ID:           s.newID(),
		Email:        in.Email,
		Phone:        in.Phone,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       model.AccountActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	actor := acct.ID
	if caller != nil {
		actor = caller.AccountID
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertAccount(ctx, acct); err != nil {
			return err
		}
		if acct.Role == model.RoleStudent {
			if err := tx.InsertStudent(ctx, model.Student{AccountID: acct.ID, StudentNumber: in.StudentNumber}); err != nil {
				return err
			}
		} else {
			if err := tx.UpsertStaff(ctx, model.Staff{AccountID: acct.ID, Position: strings.TrimSpace(in.Position), IsAdmin: acct.Role == model.RoleAdmin}); err != nil {
				return err
			}
		}
		evt, err := outbox.NewEvent("account", acct.ID, outbox.AccountRegistered, map[string]any{
			"account_id": acct.ID,
			"role":       acct.Role,
			"email":      acct.Email,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AccountRegistered,
			ActorID:   actor,
			Metadata:  map[string]any{"account_id": acct.ID, "role": acct.Role},
		})
	})
	if err != nil {
		return Session{}, dependency("register account", err)
	}
	if caller != nil && caller.Role == model.RoleAdmin {
		return Session{Account: acct}, nil
	}
	return s.session(acct)
}

// Login checks credentials. Unknown email and wrong password look the same.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, apperr.Validation("email and password are required")
	}
	acct, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Session{}, apperr.Unauthorized("invalid email or password")
		}
		return Session{}, dependency("login", err)
	}
	if !auth.CheckPassword(acct.PasswordHash, password) {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	if acct.Status != model.AccountActive {
		return Session{}, apperr.Forbidden("account is inactive")
	}
	return s.session(acct)
}

func (s *Service) session(acct model.Account) (Session, error) {
	token, err := s.signer.Sign(auth.Principal{
		AccountID: acct.ID,
		Role:      acct.Role,
		Email:     acct.Email,
		Name:      acct.FullName,
	})
	if err != nil {
		return Session{}, apperr.Dependency("sign token", err)
	}
	return Session{Token: token, Account: acct}, nil
}

func (s *Service) Profile(ctx context.Context, accountID string) (model.Account, error) {
	a, err := s.store.AccountByID(ctx, accountID)
	return a, dependency("load profile", err)
}

func (s *Service) StudentProfile(ctx context.Context, studentID string) (model.StudentProfile, error) {
	p, err := s.store.StudentProfile(ctx, studentID)
	return p, dependency("load student", err)
}

type ProfileInput struct {
	FullName *string
	Phone    *string
}

func (s *Service) UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (model.Account, error) {
	if in.FullName == nil && in.Phone == nil {
		return model.Account{}, apperr.Validation("full_name or phone is required")
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return model.Account{}, apperr.Validation("full_name must not be empty")
		}
		in.FullName = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}

	var out model.Account
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.UpdateProfile(ctx, accountID, in.FullName, in.Phone, s.now().UTC())
		if err != nil {
			return err
		}
		out = a
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AccountUpdated,
			ActorID:   accountID,
			Metadata:  map[string]any{"account_id": accountID, "fields": "profile"},
		})
	})
	if err != nil {
		return model.Account{}, dependency("update profile", err)
	}
	return out, nil
}

func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("current_password and new_password are required")
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return apperr.Validation(err.Error())
		}
		return apperr.Dependency("hash password", err)
	}
	err = s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(a.PasswordHash, current) {
			return apperr.Unauthorized("current password is incorrect")
		}
		if err := tx.UpdatePassword(ctx, accountID, hash, s.now().UTC()); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AccountUpdated,
			ActorID:   accountID,
			Metadata:  map[string]any{"account_id": accountID, "fields": "password"},
		})
	})
	return dependency("change password", err)
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]model.Account, error) {
	if role != "" && !auth.ValidRole(role) {
		return nil, apperr.Validation("unknown role")
	}
	out, err := s.store.ListAccounts(ctx, role)
	return out, dependency("list users", err)
}

type UserUpdate struct {
	Role   *string
	Status *string
}

// UpdateUser changes role and/or status. Role changes are limited to staff
// and admin, since a student account needs a student record.
func (s *Service) UpdateUser(ctx context.Context, adminID, userID string, in UserUpdate) (model.Account, error) {
	if in.Role == nil && in.Status == nil {
		return model.Account{}, apperr.Validation("role or status is required")
	}
	if in.Status != nil && *in.Status != model.AccountActive && *in.Status != model.AccountInactive {
		return model.Account{}, apperr.Validation("status must be active or inactive")
	}
	if in.Role != nil && *in.Role != model.RoleStaff && *in.Role != model.RoleAdmin {
		return model.Account{}, apperr.Validation("role can only be changed to staff or admin")
	}
	if userID == adminID && in.Status != nil && *in.Status == model.AccountInactive {
		return model.Account{}, apperr.Conflict("cannot deactivate your own account")
	}

	var out model.Account
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.AccountForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if in.Role != nil && current.Role == model.RoleStudent {
			return apperr.Conflict("student accounts cannot change role")
		}
		a, err := tx.UpdateRoleStatus(ctx, userID, in.Role, in.Status, s.now().UTC())
		if err != nil {
			return err
		}
		if in.Role != nil {
			if err := tx.UpsertStaff(ctx, model.Staff{AccountID: userID, IsAdmin: *in.Role == model.RoleAdmin}); err != nil {
				return err
			}
		}
		out = a
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AccountUpdated,
			ActorID:   adminID,
			Metadata:  map[string]any{"account_id": userID, "role": a.Role, "status": a.Status},
		})
	})
	if err != nil {
		return model.Account{}, dependency("update user", err)
	}
	return out, nil
}

func (s *Service) DeleteUser(ctx context.Context, adminID, userID string) error {
	if userID == adminID {
		return apperr.Conflict("cannot delete your own account")
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteAccount(ctx, userID); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			EventType: audit.AccountDeleted,
			ActorID:   adminID,
			Metadata:  map[string]any{"account_id": userID},
		})
	})
	return dependency("delete user", err)
}

func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Dependency(op, err)
}
