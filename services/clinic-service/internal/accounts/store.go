package accounts

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/audit"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
)

type Tx interface {
	InsertAccount(ctx context.Context, a model.Account) error
	InsertStudent(ctx context.Context, s model.Student) error
	UpsertStaff(ctx context.Context, s model.Staff) error
	AccountForUpdate(ctx context.Context, id string) (model.Account, error)
	UpdateProfile(ctx context.Context, id string, fullName, phone *string, at time.Time) (model.Account, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	UpdateRoleStatus(ctx context.Context, id string, role, status *string, at time.Time) (model.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	AppendEvent(ctx context.Context, evt outbox.Event) error
	RecordAudit(ctx context.Context, e audit.Entry) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	AccountByEmail(ctx context.Context, email string) (model.Account, error)
	AccountByID(ctx context.Context, id string) (model.Account, error)
	StudentProfile(ctx context.Context, id string) (model.StudentProfile, error)
	ListAccounts(ctx context.Context, role string) ([]model.Account, error)
}
