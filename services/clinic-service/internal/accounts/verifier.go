package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

var ErrAccountRevoked = errors.New("account is no longer active")

// LiveVerifier re-reads the account behind every verified token. Tokens of
// accounts that were deactivated, deleted or given another role stop working
// at once instead of at expiry.
type LiveVerifier struct {
	tokens  auth.Verifier
	store   Store
	timeout time.Duration
}

func NewLiveVerifier(tokens auth.Verifier, store Store) *LiveVerifier {
	return &LiveVerifier{tokens: tokens, store: store, timeout: 2 * time.Second}
}

func (v *LiveVerifier) Verify(raw string) (auth.Principal, error) {
	p, err := v.tokens.Verify(raw)
	if err != nil {
		return auth.Principal{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	acct, err := v.store.AccountByID(ctx, p.AccountID)
	if err != nil {
		return auth.Principal{}, err
	}
	if acct.Status != model.AccountActive || acct.Role != p.Role {
		return auth.Principal{}, ErrAccountRevoked
	}
	return p, nil
}
