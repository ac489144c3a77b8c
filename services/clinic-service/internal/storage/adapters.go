package storage

import (
	"context"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/accounts"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/notify"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/scheduling"
)

var (
	_ booking.Tx    = (*Tx)(nil)
	_ scheduling.Tx = (*Tx)(nil)
	_ accounts.Tx   = (*Tx)(nil)
	_ content.Tx    = (*Tx)(nil)

	_ booking.Store    = bookingStore{}
	_ scheduling.Store = schedulingStore{}
	_ accounts.Store   = accountsStore{}
	_ content.Store    = contentStore{}
	_ notify.PhoneBook = (*Store)(nil)
)

// The adapters below narrow *Store to each workflow's store interface; they
// differ only in the transaction type handed to fn.

type bookingStore struct{ *Store }

func (s *Store) Booking() booking.Store { return bookingStore{s} }

func (s bookingStore) InTx(ctx context.Context, fn func(booking.Tx) error) error {
	return s.Store.InTx(ctx, func(tx *Tx) error { return fn(tx) })
}

type schedulingStore struct{ *Store }

func (s *Store) Scheduling() scheduling.Store { return schedulingStore{s} }

func (s schedulingStore) InTx(ctx context.Context, fn func(scheduling.Tx) error) error {
	return s.Store.InTx(ctx, func(tx *Tx) error { return fn(tx) })
}

type accountsStore struct{ *Store }

func (s *Store) Accounts() accounts.Store { return accountsStore{s} }

func (s accountsStore) InTx(ctx context.Context, fn func(accounts.Tx) error) error {
	return s.Store.InTx(ctx, func(tx *Tx) error { return fn(tx) })
}

type contentStore struct{ *Store }

func (s *Store) Content() content.Store { return contentStore{s} }

func (s contentStore) InTx(ctx context.Context, fn func(content.Tx) error) error {
	return s.Store.InTx(ctx, func(tx *Tx) error { return fn(tx) })
}
