package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brisa-pay/brisa_pay/internal/notification"
	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

// maxConflictRetries bounds how often an operation is replayed against fresh
// state after a version conflict before it is reported as transient.
const maxConflictRetries = 3

// Service orchestrates money movements over the ledger store. It validates
// inputs before any mutation, retries version conflicts with fresh state, and
// notifies the receiving owner after a transfer commits.
type Service struct {
	store    Ledger
	notifier notification.Notifier
}

// NewService constructs the ledger service.
func NewService(store Ledger, notifier notification.Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Deposit credits the wallet by amount and returns the new balance together
// with the recorded transaction.
func (s *Service) Deposit(ctx context.Context, w wallet.Wallet, amount decimal.Decimal) (decimal.Decimal, Transaction, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, Transaction{}, ErrInvalidAmount
	}

	var (
		newBalance decimal.Decimal
		txn        Transaction
	)
	err := s.withConflictRetry(func() error {
		var err error
		newBalance, txn, err = s.store.Deposit(ctx, w.ID, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, Transaction{}, err
	}
	return newBalance, txn, nil
}

// Transfer moves amount from one wallet to another as a single atomic unit.
func (s *Service) Transfer(ctx context.Context, amount decimal.Decimal, from, to wallet.Wallet) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if from.ID == to.ID {
		return Transaction{}, ErrSameWallet
	}

	// Early exit; the store re-checks funds atomically at commit time.
	balance, err := s.store.Balance(ctx, from.ID)
	if err != nil {
		return Transaction{}, err
	}
	if balance.LessThan(amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	var txn Transaction
	err = s.withConflictRetry(func() error {
		var err error
		txn, err = s.store.Transfer(ctx, from.ID, to.ID, amount)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: to.OwnerID.String(),
			Body:        fmt.Sprintf("You received %s from wallet %s", amount.String(), from.Code),
		})
	}

	return txn, nil
}

// Transactions lists the wallet's movements, optionally bounded by creation
// time (inclusive), oldest first.
func (s *Service) Transactions(ctx context.Context, w wallet.Wallet, start, end *time.Time) ([]Transaction, error) {
	return s.store.Transactions(ctx, w.ID, start, end)
}

func (s *Service) withConflictRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = op()
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
