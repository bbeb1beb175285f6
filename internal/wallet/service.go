package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSource reads wallet balances from the ledger, which owns them.
type BalanceSource interface {
	EnsureWallet(ctx context.Context, walletID uuid.UUID) error
	Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
}

// Service exposes wallet lookups and provisioning backed by the ledger.
type Service struct {
	repo     Repository
	balances BalanceSource
}

// NewService builds a wallet service instance.
func NewService(repo Repository, balances BalanceSource) *Service {
	return &Service{repo: repo, balances: balances}
}

// Create provisions a wallet with a generated public code and a zero balance.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID) (Wallet, error) {
	code, err := NewCode()
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		ID:        uuid.New(),
		Code:      code,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	if err := s.balances.EnsureWallet(ctx, w.ID); err != nil {
		return Wallet{}, err
	}

	return w, nil
}

// FindByCode resolves a wallet by its public code.
func (s *Service) FindByCode(ctx context.Context, code string) (Wallet, error) {
	return s.repo.FindByCode(ctx, code)
}

// FindByID resolves a wallet by identifier.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (Wallet, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByOwner resolves the wallet provisioned for the given owner.
func (s *Service) FindByOwner(ctx context.Context, ownerID uuid.UUID) (Wallet, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

// Balance returns the current ledger balance for the wallet.
func (s *Service) Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	return s.balances.Balance(ctx, walletID)
}

// BalanceByCode returns the current ledger balance for the wallet with the
// given public code.
func (s *Service) BalanceByCode(ctx context.Context, code string) (decimal.Decimal, error) {
	w, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return s.balances.Balance(ctx, w.ID)
}
