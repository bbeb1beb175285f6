package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

type memWallet struct {
	balance decimal.Decimal
	version int64
}

type inMemoryLedger struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*memWallet
	txns    []Transaction
	now     func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger used by unit tests
// and development mode. The mutex serializes mutations, so it provides the
// same exactly-once delta semantics as the Postgres backend without versions.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets: make(map[uuid.UUID]*memWallet),
		now:     time.Now,
	}
}

func (l *inMemoryLedger) EnsureWallet(_ context.Context, walletID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.wallets[walletID]; !exists {
		l.wallets[walletID] = &memWallet{balance: decimal.Zero, version: 1}
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[walletID]
	if !ok {
		return decimal.Zero, wallet.ErrNotFound
	}
	return w.balance, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, Transaction, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, Transaction{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletID]
	if !ok {
		return decimal.Zero, Transaction{}, wallet.ErrNotFound
	}

	w.balance = w.balance.Add(amount)
	w.version++

	txn := l.record(TypeDeposit, amount, walletID, nil)
	return w.balance, txn, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if fromID == toID {
		return Transaction{}, ErrSameWallet
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.wallets[fromID]
	if !ok {
		return Transaction{}, wallet.ErrNotFound
	}
	to, ok := l.wallets[toID]
	if !ok {
		return Transaction{}, wallet.ErrNotFound
	}

	if from.balance.LessThan(amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	from.balance = from.balance.Sub(amount)
	from.version++
	to.balance = to.balance.Add(amount)
	to.version++

	return l.record(TypeTransfer, amount, fromID, &toID), nil
}

func (l *inMemoryLedger) Transactions(_ context.Context, walletID uuid.UUID, start, end *time.Time) ([]Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Transaction
	for _, txn := range l.txns {
		if txn.FromWalletID != walletID && (txn.ToWalletID == nil || *txn.ToWalletID != walletID) {
			continue
		}
		if start != nil && txn.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && txn.CreatedAt.After(*end) {
			continue
		}
		out = append(out, txn)
	}
	// txns is already in insertion order; a stable sort keeps that order as
	// the tie-break for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// record appends a COMPLETED transaction; callers hold the mutex.
func (l *inMemoryLedger) record(kind Type, amount decimal.Decimal, fromID uuid.UUID, toID *uuid.UUID) Transaction {
	txn := Transaction{
		ID:           uuid.New(),
		CreatedAt:    l.now().UTC(),
		Type:         kind,
		Status:       StatusCompleted,
		Amount:       amount,
		FromWalletID: fromID,
		ToWalletID:   toID,
	}
	l.txns = append(l.txns, txn)
	return txn
}
