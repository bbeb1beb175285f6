package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount occurs when an operation is requested with a zero or
	// negative amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrSameWallet occurs when a transfer names the same wallet as source
	// and destination.
	ErrSameWallet = errors.New("source and destination wallets cannot be the same")

	// ErrInsufficientFunds occurs when a debit would make the source balance
	// negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates the wallet row changed between read and write.
	// Callers retry with fresh state; it never reaches the HTTP layer.
	ErrConflict = errors.New("wallet version conflict")

	// ErrTransient is reported when conflict retries are exhausted. The
	// operation was not applied and is safe to resubmit.
	ErrTransient = errors.New("transient conflict, operation not applied")
)

// Type classifies a money movement.
type Type string

const (
	TypeDeposit  Type = "DEPOSIT"
	TypeTransfer Type = "TRANSFER"
	TypeWithdraw Type = "WITHDRAW"
)

// Status describes the settlement state of a transaction. Movements commit
// atomically, so every persisted transaction is COMPLETED; the remaining
// values exist for wire compatibility.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Transaction is an immutable record of one completed money movement.
// ToWalletID is set only for transfers.
type Transaction struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Type         Type
	Status       Status
	Amount       decimal.Decimal
	FromWalletID uuid.UUID
	ToWalletID   *uuid.UUID
}

// Ledger is the sole write path for balances and transaction records. Each
// mutation commits the balance change and the matching transaction as one
// atomic unit, or not at all.
type Ledger interface {
	// EnsureWallet makes the wallet known to the ledger with a zero balance
	// if it is not already.
	EnsureWallet(ctx context.Context, walletID uuid.UUID) error

	// Balance returns the committed balance for the wallet.
	Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)

	// Deposit credits the wallet and records a DEPOSIT transaction,
	// returning the new balance.
	Deposit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, Transaction, error)

	// Transfer debits from, credits to, and records a single TRANSFER
	// transaction. No partial transfer is ever observable.
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (Transaction, error)

	// Transactions lists movements where the wallet is source or
	// destination, optionally bounded by created_at (inclusive both ends),
	// ordered ascending by creation time with insertion order as tie-break.
	Transactions(ctx context.Context, walletID uuid.UUID, start, end *time.Time) ([]Transaction, error)
}
