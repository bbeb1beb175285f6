package ledger

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

// PostgresLedger persists balances and transactions in PostgreSQL. Every
// mutation runs inside a single database transaction; balance updates are
// conditional on the wallet's version column, so a concurrent writer surfaces
// as ErrConflict instead of a lost update.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureWallet verifies the wallet row exists. The row itself is created by
// the wallet repository with a zero balance.
func (l *PostgresLedger) EnsureWallet(ctx context.Context, walletID uuid.UUID) error {
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return wallet.ErrNotFound
	}
	return nil
}

// Balance returns the committed balance for the wallet.
func (l *PostgresLedger) Balance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, wallet.ErrNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Deposit credits the wallet and appends the DEPOSIT record in one database
// transaction.
func (l *PostgresLedger) Deposit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, Transaction, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, Transaction{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	version, err := walletVersion(ctx, tx, walletID)
	if err != nil {
		return decimal.Zero, Transaction{}, err
	}

	newBalance, err := applyDelta(ctx, tx, walletID, version, amount)
	if err != nil {
		return decimal.Zero, Transaction{}, err
	}

	txn := newTransaction(TypeDeposit, amount, walletID, nil)
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return decimal.Zero, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, Transaction{}, err
	}
	return newBalance, txn, nil
}

// Transfer debits fromID, credits toID and appends the TRANSFER record in one
// database transaction. Row locks are taken in ascending wallet id order so
// two opposing transfers over the same pair cannot deadlock.
func (l *PostgresLedger) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (Transaction, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if fromID == toID {
		return Transaction{}, ErrSameWallet
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	fromVersion, err := walletVersion(ctx, tx, fromID)
	if err != nil {
		return Transaction{}, err
	}
	toVersion, err := walletVersion(ctx, tx, toID)
	if err != nil {
		return Transaction{}, err
	}

	legs := []struct {
		walletID uuid.UUID
		version  int64
		delta    decimal.Decimal
	}{
		{fromID, fromVersion, amount.Neg()},
		{toID, toVersion, amount},
	}
	if bytes.Compare(legs[1].walletID[:], legs[0].walletID[:]) < 0 {
		legs[0], legs[1] = legs[1], legs[0]
	}

	for _, leg := range legs {
		if _, err := applyDelta(ctx, tx, leg.walletID, leg.version, leg.delta); err != nil {
			return Transaction{}, err
		}
	}

	txn := newTransaction(TypeTransfer, amount, fromID, &toID)
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// Transactions lists movements touching the wallet, oldest first.
func (l *PostgresLedger) Transactions(ctx context.Context, walletID uuid.UUID, start, end *time.Time) ([]Transaction, error) {
	const query = `
        SELECT id, created_at, type, status, amount, from_wallet_id, to_wallet_id
        FROM transactions
        WHERE (from_wallet_id = $1 OR to_wallet_id = $1)
          AND ($2::timestamptz IS NULL OR created_at >= $2)
          AND ($3::timestamptz IS NULL OR created_at <= $3)
        ORDER BY created_at ASC, seq ASC`

	rows, err := l.db.Query(ctx, query, walletID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		var createdAt time.Time
		var toWallet uuid.NullUUID
		if err := rows.Scan(&txn.ID, &createdAt, &txn.Type, &txn.Status, &txn.Amount, &txn.FromWalletID, &toWallet); err != nil {
			return nil, err
		}
		txn.CreatedAt = createdAt.UTC()
		if toWallet.Valid {
			id := toWallet.UUID
			txn.ToWalletID = &id
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func newTransaction(kind Type, amount decimal.Decimal, fromID uuid.UUID, toID *uuid.UUID) Transaction {
	return Transaction{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		Type:         kind,
		Status:       StatusCompleted,
		Amount:       amount,
		FromWalletID: fromID,
		ToWalletID:   toID,
	}
}

func walletVersion(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error) {
	var version int64
	err := tx.QueryRow(ctx, `SELECT version FROM wallets WHERE id = $1`, walletID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, wallet.ErrNotFound
		}
		return 0, err
	}
	return version, nil
}

// applyDelta applies a signed balance change guarded by the expected version
// and the non-negative balance invariant. A miss is disambiguated by
// re-reading the version: a changed version means a concurrent writer won
// (ErrConflict), an unchanged one means the guard blocked a negative balance
// (ErrInsufficientFunds).
func applyDelta(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, expectedVersion int64, delta decimal.Decimal) (decimal.Decimal, error) {
	const update = `
        UPDATE wallets
        SET balance = balance + $2, version = version + 1, updated_at = now()
        WHERE id = $1 AND version = $3 AND balance + $2 >= 0
        RETURNING balance`

	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, update, walletID, delta, expectedVersion).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	version, err := walletVersion(ctx, tx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	if version != expectedVersion {
		return decimal.Zero, ErrConflict
	}
	return decimal.Zero, ErrInsufficientFunds
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn Transaction) error {
	toWallet := uuid.NullUUID{}
	if txn.ToWalletID != nil {
		toWallet = uuid.NullUUID{UUID: *txn.ToWalletID, Valid: true}
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, created_at, type, status, amount, from_wallet_id, to_wallet_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.CreatedAt, txn.Type, txn.Status, txn.Amount, txn.FromWalletID, toWallet)
	return err
}
