package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists wallet metadata. Balances are owned by the ledger and
// are deliberately absent from this contract.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	FindByCode(ctx context.Context, code string) (Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (Wallet, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (Wallet, error)
}

// PostgresRepository stores wallets in PostgreSQL. The wallets row also
// carries the balance and version columns mutated by the Postgres ledger, but
// this repository never touches them.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record with a zero balance.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (id, code, owner_id, balance, version, created_at)
        VALUES ($1, $2, $3, 0, 1, $4)`, wallet.ID, wallet.Code, wallet.OwnerID, wallet.CreatedAt.UTC())
	return err
}

// FindByCode fetches wallet metadata by its public code.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, code, owner_id, created_at
        FROM wallets WHERE code = $1`, code))
}

// FindByID fetches wallet metadata by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, code, owner_id, created_at
        FROM wallets WHERE id = $1`, id))
}

// FindByOwner fetches the wallet provisioned for the given owner.
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, code, owner_id, created_at
        FROM wallets WHERE owner_id = $1`, ownerID))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Wallet, error) {
	var w Wallet
	var createdAt time.Time
	if err := row.Scan(&w.ID, &w.Code, &w.OwnerID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
