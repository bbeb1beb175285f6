package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that sets a wallet's balance directly when
// using the in-memory ledger.
func SeedBalance(l Ledger, walletID uuid.UUID, balance decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.wallets[walletID] = &memWallet{balance: balance, version: 1}
	}
}

// SetNowFunc overrides the in-memory ledger's clock so tests can control
// transaction timestamps.
func SetNowFunc(l Ledger, now func() time.Time) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.now = now
	}
}
