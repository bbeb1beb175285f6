package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested wallet does not exist.
var ErrNotFound = errors.New("wallet not found")

// Wallet identifies a stored value account. The balance itself lives in the
// ledger, which is the only component allowed to mutate it.
type Wallet struct {
	ID        uuid.UUID
	Code      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}
