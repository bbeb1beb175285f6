package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisa-pay/brisa_pay/internal/middleware"
	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

func newHandlerApp(t *testing.T) (*fiber.App, *wallet.Service, Ledger, uuid.UUID) {
	t.Helper()
	store := NewInMemory()
	wallets := wallet.NewService(wallet.NewMemoryRepository(), store)

	ownerID := uuid.New()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, ownerID)
		return c.Next()
	})

	h := NewHandler(wallets, NewService(store, nil))
	app.Get("/wallets/:code/transactions", h.Transactions)

	return app, wallets, store, ownerID
}

func TestTransactionsResolvesCounterpartyCodes(t *testing.T) {
	app, wallets, store, ownerID := newHandlerApp(t)
	ctx := context.Background()

	mine, err := wallets.Create(ctx, ownerID)
	require.NoError(t, err)
	other, err := wallets.Create(ctx, uuid.New())
	require.NoError(t, err)

	SeedBalance(store, mine.ID, dec("100.00"))
	_, err = store.Transfer(ctx, mine.ID, other.ID, dec("10.00"))
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/wallets/"+mine.Code+"/transactions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var txns []struct {
		FromWalletCode string `json:"from_wallet_code"`
		ToWalletCode   string `json:"to_wallet_code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&txns))
	require.Len(t, txns, 1)
	assert.Equal(t, mine.Code, txns[0].FromWalletCode)
	assert.Equal(t, other.Code, txns[0].ToWalletCode)
}

func TestTransactionsFailsOnUnresolvableCounterparty(t *testing.T) {
	app, wallets, store, ownerID := newHandlerApp(t)
	ctx := context.Background()

	mine, err := wallets.Create(ctx, ownerID)
	require.NoError(t, err)
	SeedBalance(store, mine.ID, dec("100.00"))

	// A ledger entry pointing at a wallet the store does not know. This
	// cannot happen through the service; the response must make the
	// inconsistency visible instead of rendering an empty code.
	ghostID := uuid.New()
	SeedBalance(store, ghostID, dec("0.00"))
	_, err = store.Transfer(ctx, mine.ID, ghostID, dec("10.00"))
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/wallets/"+mine.Code+"/transactions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
