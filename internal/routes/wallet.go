package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brisa-pay/brisa_pay/internal/ledger"
	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

// RegisterWalletRoutes wires wallet and money movement endpoints.
func RegisterWalletRoutes(r fiber.Router, wh *wallet.Handler, lh *ledger.Handler) {
	r.Get("/wallets/me", wh.Me)
	r.Get("/wallets/:code/balance", wh.Balance)
	r.Post("/wallets/:code/deposit", lh.Deposit)
	r.Post("/wallets/transfer", lh.Transfer)
	r.Get("/wallets/:code/transactions", lh.Transactions)
}
