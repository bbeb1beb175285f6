package ledger

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brisa-pay/brisa_pay/internal/middleware"
	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

// Handler exposes money movement HTTP endpoints.
type Handler struct {
	wallets *wallet.Service
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(wallets *wallet.Service, service *Service) *Handler {
	return &Handler{wallets: wallets, service: service}
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit credits the caller's wallet identified by its public code.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("code"))
	if err != nil {
		return err
	}

	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	balance, _, err := h.service.Deposit(c.UserContext(), w, req.Amount)
	if err != nil {
		return fiber.NewError(statusForError(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "deposit completed successfully",
		"balance": balance,
	})
}

type transferRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	FromWalletCode string          `json:"from_wallet_code"`
	ToWalletCode   string          `json:"to_wallet_code"`
}

// Transfer moves funds from the caller's wallet to another wallet.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	from, err := h.ownedWallet(c, req.FromWalletCode)
	if err != nil {
		return err
	}
	to, err := h.wallets.FindByCode(c.UserContext(), req.ToWalletCode)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "destination wallet not found")
	}

	if _, err := h.service.Transfer(c.UserContext(), req.Amount, from, to); err != nil {
		return fiber.NewError(statusForError(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "transfer completed successfully",
	})
}

type transactionResponse struct {
	CreatedAt      time.Time       `json:"created_at"`
	Amount         decimal.Decimal `json:"amount"`
	Type           Type            `json:"transaction_type"`
	Status         Status          `json:"status"`
	FromWalletCode string          `json:"from_wallet_code"`
	ToWalletCode   string          `json:"to_wallet_code,omitempty"`
}

// Transactions lists the wallet's movement history, optionally bounded by
// start_date / end_date query parameters (inclusive).
func (h *Handler) Transactions(c *fiber.Ctx) error {
	w, err := h.ownedWallet(c, c.Params("code"))
	if err != nil {
		return err
	}

	start, err := parseTimeQuery(c.Query("start_date"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid start_date")
	}
	end, err := parseTimeQuery(c.Query("end_date"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid end_date")
	}

	txns, err := h.service.Transactions(c.UserContext(), w, start, end)
	if err != nil {
		return fiber.NewError(statusForError(err), err.Error())
	}

	codes := map[uuid.UUID]string{w.ID: w.Code}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		from, err := h.codeFor(c, codes, txn.FromWalletID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "transaction history unavailable")
		}
		resp := transactionResponse{
			CreatedAt:      txn.CreatedAt,
			Amount:         txn.Amount,
			Type:           txn.Type,
			Status:         txn.Status,
			FromWalletCode: from,
		}
		if txn.ToWalletID != nil {
			to, err := h.codeFor(c, codes, *txn.ToWalletID)
			if err != nil {
				return fiber.NewError(http.StatusInternalServerError, "transaction history unavailable")
			}
			resp.ToWalletCode = to
		}
		out = append(out, resp)
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ownedWallet resolves a wallet code and verifies it belongs to the caller.
// Missing wallets and foreign wallets are indistinguishable in the response.
func (h *Handler) ownedWallet(c *fiber.Ctx, code string) (wallet.Wallet, error) {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return wallet.Wallet{}, fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	w, err := h.wallets.FindByCode(c.UserContext(), code)
	if err != nil || w.OwnerID != userID {
		return wallet.Wallet{}, fiber.NewError(http.StatusNotFound, "wallet not found or does not belong to the user")
	}
	return w, nil
}

// codeFor resolves a wallet id to its public code. Every id in the ledger
// references an existing wallet, so a lookup failure here is an internal
// inconsistency and must not be rendered as an empty code.
func (h *Handler) codeFor(c *fiber.Ctx, cache map[uuid.UUID]string, id uuid.UUID) (string, error) {
	if code, ok := cache[id]; ok {
		return code, nil
	}
	w, err := h.wallets.FindByID(c.UserContext(), id)
	if err != nil {
		return "", fmt.Errorf("resolve code for wallet %s: %w", id, err)
	}
	cache[id] = w.Code
	return w.Code, nil
}

func parseTimeQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("unsupported time format")
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSameWallet):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
