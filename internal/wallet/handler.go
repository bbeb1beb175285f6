package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brisa-pay/brisa_pay/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance returns the wallet balance. The wallet must belong to the
// authenticated user.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	w, err := h.service.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil || w.OwnerID != userID {
		return fiber.NewError(http.StatusNotFound, "wallet not found or does not belong to the user")
	}

	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_code": w.Code,
		"balance":     balance,
	})
}

// Me returns the authenticated user's own wallet.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	w, err := h.service.FindByOwner(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	}

	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":   w.ID,
		"wallet_code": w.Code,
		"balance":     balance,
		"created_at":  w.CreatedAt,
	})
}
