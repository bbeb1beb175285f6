package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brisa-pay/brisa_pay/internal/identity"
	"github.com/brisa-pay/brisa_pay/internal/wallet"
)

// RegisterIdentityRoutes wires user registration, auto-provisioning a wallet
// with a public code for each new user.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, wallets *wallet.Service, logger *slog.Logger) {
	r.Post("/users", func(c *fiber.Ctx) error {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Document string `json:"document"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		user, err := ids.Register(c.UserContext(), identity.Registration{
			Name:     req.Name,
			Email:    req.Email,
			Document: req.Document,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, identity.ErrDocumentTaken) {
				return fiber.NewError(http.StatusConflict, err.Error())
			}
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		w, err := wallets.Create(c.UserContext(), user.ID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, "wallet provisioning failed")
		}

		if logger != nil {
			logger.Info("user registered",
				slog.String("user_id", user.ID.String()),
				slog.String("wallet_code", w.Code),
			)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"message":     "user created successfully",
			"name":        user.Name,
			"document":    user.Document,
			"wallet_code": w.Code,
		})
	})
}
