package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brisa-pay/brisa_pay/internal/identity"
)

// Handler exposes authentication HTTP endpoints.
type Handler struct {
	identities *identity.Service
	service    *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(identities *identity.Service, service *Service) *Handler {
	return &Handler{identities: identities, service: service}
}

type loginRequest struct {
	Document string `json:"document"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identities.Authenticate(c.UserContext(), identity.Credentials{
		Document: req.Document,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, identity.ErrInvalidCredentials.Error())
	}

	tokens, err := h.service.Login(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.Status(http.StatusOK).JSON(tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	access, expiresIn, err := h.service.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": access,
		"expires_in":   expiresIn,
	})
}
