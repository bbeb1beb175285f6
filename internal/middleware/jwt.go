package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/brisa-pay/brisa_pay/internal/auth"
	"github.com/brisa-pay/brisa_pay/internal/config"
)

// UserIDKey is the fiber.Ctx locals key carrying the authenticated user id.
const UserIDKey = "user_id"

// JWTAuth returns a middleware that validates JWT access tokens and stores
// the authenticated user id in the request locals.
func JWTAuth(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		if err := auth.VerifyExpiry(claims, time.Now()); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token expired")
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// AuthenticatedUser extracts the user id placed by JWTAuth.
func AuthenticatedUser(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(UserIDKey).(uuid.UUID)
	return id, ok
}
