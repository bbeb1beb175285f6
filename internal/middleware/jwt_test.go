package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/brisa-pay/brisa_pay/internal/auth"
	"github.com/brisa-pay/brisa_pay/internal/config"
)

const jwtTestSecret = "jwt-test-secret"

func newJWTApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Config{JWTSecret: jwtTestSecret}

	app := fiber.New()
	app.Get("/secure", JWTAuth(cfg), func(c *fiber.Ctx) error {
		userID, ok := AuthenticatedUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, "missing user")
		}
		return c.JSON(fiber.Map{"user_id": userID.String()})
	})
	return app
}

func signToken(t *testing.T, sub string, exp time.Time, secret string) string {
	t.Helper()
	token, err := auth.SignHS256(map[string]any{"sub": sub, "exp": exp.Unix()}, []byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func requestWithToken(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/secure", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	app := newJWTApp(t)
	token := signToken(t, uuid.NewString(), time.Now().Add(time.Minute), jwtTestSecret)

	if status := requestWithToken(t, app, token); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	app := newJWTApp(t)
	token := signToken(t, uuid.NewString(), time.Now().Add(-time.Hour), jwtTestSecret)

	if status := requestWithToken(t, app, token); status != fiber.StatusUnauthorized {
		t.Fatalf("expired token must be rejected, got %d", status)
	}
}

func TestJWTAuthRejectsTokenWithoutExpiry(t *testing.T) {
	app := newJWTApp(t)
	token, err := auth.SignHS256(map[string]any{"sub": uuid.NewString()}, []byte(jwtTestSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if status := requestWithToken(t, app, token); status != fiber.StatusUnauthorized {
		t.Fatalf("token without exp must be rejected, got %d", status)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	app := newJWTApp(t)
	token := signToken(t, uuid.NewString(), time.Now().Add(time.Minute), "other-secret")

	if status := requestWithToken(t, app, token); status != fiber.StatusUnauthorized {
		t.Fatalf("token from another secret must be rejected, got %d", status)
	}
}

func TestJWTAuthRequiresBearerToken(t *testing.T) {
	app := newJWTApp(t)

	if status := requestWithToken(t, app, ""); status != fiber.StatusUnauthorized {
		t.Fatalf("missing token must be rejected, got %d", status)
	}
}
