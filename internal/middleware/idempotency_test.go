package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brisa-pay/brisa_pay/internal/logging"
)

// userHeader lets tests pick the authenticated user per request.
const userHeader = "X-Test-User"

func setupIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id, err := uuid.Parse(c.Get(userHeader)); err == nil {
			c.Locals(UserIDKey, id)
		}
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var calls atomic.Int64
	app.Post("/deposit", func(c *fiber.Ctx) error {
		calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"balance": "150.00"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, &calls, cleanup
}

func postDeposit(t *testing.T, app *fiber.App, userID, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/deposit", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	status, _ := postDeposit(t, app, uuid.NewString(), "", `{"amount":"50.00"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencySkipsSafeMethods(t *testing.T) {
	app, _, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	app.Get("/deposit", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(fiber.MethodGet, "/deposit", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET without key should pass, got %d", resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	userID := uuid.NewString()
	body := `{"amount":"50.00"}`

	status, first := postDeposit(t, app, userID, "dep-42", body)
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	status, replayed := postDeposit(t, app, userID, "dep-42", body)
	if status != fiber.StatusCreated {
		t.Fatalf("expected replayed status %d got %d", fiber.StatusCreated, status)
	}
	if replayed != first {
		t.Fatalf("expected replayed payload %s got %s", first, replayed)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler should run once, ran %d times", got)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentPayload(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	userID := uuid.NewString()

	status, _ := postDeposit(t, app, userID, "dep-42", `{"amount":"50.00"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("first request: expected %d got %d", fiber.StatusCreated, status)
	}

	// Same key, different amount: must not replay the stored response and
	// must not run the handler a second time.
	status, _ = postDeposit(t, app, userID, "dep-42", `{"amount":"9000.00"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d", fiber.StatusUnprocessableEntity, status)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler should run once, ran %d times", got)
	}
}

func TestIdempotencyKeysScopedPerUser(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	body := `{"amount":"50.00"}`
	for _, userID := range []string{uuid.NewString(), uuid.NewString()} {
		status, _ := postDeposit(t, app, userID, "shared-key", body)
		if status != fiber.StatusCreated {
			t.Fatalf("user %s: expected %d got %d", userID, fiber.StatusCreated, status)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("distinct users must not share records, handler ran %d times", got)
	}
}

func TestIdempotencyDistinctKeysRunIndependently(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	userID := uuid.NewString()
	for _, key := range []string{"dep-1", "dep-2"} {
		status, _ := postDeposit(t, app, userID, key, `{"amount":"50.00"}`)
		if status != fiber.StatusCreated {
			t.Fatalf("request %s: expected %d got %d", key, fiber.StatusCreated, status)
		}
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 handler runs, got %d", got)
	}
}

func TestIdempotencyReleasesKeyOnHandlerError(t *testing.T) {
	app, _, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	var fail atomic.Bool
	fail.Store(true)
	app.Post("/flaky", func(c *fiber.Ctx) error {
		if fail.Load() {
			return fiber.NewError(fiber.StatusServiceUnavailable, "try again")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	userID := uuid.NewString()
	post := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/flaky", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(userHeader, userID)
		req.Header.Set(idempotencyHeader, "flaky-1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := post(); status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected failure passthrough, got %d", status)
	}

	// The failed attempt must not poison the key.
	fail.Store(false)
	if status := post(); status != fiber.StatusOK {
		t.Fatalf("retry after failure should run the handler, got %d", status)
	}
}
