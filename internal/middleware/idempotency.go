package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	idempotencyPrefix  = "idem:"
	idempotencyTimeout = 2 * time.Second
)

// idempotencyRecord is what Redis holds for one key: first a reservation
// (Done=false) while the request runs, then the full response once it
// finishes. RequestHash pins the key to the exact payload it was first used
// with.
type idempotencyRecord struct {
	Done        bool              `json:"done"`
	RequestHash string            `json:"request_hash"`
	Status      int               `json:"status,omitempty"`
	Body        []byte            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Idempotency makes money-movement requests safe to retry. Unsafe methods
// must carry an Idempotency-Key header; the first request with a given key
// runs normally and its response is stored, retries replay that response.
// Keys are scoped to the authenticated caller and the endpoint, so clients
// cannot replay each other's responses and the same key is independent
// across endpoints. Reusing a key with a different payload is an error, not
// a replay.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}

		scope := c.IP()
		if userID, ok := AuthenticatedUser(c); ok {
			scope = userID.String()
		}
		cacheKey := idempotencyPrefix + scope + ":" + c.Method() + ":" + c.Path() + ":" + key

		sum := sha256.Sum256(c.Body())
		requestHash := hex.EncodeToString(sum[:])

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cancel()

		reservation, err := json.Marshal(idempotencyRecord{RequestHash: requestHash})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}

		reserved, err := cache.SetNX(ctx, cacheKey, reservation, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if !reserved {
			raw, err := cache.Get(ctx, cacheKey).Result()
			if err != nil {
				logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
			}
			var record idempotencyRecord
			if err := json.Unmarshal([]byte(raw), &record); err != nil {
				logger.Warn("undecodable idempotency record", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			if record.RequestHash != requestHash {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
			}
			if !record.Done {
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still processing")
			}
			for header, value := range record.Headers {
				if strings.EqualFold(header, fiber.HeaderContentLength) {
					continue
				}
				c.Set(header, value)
			}
			return c.Status(record.Status).Send(record.Body)
		}

		if err := c.Next(); err != nil {
			// Release the key so the client can retry after a failure.
			releaseCtx, release := context.WithTimeout(context.Background(), idempotencyTimeout)
			defer release()
			cache.Del(releaseCtx, cacheKey)
			return err
		}

		record := idempotencyRecord{
			Done:        true,
			RequestHash: requestHash,
			Status:      c.Response().StatusCode(),
			Body:        append([]byte(nil), c.Response().Body()...),
			Headers:     map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			record.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(record)
		if err != nil {
			logger.Error("failed to encode idempotency record", slog.String("key", key), slog.Any("error", err))
			releaseCtx, release := context.WithTimeout(context.Background(), idempotencyTimeout)
			defer release()
			cache.Del(releaseCtx, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		storeCtx, store := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer store()
		if err := cache.Set(storeCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("failed to persist idempotency record", slog.String("key", key), slog.Any("error", err))
			cache.Del(storeCtx, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		return nil
	}
}
