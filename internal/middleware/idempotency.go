package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IdempotencyKeyHeader is the header the sync agent sets on every submission attempt
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyMiddleware replays the cached response of a mutating request whose
// Idempotency-Key was already seen for the same user within ttl.
// Replays are answered with 200 and X-Idempotent-Replay: true.
// It must run after VerifyToken so keys are scoped per user.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		idempotencyKey := c.Get(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s:%s", UserID(c), c.Path(), idempotencyKey)

		cached, err := redisClient.Get(c.UserContext(), key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(fiber.StatusOK).Send(cached)
		}
		if err != nil && err != redis.Nil {
			// The repository deduplicates on its own when the cache is down
			logrus.WithError(err).Warn("idempotency cache lookup failed")
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Errors are not replayed; the agent's retry must reach the handler again
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := append([]byte(nil), c.Response().Body()...)
			if len(body) > 0 {
				go func() {
					bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := redisClient.Set(bgCtx, key, body, ttl).Err(); err != nil {
						logrus.WithError(err).Warn("failed to cache idempotent response")
					}
				}()
			}
		}

		return nil
	}
}
