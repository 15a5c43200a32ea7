package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	logger *zap.Logger
}

// NewRateLimiter builds a limiter. A nil client falls back to fiber's
// in-process limiter.
func NewRateLimiter(client *redis.Client, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, window: window, logger: logger}
}

// Limit allows max requests per window for each client under the bucket name.
func (rl *RateLimiter) Limit(bucket string, max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if rl.client == nil {
		return limiter.New(limiter.Config{
			Max:        max,
			Expiration: rl.window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return bucket + ":" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return apperrors.NewRateLimited()
			},
		})
	}

	return func(c *fiber.Ctx) error {
		allowed, retryAfter, err := rl.allow(c.UserContext(), bucket, c.IP(), max)
		if err != nil {
			// Redis trouble must not take the API down.
			rl.logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())+1))
			return apperrors.NewRateLimited()
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, bucket, client string, max int) (bool, time.Duration, error) {
	windowStart := time.Now().Truncate(rl.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", bucket, client, windowStart.Unix())

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	if incr.Val() > int64(max) {
		return false, time.Until(windowStart.Add(rl.window)), nil
	}
	return true, 0, nil
}
