package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit enforces a fixed-window counter in Redis, keyed per caller.
// Voucher redemption is throttled this way because the 10-digit code space
// is small enough to guess; transfers are bounded to limit abuse. The
// limiter fails open on cache errors so Redis unavailability never blocks
// legitimate traffic.
func RateLimit(cache *redis.Client, name string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || max <= 0 {
			return c.Next()
		}

		caller, _ := c.Locals("user_id").(string)
		if caller == "" {
			caller = c.IP()
		}
		key := fmt.Sprintf("rl:%s:%s", name, caller)

		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, window)
		}
		if cnt > int64(max) {
			return fiber.NewError(http.StatusTooManyRequests, fmt.Sprintf("rate limit exceeded, max %d per %s", max, window))
		}
		return c.Next()
	}
}
