package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/middleware"
	"github.com/barterhub/wallet/internal/voucher"
)

// RegisterVoucherRoutes wires voucher redemption. The rate limit exists
// because the ten-digit code space is guessable under sustained probing.
func RegisterVoucherRoutes(router fiber.Router, h *voucher.Handler, cache *redis.Client, policy config.Policy) {
	limit := middleware.RateLimit(cache, "redeem", policy.RedeemRatePerHour, time.Hour)
	router.Post("/vouchers/redeem", limit, h.Redeem)
}
