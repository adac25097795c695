package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/middleware"
	"github.com/barterhub/wallet/internal/transfer"
)

// RegisterTransferRoutes wires the transfer endpoint behind its rate limit.
func RegisterTransferRoutes(router fiber.Router, h *transfer.Handler, cache *redis.Client, policy config.Policy) {
	limit := middleware.RateLimit(cache, "transfer", policy.TransferRatePerHour, time.Hour)
	router.Post("/transfers", limit, h.Send)
}
