package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/wallet"
)

// RegisterWalletRoutes wires the wallet read endpoints.
func RegisterWalletRoutes(router fiber.Router, h *wallet.Handler) {
	group := router.Group("/wallet")
	group.Get("/", h.Balance)
	group.Get("/transactions", h.Transactions)
	group.Get("/notifications", h.Notifications)
}
