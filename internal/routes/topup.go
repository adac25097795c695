package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/topup"
)

// RegisterTopUpRoutes wires the user-facing funding endpoints.
func RegisterTopUpRoutes(router fiber.Router, h *topup.Handler) {
	group := router.Group("/topups")
	group.Post("/", h.Now)
	group.Post("/requests", h.Submit)
	group.Get("/requests", h.MyRequests)
}
