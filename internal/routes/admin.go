package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/topup"
	"github.com/barterhub/wallet/internal/voucher"
)

// RegisterAdminRoutes wires voucher administration and top-up review. The
// caller mounts these behind the admin role guard.
func RegisterAdminRoutes(router fiber.Router, vh *voucher.Handler, th *topup.Handler) {
	router.Post("/vouchers", vh.Mint)
	router.Get("/vouchers", vh.List)
	router.Post("/vouchers/:code/disable", vh.Disable)

	router.Get("/topups/requests", th.Requests)
	router.Post("/topups/requests/:id/decide", th.Decide)
}
