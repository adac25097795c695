package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/auth"
	"github.com/barterhub/wallet/internal/identity"
)

// RegisterAuthRoutes wires the public registration and login endpoints.
func RegisterAuthRoutes(router fiber.Router, ids *identity.Handler, ah *auth.Handler) {
	group := router.Group("/auth")
	group.Post("/register", ids.Register)
	group.Post("/login", ah.Login)
	group.Post("/refresh", ah.Refresh)
}
