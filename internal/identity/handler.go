package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// AccountProvisioner creates the wallet account backing a new user.
type AccountProvisioner interface {
	EnsureAccount(ctx context.Context, accountID string) error
}

// Handler exposes the registration endpoint. Every registered user gets a
// wallet account provisioned under the same id.
type Handler struct {
	svc      *Service
	accounts AccountProvisioner
}

// NewHandler builds the identity HTTP handler.
func NewHandler(svc *Service, accounts AccountProvisioner) *Handler {
	return &Handler{svc: svc, accounts: accounts}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Register(c.UserContext(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return fiber.NewError(http.StatusConflict, "a user with that email or phone already exists")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.EnsureAccount(c.UserContext(), user.ID); err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id": user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"phone":   user.Phone,
	})
}
