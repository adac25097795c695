package voucher

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/ledger"
)

// Handler exposes the voucher endpoints. Redeem serves authenticated users;
// the remaining handlers are mounted behind the admin guard.
type Handler struct {
	svc *Service
}

// NewHandler builds the voucher HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type redeemRequest struct {
	Code string `json:"code"`
}

// Redeem handles POST /vouchers/redeem.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.svc.Redeem(c.UserContext(), uid, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"entry_id":          res.EntryID,
		"amount_cents":      res.Amount,
		"new_balance_cents": res.NewBalance,
	})
}

type mintRequest struct {
	Count       int    `json:"count"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	ExpiresAt   string `json:"expires_at"`
}

// Mint handles POST /admin/vouchers.
func (h *Handler) Mint(c *fiber.Ctx) error {
	var req mintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var expiresAt time.Time
	if req.ExpiresAt != "" {
		var err error
		if expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid expires_at timestamp")
		}
	}
	adminID, _ := c.Locals("user_id").(string)

	vouchers, err := h.svc.Mint(c.UserContext(), ledger.MintInput{
		Count:     req.Count,
		Amount:    req.AmountCents,
		Type:      req.Type,
		ExpiresAt: expiresAt,
		CreatedBy: adminID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"vouchers": voucherViews(vouchers)})
}

// Disable handles POST /admin/vouchers/:code/disable.
func (h *Handler) Disable(c *fiber.Ctx) error {
	if err := h.svc.Disable(c.UserContext(), c.Params("code")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "disabled"})
}

// List handles GET /admin/vouchers.
func (h *Handler) List(c *fiber.Ctx) error {
	f := ledger.VoucherFilter{
		Status: ledger.VoucherStatus(c.Query("status")),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	vouchers, err := h.svc.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"vouchers": voucherViews(vouchers)})
}

func voucherViews(vouchers []ledger.Voucher) []fiber.Map {
	out := make([]fiber.Map, 0, len(vouchers))
	for _, v := range vouchers {
		view := fiber.Map{
			"id":           v.ID,
			"code":         v.Code,
			"amount_cents": v.Amount,
			"type":         v.Type,
			"status":       string(v.Status),
			"created_at":   v.CreatedAt,
		}
		if !v.ExpiresAt.IsZero() {
			view["expires_at"] = v.ExpiresAt
		}
		if v.RedeemedBy != "" {
			view["redeemed_by"] = v.RedeemedBy
			view["redeemed_at"] = v.RedeemedAt
		}
		out = append(out, view)
	}
	return out
}
