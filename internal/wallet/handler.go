package wallet

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/ledger"
)

// Handler exposes the wallet read endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the wallet HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type entryResponse struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	AmountCents       int64     `json:"amount_cents"`
	FeeCents          int64     `json:"fee_cents,omitempty"`
	BalanceAfterCents int64     `json:"balance_after_cents"`
	Status            string    `json:"status"`
	Counterparty      string    `json:"counterparty,omitempty"`
	Reference         string    `json:"reference,omitempty"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type summaryResponse struct {
	CreditsCents int64 `json:"credits_cents"`
	DebitsCents  int64 `json:"debits_cents"`
	FeesCents    int64 `json:"fees_cents"`
}

// Balance handles GET /wallet.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	balance, err := h.svc.Balance(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"balance_cents": balance})
}

// Transactions handles GET /wallet/transactions with optional kind, status,
// from, to, limit and offset query parameters. The summary in the response is
// always computed over the unfiltered history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	f := ledger.EntryFilter{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if kind := c.Query("kind"); kind != "" {
		k := ledger.Kind(kind)
		if !k.Valid() {
			return fiber.NewError(http.StatusBadRequest, "unknown transaction kind: "+kind)
		}
		f.Kind = k
	}
	if status := c.Query("status"); status != "" {
		f.Status = ledger.EntryStatus(status)
	}
	var err error
	if f.From, err = parseTime(c.Query("from")); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid from timestamp")
	}
	if f.To, err = parseTime(c.Query("to")); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid to timestamp")
	}

	entries, summary, err := h.svc.History(c.UserContext(), uid, f)
	if err != nil {
		return err
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:                e.ID,
			Kind:              string(e.Kind),
			AmountCents:       e.Amount,
			FeeCents:          e.Fee,
			BalanceAfterCents: e.BalanceAfter,
			Status:            string(e.Status),
			Counterparty:      e.Counterparty,
			Reference:         e.Reference,
			Description:       e.Description,
			CreatedAt:         e.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"transactions": out,
		"summary": summaryResponse{
			CreditsCents: summary.Credits,
			DebitsCents:  summary.Debits,
			FeesCents:    summary.Fees,
		},
	})
}

// Notifications handles GET /wallet/notifications.
func (h *Handler) Notifications(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	items, err := h.svc.Notifications(c.UserContext(), uid, c.QueryInt("limit"))
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(items))
	for _, n := range items {
		out = append(out, fiber.Map{
			"id":         n.ID,
			"kind":       n.Kind,
			"body":       n.Body,
			"read":       n.Read,
			"created_at": n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"notifications": out})
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}
