package topup

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/barterhub/wallet/internal/ledger"
)

// Handler exposes the top-up endpoints. Now and Submit serve authenticated
// users; Decide and Requests are mounted behind the admin guard.
type Handler struct {
	svc *Service
}

// NewHandler builds the top-up HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type topUpRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	Reference   string `json:"reference"`
}

// Now handles POST /topups.
func (h *Handler) Now(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Method) == "" {
		return fiber.NewError(http.StatusBadRequest, "payment method is required")
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.svc.Now(c.UserContext(), uid, req.AmountCents, req.Method, req.Reference)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"entry_id":          res.EntryID,
		"new_balance_cents": res.NewBalance,
	})
}

type submitRequest struct {
	AmountCents int64  `json:"amount_cents"`
	BankChannel string `json:"bank_channel"`
	ReceiptRef  string `json:"receipt_ref"`
}

// Submit handles POST /topups/requests.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.BankChannel) == "" {
		return fiber.NewError(http.StatusBadRequest, "bank channel is required")
	}
	uid, _ := c.Locals("user_id").(string)

	created, err := h.svc.Submit(c.UserContext(), ledger.TopUpRequestInput{
		AccountID:   uid,
		Amount:      req.AmountCents,
		BankChannel: req.BankChannel,
		ReceiptRef:  req.ReceiptRef,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(requestView(created))
}

// MyRequests handles GET /topups/requests for the calling user.
func (h *Handler) MyRequests(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	f := ledger.RequestFilter{
		AccountID: uid,
		Status:    ledger.RequestStatus(c.Query("status")),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	return h.listRequests(c, f)
}

type decideRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Decide handles POST /admin/topups/requests/:id/decide.
func (h *Handler) Decide(c *fiber.Ctx) error {
	var req decideRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var approve bool
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		approve = true
	case "reject":
		if strings.TrimSpace(req.Reason) == "" {
			return fiber.NewError(http.StatusBadRequest, "a reason is required when rejecting")
		}
	default:
		return fiber.NewError(http.StatusBadRequest, "action must be approve or reject")
	}
	adminID, _ := c.Locals("user_id").(string)

	res, err := h.svc.Decide(c.UserContext(), ledger.DecideInput{
		RequestID: c.Params("id"),
		Approve:   approve,
		AdminID:   adminID,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}

	out := fiber.Map{"request": requestView(res.Request)}
	if approve {
		out["entry_id"] = res.EntryID
		out["new_balance_cents"] = res.NewBalance
	}
	return c.JSON(out)
}

// Requests handles GET /admin/topups/requests.
func (h *Handler) Requests(c *fiber.Ctx) error {
	f := ledger.RequestFilter{
		AccountID: c.Query("account_id"),
		Status:    ledger.RequestStatus(c.Query("status")),
		Limit:     c.QueryInt("limit"),
		Offset:    c.QueryInt("offset"),
	}
	return h.listRequests(c, f)
}

func (h *Handler) listRequests(c *fiber.Ctx, f ledger.RequestFilter) error {
	requests, err := h.svc.Requests(c.UserContext(), f)
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(requests))
	for _, req := range requests {
		out = append(out, requestView(req))
	}
	return c.JSON(fiber.Map{"requests": out})
}

func requestView(req ledger.TopUpRequest) fiber.Map {
	view := fiber.Map{
		"id":           req.ID,
		"account_id":   req.AccountID,
		"amount_cents": req.Amount,
		"bank_channel": req.BankChannel,
		"receipt_ref":  req.ReceiptRef,
		"status":       string(req.Status),
		"created_at":   req.CreatedAt,
	}
	if req.RejectionReason != "" {
		view["rejection_reason"] = req.RejectionReason
	}
	if req.DecidedBy != "" {
		view["decided_by"] = req.DecidedBy
		view["decided_at"] = req.DecidedAt
	}
	return view
}
