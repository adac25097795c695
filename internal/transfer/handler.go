package transfer

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	svc *Service
}

// NewHandler builds the transfer HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type sendRequest struct {
	RecipientPhone string `json:"recipient_phone"`
	RecipientEmail string `json:"recipient_email"`
	AmountCents    int64  `json:"amount_cents"`
	Note           string `json:"note"`
}

type sendResponse struct {
	TransferID           string `json:"transfer_id"`
	RecipientID          string `json:"recipient_id"`
	RecipientName        string `json:"recipient_name,omitempty"`
	AmountCents          int64  `json:"amount_cents"`
	FeeCents             int64  `json:"fee_cents"`
	RecipientAmountCents int64  `json:"recipient_amount_cents"`
	NewBalanceCents      int64  `json:"new_balance_cents"`
}

// Send handles POST /transfers.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	receipt, err := h.svc.Send(c.UserContext(), uid, SendInput{
		RecipientPhone: req.RecipientPhone,
		RecipientEmail: req.RecipientEmail,
		Amount:         req.AmountCents,
		Note:           req.Note,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(sendResponse{
		TransferID:           receipt.TransferID,
		RecipientID:          receipt.RecipientID,
		RecipientName:        receipt.RecipientName,
		AmountCents:          receipt.Amount,
		FeeCents:             receipt.Fee,
		RecipientAmountCents: receipt.RecipientAmount,
		NewBalanceCents:      receipt.NewBalance,
	})
}
