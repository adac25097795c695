package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/notification"
)

// Service handles voucher redemption for users and voucher administration.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
}

// NewService creates a voucher service. The notifier receives a best-effort
// push after a successful redemption.
func NewService(l ledger.Ledger, notifier notification.Notifier) *Service {
	return &Service{ledger: l, notifier: notifier}
}

// Normalize strips every non-digit character from a user-typed voucher code
// and validates the canonical form. Codes are exactly ten digits; separators
// and other decoration users copy along with the code are ignored.
func Normalize(code string) (string, error) {
	cleaned := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		if c := code[i]; c >= '0' && c <= '9' {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) != 10 {
		return "", ledger.ErrInvalidVoucherFormat
	}
	return string(cleaned), nil
}

// Redeem normalizes the code and credits its value to the account. The
// status flip and the credit commit atomically in the ledger.
func (s *Service) Redeem(ctx context.Context, accountID, code string) (ledger.RedeemResult, error) {
	canonical, err := Normalize(code)
	if err != nil {
		return ledger.RedeemResult{}, err
	}
	res, err := s.ledger.RedeemVoucher(ctx, canonical, accountID, time.Now().UTC())
	if err != nil {
		return ledger.RedeemResult{}, err
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Notification{
			AccountID: accountID,
			Kind:      notification.KindVoucherRedeemed,
			Body:      fmt.Sprintf("Voucher redeemed for %d cents.", res.Amount),
		})
	}
	return res, nil
}

// Mint generates a batch of vouchers with unique codes.
func (s *Service) Mint(ctx context.Context, in ledger.MintInput) ([]ledger.Voucher, error) {
	return s.ledger.CreateVouchers(ctx, in)
}

// Disable retires an unredeemed voucher code.
func (s *Service) Disable(ctx context.Context, code string) error {
	canonical, err := Normalize(code)
	if err != nil {
		return err
	}
	return s.ledger.DisableVoucher(ctx, canonical)
}

// List returns vouchers newest first, narrowed by the filter.
func (s *Service) List(ctx context.Context, f ledger.VoucherFilter) ([]ledger.Voucher, error) {
	return s.ledger.Vouchers(ctx, f)
}
