package topup

import (
	"context"
	"fmt"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/notification"
)

// Service handles wallet funding: immediate self-service top-ups and the
// deferred request flow reviewed by admins.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
	policy   config.Policy
}

// NewService creates a top-up service. The notifier receives fire-and-forget
// pushes after commit; durable notification rows are written by the ledger.
func NewService(l ledger.Ledger, notifier notification.Notifier, policy config.Policy) *Service {
	return &Service{ledger: l, notifier: notifier, policy: policy}
}

func (s *Service) push(ctx context.Context, accountID, kind, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Notification{AccountID: accountID, Kind: kind, Body: body})
}

func (s *Service) checkAmount(amount int64) error {
	if amount < s.policy.TopUpMinCents || amount > s.policy.TopUpMaxCents {
		return ledger.ErrAmountOutOfRange
	}
	return nil
}

// Now credits the account immediately, as used for instant payment channels.
func (s *Service) Now(ctx context.Context, accountID string, amount int64, method, reference string) (ledger.PostResult, error) {
	if err := s.checkAmount(amount); err != nil {
		return ledger.PostResult{}, err
	}
	res, err := s.ledger.TopUp(ctx, ledger.TopUpPosting{
		AccountID: accountID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
	})
	if err != nil {
		return ledger.PostResult{}, err
	}
	s.push(ctx, accountID, notification.KindTopUp,
		fmt.Sprintf("Your wallet was topped up with %d cents.", amount))
	return res, nil
}

// Submit records a deferred top-up claim for a bank transfer the user says
// they already made. No balance changes until an admin approves.
func (s *Service) Submit(ctx context.Context, in ledger.TopUpRequestInput) (ledger.TopUpRequest, error) {
	if err := s.checkAmount(in.Amount); err != nil {
		return ledger.TopUpRequest{}, err
	}
	return s.ledger.SubmitTopUpRequest(ctx, in)
}

// Decide applies an admin ruling to a pending request. Approval credits the
// requester atomically with the status flip; rejection only records the
// reason and notifies.
func (s *Service) Decide(ctx context.Context, in ledger.DecideInput) (ledger.DecideResult, error) {
	res, err := s.ledger.DecideTopUpRequest(ctx, in)
	if err != nil {
		return ledger.DecideResult{}, err
	}
	if in.Approve {
		s.push(ctx, res.Request.AccountID, notification.KindTopUpApproved,
			fmt.Sprintf("Your top-up of %d cents was approved.", res.Request.Amount))
	} else {
		s.push(ctx, res.Request.AccountID, notification.KindTopUpRejected,
			fmt.Sprintf("Your top-up request for %d cents was rejected: %s", res.Request.Amount, in.Reason))
	}
	return res, nil
}

// Requests lists top-up requests newest first, narrowed by the filter.
func (s *Service) Requests(ctx context.Context, f ledger.RequestFilter) ([]ledger.TopUpRequest, error) {
	return s.ledger.TopUpRequests(ctx, f)
}
