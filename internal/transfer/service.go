package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/identity"
	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/notification"
)

// SendInput describes a peer-to-peer transfer attempt. Exactly one of
// RecipientPhone or RecipientEmail identifies the recipient.
type SendInput struct {
	RecipientPhone string
	RecipientEmail string
	Amount         int64
	Note           string
}

// Receipt is the sender's view of a committed transfer.
type Receipt struct {
	TransferID      string
	RecipientID     string
	RecipientName   string
	Amount          int64
	Fee             int64
	RecipientAmount int64
	NewBalance      int64
}

// Service validates transfers and hands the posting to the ledger. Fee
// calculation and recipient resolution happen here; balance sufficiency is
// re-checked inside the ledger transaction.
type Service struct {
	ledger   ledger.Ledger
	ids      *identity.Service
	notifier notification.Notifier
	policy   config.Policy
}

// NewService creates a transfer service. The notifier receives fire-and-forget
// pushes after commit; durable notification rows are written by the ledger.
func NewService(l ledger.Ledger, ids *identity.Service, notifier notification.Notifier, policy config.Policy) *Service {
	return &Service{ledger: l, ids: ids, notifier: notifier, policy: policy}
}

func (s *Service) push(ctx context.Context, accountID, kind, body string) {
	if s.notifier == nil {
		return
	}
	// Best effort: delivery failures never affect committed ledger state.
	_ = s.notifier.Send(ctx, notification.Notification{AccountID: accountID, Kind: kind, Body: body})
}

// Fee computes the platform fee for an amount at the given basis-point rate,
// rounding half up. All arithmetic stays in integer cents.
func Fee(amount int64, bps int) int64 {
	return (amount*int64(bps) + 5_000) / 10_000
}

// Send validates the input, resolves the recipient and posts the transfer.
// Validation order is fixed: amount bounds first, then recipient resolution,
// then the self-transfer check; sufficiency is decided by the ledger.
func (s *Service) Send(ctx context.Context, senderID string, in SendInput) (Receipt, error) {
	if in.Amount < s.policy.TransferMinCents || in.Amount > s.policy.TransferMaxCents {
		return Receipt{}, ledger.ErrAmountOutOfRange
	}

	phone := strings.TrimSpace(in.RecipientPhone)
	email := strings.TrimSpace(in.RecipientEmail)
	if phone == "" && email == "" {
		return Receipt{}, ledger.ErrRecipientNotFound
	}
	recipient, err := s.ids.Resolve(ctx, phone, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return Receipt{}, ledger.ErrRecipientNotFound
		}
		return Receipt{}, err
	}
	if recipient.ID == senderID {
		return Receipt{}, ledger.ErrInvalidRecipient
	}

	fee := Fee(in.Amount, s.policy.TransferFeeBps)
	res, err := s.ledger.Transfer(ctx, ledger.TransferPosting{
		FromAccountID: senderID,
		ToAccountID:   recipient.ID,
		Amount:        in.Amount,
		Fee:           fee,
		Note:          strings.TrimSpace(in.Note),
	})
	if err != nil {
		return Receipt{}, err
	}

	s.push(ctx, senderID, notification.KindTransferSent,
		fmt.Sprintf("You sent %d cents (fee %d cents).", in.Amount, fee))
	s.push(ctx, recipient.ID, notification.KindTransferReceived,
		fmt.Sprintf("You received %d cents.", in.Amount-fee))

	return Receipt{
		TransferID:      res.TransferID,
		RecipientID:     recipient.ID,
		RecipientName:   recipient.Name,
		Amount:          in.Amount,
		Fee:             fee,
		RecipientAmount: in.Amount - fee,
		NewBalance:      res.FromBalance,
	}, nil
}
