package wallet

import (
	"context"

	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/notification"
)

// Service exposes the read surface of a wallet account.
type Service struct {
	ledger ledger.Ledger
}

// NewService creates a wallet read service.
func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// Balance returns the current balance in cents.
func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.ledger.Balance(ctx, accountID)
}

// History lists ledger entries newest first according to the filter, paired
// with the account's unfiltered summary. The summary always reflects the
// full committed history so clients cannot confuse a filtered page for the
// account totals.
func (s *Service) History(ctx context.Context, accountID string, f ledger.EntryFilter) ([]ledger.Entry, ledger.Summary, error) {
	entries, err := s.ledger.Entries(ctx, accountID, f)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	summary, err := s.ledger.Summary(ctx, accountID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	return entries, summary, nil
}

// Notifications lists the most recent notifications for the account.
func (s *Service) Notifications(ctx context.Context, accountID string, limit int) ([]notification.Notification, error) {
	return s.ledger.Notifications(ctx, accountID, limit)
}
