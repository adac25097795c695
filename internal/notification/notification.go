package notification

import (
	"context"
	"log/slog"
	"time"
)

// Notification kinds emitted by ledger operations.
const (
	KindTransferReceived = "transfer_received"
	KindTransferSent     = "transfer_sent"
	KindTopUp            = "topup"
	KindTopUpApproved    = "topup_approved"
	KindTopUpRejected    = "topup_rejected"
	KindVoucherRedeemed  = "voucher_redeemed"
)

// Notification is a durable per-account event row. Rows produced by money
// movement are inserted inside the same transaction as the balance mutation.
type Notification struct {
	ID        string
	AccountID string
	Kind      string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// Notifier delivers fire-and-forget events to downstream collaborators
// (push gateways, emails). Failures here never affect ledger state.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the notification to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, msg Notification) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", msg.Kind, "account_id", msg.AccountID, "body", msg.Body)
	return nil
}
