package ledger

import (
	"context"
	"time"

	"github.com/barterhub/wallet/internal/notification"
)

// Ledger is the coordinator for every balance-affecting operation. Each
// mutating method runs as one atomic unit of work: the balance adjustment,
// the entry append, any voucher/request status transition and the
// notification insert commit together or not at all. Direct balance writes
// outside this interface are disallowed by design.
type Ledger interface {
	// EnsureAccount guarantees a wallet account exists for the given id.
	EnsureAccount(ctx context.Context, accountID string) error

	// Balance returns the cached balance in cents.
	Balance(ctx context.Context, accountID string) (int64, error)

	// Entries lists ledger entries newest first, narrowed by the filter.
	Entries(ctx context.Context, accountID string, f EntryFilter) ([]Entry, error)

	// Summary aggregates the unfiltered committed history for the account.
	Summary(ctx context.Context, accountID string) (Summary, error)

	// Notifications lists the most recent notification rows for the account.
	Notifications(ctx context.Context, accountID string, limit int) ([]notification.Notification, error)

	// TopUp credits the account immediately and records a completed topup entry.
	TopUp(ctx context.Context, p TopUpPosting) (PostResult, error)

	// Transfer debits the full amount from the sender and credits
	// amount-fee to the recipient; both entries share one correlation
	// reference. Sufficiency is re-checked against the locked sender row.
	Transfer(ctx context.Context, p TransferPosting) (TransferResult, error)

	// RedeemVoucher marks the voucher used (conditional on a redeemable
	// status, so concurrent redeemers lose with ErrVoucherUsed), credits the
	// redeemer and appends a voucher entry referencing the code.
	RedeemVoucher(ctx context.Context, code, accountID string, now time.Time) (RedeemResult, error)

	// SubmitTopUpRequest records a pending external-payment claim.
	SubmitTopUpRequest(ctx context.Context, in TopUpRequestInput) (TopUpRequest, error)

	// DecideTopUpRequest transitions a pending request to approved or
	// rejected. A request already in a terminal status fails with
	// ErrAlreadyProcessed; only approval moves money.
	DecideTopUpRequest(ctx context.Context, in DecideInput) (DecideResult, error)

	// TopUpRequests lists requests newest first, narrowed by the filter.
	TopUpRequests(ctx context.Context, f RequestFilter) ([]TopUpRequest, error)

	// CreateVouchers mints a batch of unique 10-digit codes.
	CreateVouchers(ctx context.Context, in MintInput) ([]Voucher, error)

	// DisableVoucher retires a code that has not been redeemed.
	DisableVoucher(ctx context.Context, code string) error

	// Vouchers lists vouchers newest first, narrowed by the filter.
	Vouchers(ctx context.Context, f VoucherFilter) ([]Voucher, error)
}
