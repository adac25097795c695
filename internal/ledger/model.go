package ledger

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Kind classifies a ledger entry.
type Kind string

const (
	KindTopUp       Kind = "topup"
	KindTransferIn  Kind = "transfer_in"
	KindTransferOut Kind = "transfer_out"
	KindVoucher     Kind = "voucher"
	KindListingFee  Kind = "listing_fee"
	KindRefund      Kind = "refund"
	KindTrade       Kind = "trade"
)

// Valid reports whether the kind is one of the known entry kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTopUp, KindTransferIn, KindTransferOut, KindVoucher, KindListingFee, KindRefund, KindTrade:
		return true
	}
	return false
}

// EntryStatus is the lifecycle state of a ledger entry. Completed, failed and
// refunded are terminal; pending entries may transition exactly once.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
	EntryRefunded  EntryStatus = "refunded"
)

// Entry is one immutable record of a balance-affecting event. Amount is
// signed integer cents; Fee is non-negative and only meaningful on
// transfer_out entries. BalanceAfter snapshots the account balance at commit.
type Entry struct {
	ID           string
	AccountID    string
	Kind         Kind
	Amount       int64
	Fee          int64
	BalanceAfter int64
	Status       EntryStatus
	Counterparty string
	Reference    string
	Description  string
	CreatedAt    time.Time
}

// EntryFilter narrows Entries listings. Zero values mean "no constraint".
type EntryFilter struct {
	Kind   Kind
	Status EntryStatus
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Summary aggregates an account's full committed history, independent of any
// listing filter: total credits, total debits (positive), and total fees.
type Summary struct {
	Credits int64
	Debits  int64
	Fees    int64
}

// VoucherStatus is the lifecycle state of a redemption code.
type VoucherStatus string

const (
	VoucherUnused   VoucherStatus = "unused"
	VoucherExported VoucherStatus = "exported"
	VoucherUsed     VoucherStatus = "used"
	VoucherDisabled VoucherStatus = "disabled"
	VoucherExpired  VoucherStatus = "expired"
)

// voucherTransitions is the single source of truth for allowed voucher status
// changes. used, disabled and expired are terminal.
var voucherTransitions = map[VoucherStatus][]VoucherStatus{
	VoucherUnused:   {VoucherExported, VoucherUsed, VoucherDisabled, VoucherExpired},
	VoucherExported: {VoucherUsed, VoucherDisabled, VoucherExpired},
}

// CanTransition reports whether a voucher may move from s to next.
func (s VoucherStatus) CanTransition(next VoucherStatus) bool {
	for _, allowed := range voucherTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Redeemable reports whether the status admits redemption.
func (s VoucherStatus) Redeemable() bool {
	return s == VoucherUnused || s == VoucherExported
}

// Voucher is a single-use, fixed-value redemption code.
type Voucher struct {
	ID         string
	Code       string
	Amount     int64
	Type       string
	Status     VoucherStatus
	ExpiresAt  time.Time
	CreatedBy  string
	RedeemedBy string
	RedeemedAt *time.Time
	CreatedAt  time.Time
}

// Expired applies the lazy expiry rule: a voucher past its expiry time counts
// as expired even if the stored status has not been updated yet.
func (v Voucher) Expired(now time.Time) bool {
	return v.Status == VoucherExpired || (!v.ExpiresAt.IsZero() && v.ExpiresAt.Before(now))
}

// VoucherFilter narrows admin voucher listings.
type VoucherFilter struct {
	Status VoucherStatus
	Limit  int
	Offset int
}

// RequestStatus is the lifecycle state of a deferred top-up request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the request status can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// TopUpRequest is a pending external-payment claim awaiting admin review.
type TopUpRequest struct {
	ID              string
	AccountID       string
	Amount          int64
	BankChannel     string
	ReceiptRef      string
	Status          RequestStatus
	RejectionReason string
	DecidedBy       string
	CreatedAt       time.Time
	DecidedAt       *time.Time
}

// RequestFilter narrows top-up request listings.
type RequestFilter struct {
	AccountID string
	Status    RequestStatus
	Limit     int
	Offset    int
}

// TopUpPosting describes an immediate self-service credit.
type TopUpPosting struct {
	AccountID string
	Amount    int64
	Method    string
	Reference string
}

// PostResult is the outcome of a single-account posting.
type PostResult struct {
	EntryID    string
	NewBalance int64
}

// TransferPosting describes an atomic two-account movement. Amount is the
// full sender debit; Fee has already been computed by the transfer engine
// and is deducted from what the recipient receives.
type TransferPosting struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Fee           int64
	Reference     string
	Note          string
}

// TransferResult is the outcome of a transfer posting.
type TransferResult struct {
	TransferID  string
	FromEntryID string
	ToEntryID   string
	FromBalance int64
}

// RedeemResult is the outcome of a voucher redemption.
type RedeemResult struct {
	EntryID    string
	Amount     int64
	NewBalance int64
}

// TopUpRequestInput captures a deferred top-up claim.
type TopUpRequestInput struct {
	AccountID   string
	Amount      int64
	BankChannel string
	ReceiptRef  string
}

// DecideInput captures an admin ruling on a pending top-up request.
type DecideInput struct {
	RequestID string
	Approve   bool
	AdminID   string
	Reason    string
}

// DecideResult is the outcome of a top-up decision. EntryID and NewBalance
// are only set on approval.
type DecideResult struct {
	Request    TopUpRequest
	EntryID    string
	NewBalance int64
}

// MintInput describes a batch of vouchers to generate.
type MintInput struct {
	Count     int
	Amount    int64
	Type      string
	ExpiresAt time.Time
	CreatedBy string
}

const voucherCodeDigits = 10

var voucherCodeSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(voucherCodeDigits), nil)

// randomCode draws a uniformly random 10-digit voucher code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, voucherCodeSpace)
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < voucherCodeDigits {
		code = "0" + code
	}
	return code, nil
}
