package ledger

import "errors"

var (
	// ErrAccountNotFound occurs when the referenced wallet account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when the source account lacks available
	// balance to cover a requested debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAmountOutOfRange occurs when an amount falls outside policy bounds.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrRecipientNotFound occurs when a transfer recipient lookup matches nobody.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInvalidRecipient occurs when the sender and recipient are the same account.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrInvalidVoucherFormat occurs when a voucher code is not 10 digits.
	ErrInvalidVoucherFormat = errors.New("voucher code must be 10 digits")

	// ErrVoucherNotFound occurs when no voucher carries the supplied code.
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrVoucherUsed occurs when the voucher was already redeemed, including
	// when a concurrent redeemer won the race for the same code.
	ErrVoucherUsed = errors.New("voucher already used")

	// ErrVoucherDisabled occurs when the voucher was administratively disabled.
	ErrVoucherDisabled = errors.New("voucher disabled")

	// ErrVoucherExpired occurs when the voucher is past its expiry time.
	ErrVoucherExpired = errors.New("voucher expired")

	// ErrVoucherUnavailable occurs when the voucher is in a state that admits
	// no redemption for any other reason.
	ErrVoucherUnavailable = errors.New("voucher unavailable")

	// ErrRequestNotFound occurs when the top-up request does not exist.
	ErrRequestNotFound = errors.New("top-up request not found")

	// ErrAlreadyProcessed occurs when a top-up request already reached a
	// terminal status and a second decision is attempted.
	ErrAlreadyProcessed = errors.New("top-up request already processed")
)

var errorCodes = map[error]string{
	ErrAccountNotFound:      "ACCOUNT_NOT_FOUND",
	ErrInsufficientFunds:    "INSUFFICIENT_FUNDS",
	ErrAmountOutOfRange:     "AMOUNT_OUT_OF_RANGE",
	ErrRecipientNotFound:    "RECIPIENT_NOT_FOUND",
	ErrInvalidRecipient:     "INVALID_RECIPIENT",
	ErrInvalidVoucherFormat: "INVALID_FORMAT",
	ErrVoucherNotFound:      "VOUCHER_NOT_FOUND",
	ErrVoucherUsed:          "VOUCHER_USED",
	ErrVoucherDisabled:      "VOUCHER_DISABLED",
	ErrVoucherExpired:       "VOUCHER_EXPIRED",
	ErrVoucherUnavailable:   "VOUCHER_UNAVAILABLE",
	ErrRequestNotFound:      "REQUEST_NOT_FOUND",
	ErrAlreadyProcessed:     "ALREADY_PROCESSED",
}

// Code maps a domain error to its stable machine-readable code. Unknown
// errors map to INTERNAL so infrastructure detail never leaks to callers.
func Code(err error) string {
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "INTERNAL"
}
