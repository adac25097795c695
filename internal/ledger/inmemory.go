package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barterhub/wallet/internal/notification"
)

// inMemoryLedger mirrors the Postgres semantics under a single mutex. It
// backs unit tests and the dev-mode fallback when no database is configured.
type inMemoryLedger struct {
	mu            sync.Mutex
	balances      map[string]int64
	entries       map[string][]Entry
	vouchers      map[string]Voucher
	requests      map[string]TopUpRequest
	notifications map[string][]notification.Notification
	notifyErr     error
}

// NewInMemory creates a concurrency-safe in-memory ledger.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:      make(map[string]int64),
		entries:       make(map[string][]Entry),
		vouchers:      make(map[string]Voucher),
		requests:      make(map[string]TopUpRequest),
		notifications: make(map[string][]notification.Notification),
	}
}

// takeNotifyErr consumes an injected notification failure. Operations call
// it before applying any mutation so a failing notification insert leaves no
// partial state behind, matching the transactional backend.
func (l *inMemoryLedger) takeNotifyErr() error {
	err := l.notifyErr
	l.notifyErr = nil
	return err
}

func (l *inMemoryLedger) notify(accountID, kind, body string) {
	l.notifications[accountID] = append(l.notifications[accountID], notification.Notification{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
}

func (l *inMemoryLedger) appendEntry(e Entry) string {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	l.entries[e.AccountID] = append(l.entries[e.AccountID], e)
	return e.ID
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[accountID]; !exists {
		l.balances[accountID] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, exists := l.balances[accountID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) TopUp(_ context.Context, p TopUpPosting) (PostResult, error) {
	if p.Amount <= 0 {
		return PostResult{}, ErrAmountOutOfRange
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[p.AccountID]
	if !exists {
		return PostResult{}, ErrAccountNotFound
	}
	if err := l.takeNotifyErr(); err != nil {
		return PostResult{}, err
	}

	newBalance := balance + p.Amount
	l.balances[p.AccountID] = newBalance
	entryID := l.appendEntry(Entry{
		AccountID:    p.AccountID,
		Kind:         KindTopUp,
		Amount:       p.Amount,
		BalanceAfter: newBalance,
		Status:       EntryCompleted,
		Reference:    p.Reference,
		Description:  "top-up via " + p.Method,
	})
	l.notify(p.AccountID, notification.KindTopUp, "wallet topped up")

	return PostResult{EntryID: entryID, NewBalance: newBalance}, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, p TransferPosting) (TransferResult, error) {
	if p.Amount <= 0 || p.Fee < 0 || p.Fee >= p.Amount {
		return TransferResult{}, ErrAmountOutOfRange
	}
	if p.FromAccountID == p.ToAccountID {
		return TransferResult{}, ErrInvalidRecipient
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, ok := l.balances[p.FromAccountID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[p.ToAccountID]
	if !ok {
		return TransferResult{}, ErrRecipientNotFound
	}
	if fromBalance < p.Amount {
		return TransferResult{}, ErrInsufficientFunds
	}
	if err := l.takeNotifyErr(); err != nil {
		return TransferResult{}, err
	}

	transferID := p.Reference
	if transferID == "" {
		transferID = uuid.NewString()
	}

	newFromBalance := fromBalance - p.Amount
	newToBalance := toBalance + p.Amount - p.Fee
	l.balances[p.FromAccountID] = newFromBalance
	l.balances[p.ToAccountID] = newToBalance

	outID := l.appendEntry(Entry{
		AccountID:    p.FromAccountID,
		Kind:         KindTransferOut,
		Amount:       -p.Amount,
		Fee:          p.Fee,
		BalanceAfter: newFromBalance,
		Status:       EntryCompleted,
		Counterparty: p.ToAccountID,
		Reference:    transferID,
		Description:  p.Note,
	})
	inID := l.appendEntry(Entry{
		AccountID:    p.ToAccountID,
		Kind:         KindTransferIn,
		Amount:       p.Amount - p.Fee,
		BalanceAfter: newToBalance,
		Status:       EntryCompleted,
		Counterparty: p.FromAccountID,
		Reference:    transferID,
		Description:  p.Note,
	})
	l.notify(p.FromAccountID, notification.KindTransferSent, "transfer sent")
	l.notify(p.ToAccountID, notification.KindTransferReceived, "transfer received")

	return TransferResult{
		TransferID:  transferID,
		FromEntryID: outID,
		ToEntryID:   inID,
		FromBalance: newFromBalance,
	}, nil
}

func (l *inMemoryLedger) RedeemVoucher(_ context.Context, code, accountID string, now time.Time) (RedeemResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.vouchers[code]
	if !ok {
		return RedeemResult{}, ErrVoucherNotFound
	}
	if err := redeemableErr(v.Status, v.ExpiresAt, now); err != nil {
		return RedeemResult{}, err
	}
	balance, ok := l.balances[accountID]
	if !ok {
		return RedeemResult{}, ErrAccountNotFound
	}
	if err := l.takeNotifyErr(); err != nil {
		return RedeemResult{}, err
	}

	redeemedAt := now.UTC()
	v.Status = VoucherUsed
	v.RedeemedBy = accountID
	v.RedeemedAt = &redeemedAt
	l.vouchers[code] = v

	newBalance := balance + v.Amount
	l.balances[accountID] = newBalance
	entryID := l.appendEntry(Entry{
		AccountID:    accountID,
		Kind:         KindVoucher,
		Amount:       v.Amount,
		BalanceAfter: newBalance,
		Status:       EntryCompleted,
		Reference:    code,
		Description:  "voucher redemption",
	})
	l.notify(accountID, notification.KindVoucherRedeemed, "voucher redeemed")

	return RedeemResult{EntryID: entryID, Amount: v.Amount, NewBalance: newBalance}, nil
}

func (l *inMemoryLedger) SubmitTopUpRequest(_ context.Context, in TopUpRequestInput) (TopUpRequest, error) {
	if in.Amount <= 0 {
		return TopUpRequest{}, ErrAmountOutOfRange
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[in.AccountID]; !ok {
		return TopUpRequest{}, ErrAccountNotFound
	}
	req := TopUpRequest{
		ID:          uuid.NewString(),
		AccountID:   in.AccountID,
		Amount:      in.Amount,
		BankChannel: in.BankChannel,
		ReceiptRef:  in.ReceiptRef,
		Status:      RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
	l.requests[req.ID] = req
	return req, nil
}

func (l *inMemoryLedger) DecideTopUpRequest(_ context.Context, in DecideInput) (DecideResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[in.RequestID]
	if !ok {
		return DecideResult{}, ErrRequestNotFound
	}
	if req.Status != RequestPending {
		return DecideResult{}, ErrAlreadyProcessed
	}
	if err := l.takeNotifyErr(); err != nil {
		return DecideResult{}, err
	}

	decidedAt := time.Now().UTC()
	req.DecidedBy = in.AdminID
	req.DecidedAt = &decidedAt
	req.RejectionReason = in.Reason

	if !in.Approve {
		req.Status = RequestRejected
		l.requests[req.ID] = req
		l.notify(req.AccountID, notification.KindTopUpRejected, "top-up rejected: "+in.Reason)
		return DecideResult{Request: req}, nil
	}

	req.Status = RequestApproved
	l.requests[req.ID] = req
	newBalance := l.balances[req.AccountID] + req.Amount
	l.balances[req.AccountID] = newBalance
	entryID := l.appendEntry(Entry{
		AccountID:    req.AccountID,
		Kind:         KindTopUp,
		Amount:       req.Amount,
		BalanceAfter: newBalance,
		Status:       EntryCompleted,
		Reference:    req.ID,
		Description:  "top-up via " + req.BankChannel,
	})
	l.notify(req.AccountID, notification.KindTopUpApproved, "top-up approved")

	return DecideResult{Request: req, EntryID: entryID, NewBalance: newBalance}, nil
}

func (l *inMemoryLedger) Entries(_ context.Context, accountID string, f EntryFilter) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[accountID]; !ok {
		return nil, ErrAccountNotFound
	}

	all := l.entries[accountID]
	var matched []Entry
	for i := len(all) - 1; i >= 0; i-- { // newest first
		e := all[i]
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.CreatedAt.After(f.To) {
			continue
		}
		matched = append(matched, e)
	}

	limit := clampLimit(f.Limit)
	offset := clampOffset(f.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (l *inMemoryLedger) Summary(_ context.Context, accountID string) (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[accountID]; !ok {
		return Summary{}, ErrAccountNotFound
	}
	var s Summary
	for _, e := range l.entries[accountID] {
		if e.Status != EntryCompleted {
			continue
		}
		if e.Amount > 0 {
			s.Credits += e.Amount
		} else {
			s.Debits += -e.Amount
		}
		s.Fees += e.Fee
	}
	return s, nil
}

func (l *inMemoryLedger) Notifications(_ context.Context, accountID string, limit int) ([]notification.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := l.notifications[accountID]
	max := clampLimit(limit)
	var out []notification.Notification
	for i := len(all) - 1; i >= 0 && len(out) < max; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (l *inMemoryLedger) TopUpRequests(_ context.Context, f RequestFilter) ([]TopUpRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []TopUpRequest
	for _, req := range l.requests {
		if f.AccountID != "" && req.AccountID != f.AccountID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, req)
	}
	sortRequestsNewestFirst(out)
	limit := clampLimit(f.Limit)
	offset := clampOffset(f.Offset)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *inMemoryLedger) CreateVouchers(_ context.Context, in MintInput) ([]Voucher, error) {
	if in.Count <= 0 || in.Amount <= 0 {
		return nil, ErrAmountOutOfRange
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	vouchers := make([]Voucher, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		var code string
		for attempt := 0; attempt < mintMaxAttempts; attempt++ {
			candidate, err := randomCode()
			if err != nil {
				return nil, err
			}
			if _, exists := l.vouchers[candidate]; !exists {
				code = candidate
				break
			}
		}
		if code == "" {
			return nil, ErrVoucherUnavailable
		}
		v := Voucher{
			ID:        uuid.NewString(),
			Code:      code,
			Amount:    in.Amount,
			Type:      in.Type,
			Status:    VoucherUnused,
			ExpiresAt: in.ExpiresAt.UTC(),
			CreatedBy: in.CreatedBy,
			CreatedAt: time.Now().UTC(),
		}
		l.vouchers[code] = v
		vouchers = append(vouchers, v)
	}
	return vouchers, nil
}

func (l *inMemoryLedger) DisableVoucher(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.vouchers[code]
	if !ok {
		return ErrVoucherNotFound
	}
	if !v.Status.CanTransition(VoucherDisabled) {
		if v.Status == VoucherUsed {
			return ErrVoucherUsed
		}
		return ErrVoucherUnavailable
	}
	v.Status = VoucherDisabled
	l.vouchers[code] = v
	return nil
}

func (l *inMemoryLedger) Vouchers(_ context.Context, f VoucherFilter) ([]Voucher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Voucher
	for _, v := range l.vouchers {
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		out = append(out, v)
	}
	sortVouchersNewestFirst(out)
	limit := clampLimit(f.Limit)
	offset := clampOffset(f.Offset)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortRequestsNewestFirst(reqs []TopUpRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
}

func sortVouchersNewestFirst(vs []Voucher) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].CreatedAt.After(vs[j].CreatedAt) })
}
