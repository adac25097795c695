package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestLedger(t *testing.T, accounts map[string]int64) Ledger {
	t.Helper()
	l := NewInMemory()
	ctx := context.Background()
	for id, balance := range accounts {
		if err := l.EnsureAccount(ctx, id); err != nil {
			t.Fatalf("ensure account %s: %v", id, err)
		}
		SeedBalance(l, id, balance)
	}
	return l
}

func TestTransferConservesBalances(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 100_000, "bob": 0})

	// N$1000 balance, N$200 transfer at 5% fee.
	res, err := l.Transfer(ctx, TransferPosting{
		FromAccountID: "alice",
		ToAccountID:   "bob",
		Amount:        20_000,
		Fee:           1_000,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance != 80_000 {
		t.Fatalf("sender balance = %d, want 80000", res.FromBalance)
	}
	if bal, _ := l.Balance(ctx, "bob"); bal != 19_000 {
		t.Fatalf("recipient balance = %d, want 19000", bal)
	}

	out, err := l.Entries(ctx, "alice", EntryFilter{})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(out) != 1 || out[0].Kind != KindTransferOut || out[0].Amount != -20_000 || out[0].Fee != 1_000 {
		t.Fatalf("unexpected sender entry: %+v", out)
	}
	in, _ := l.Entries(ctx, "bob", EntryFilter{})
	if len(in) != 1 || in[0].Kind != KindTransferIn || in[0].Amount != 19_000 || in[0].Fee != 0 {
		t.Fatalf("unexpected recipient entry: %+v", in)
	}
	if out[0].Reference == "" || out[0].Reference != in[0].Reference {
		t.Fatalf("entries do not share a correlation reference: %q vs %q", out[0].Reference, in[0].Reference)
	}
	if out[0].BalanceAfter != 80_000 || in[0].BalanceAfter != 19_000 {
		t.Fatalf("balance snapshots wrong: %d / %d", out[0].BalanceAfter, in[0].BalanceAfter)
	}
}

func TestTransferInsufficientFundsLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 1_000, "bob": 0})

	_, err := l.Transfer(ctx, TransferPosting{FromAccountID: "alice", ToAccountID: "bob", Amount: 5_000, Fee: 250})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if bal, _ := l.Balance(ctx, "alice"); bal != 1_000 {
		t.Fatalf("sender balance mutated: %d", bal)
	}
	for _, id := range []string{"alice", "bob"} {
		entries, _ := l.Entries(ctx, id, EntryFilter{})
		if len(entries) != 0 {
			t.Fatalf("entries created for %s on failed transfer: %+v", id, entries)
		}
	}
}

func TestTransferSelfRejected(t *testing.T) {
	l := newTestLedger(t, map[string]int64{"alice": 10_000})
	_, err := l.Transfer(context.Background(), TransferPosting{FromAccountID: "alice", ToAccountID: "alice", Amount: 1_000, Fee: 50})
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestRedeemVoucherScenario(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"carol": 0})
	SeedVoucher(l, Voucher{
		ID:        "v1",
		Code:      "1234567890",
		Amount:    5_000,
		Status:    VoucherUnused,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	res, err := l.RedeemVoucher(ctx, "1234567890", "carol", time.Now())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Amount != 5_000 || res.NewBalance != 5_000 {
		t.Fatalf("unexpected redeem result: %+v", res)
	}
	entries, _ := l.Entries(ctx, "carol", EntryFilter{})
	if len(entries) != 1 || entries[0].Kind != KindVoucher || entries[0].Reference != "1234567890" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	// Second redemption must observe the used status.
	if _, err := l.RedeemVoucher(ctx, "1234567890", "carol", time.Now()); !errors.Is(err, ErrVoucherUsed) {
		t.Fatalf("expected ErrVoucherUsed, got %v", err)
	}
}

func TestRedeemVoucherConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	accounts := map[string]int64{}
	const redeemers = 16
	ids := make([]string, redeemers)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		accounts[ids[i]] = 0
	}
	l := newTestLedger(t, accounts)
	SeedVoucher(l, Voucher{Code: "0000000042", Amount: 1_000, Status: VoucherUnused, ExpiresAt: time.Now().Add(time.Hour)})

	var wg sync.WaitGroup
	results := make(chan error, redeemers)
	for _, id := range ids {
		wg.Add(1)
		go func(account string) {
			defer wg.Done()
			_, err := l.RedeemVoucher(ctx, "0000000042", account, time.Now())
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVoucherUsed):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != redeemers-1 {
		t.Fatalf("wins=%d losses=%d, want 1/%d", wins, losses, redeemers-1)
	}
}

func TestRedeemVoucherErrorStates(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := newTestLedger(t, map[string]int64{"carol": 0})

	SeedVoucher(l, Voucher{Code: "1111111111", Amount: 100, Status: VoucherDisabled, ExpiresAt: now.Add(time.Hour)})
	SeedVoucher(l, Voucher{Code: "2222222222", Amount: 100, Status: VoucherUnused, ExpiresAt: now.Add(-time.Minute)})
	SeedVoucher(l, Voucher{Code: "3333333333", Amount: 100, Status: VoucherExported, ExpiresAt: now.Add(time.Hour)})

	if _, err := l.RedeemVoucher(ctx, "9999999999", "carol", now); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("missing code: got %v", err)
	}
	if _, err := l.RedeemVoucher(ctx, "1111111111", "carol", now); !errors.Is(err, ErrVoucherDisabled) {
		t.Fatalf("disabled: got %v", err)
	}
	// Stored status still unused, but the expiry has passed: lazy expiry applies.
	if _, err := l.RedeemVoucher(ctx, "2222222222", "carol", now); !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expired: got %v", err)
	}
	// Exported vouchers remain redeemable.
	if _, err := l.RedeemVoucher(ctx, "3333333333", "carol", now); err != nil {
		t.Fatalf("exported should redeem: %v", err)
	}
}

func TestDecideTopUpRequestIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"dave": 0})

	req, err := l.SubmitTopUpRequest(ctx, TopUpRequestInput{AccountID: "dave", Amount: 30_000, BankChannel: "FNB", ReceiptRef: "rcpt-1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != RequestPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	res, err := l.DecideTopUpRequest(ctx, DecideInput{RequestID: req.ID, Approve: true, AdminID: "admin"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.NewBalance != 30_000 || res.Request.Status != RequestApproved {
		t.Fatalf("unexpected decide result: %+v", res)
	}

	// Second decision, even with a different outcome, must not move money.
	if _, err := l.DecideTopUpRequest(ctx, DecideInput{RequestID: req.ID, Approve: false, AdminID: "admin", Reason: "oops"}); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if bal, _ := l.Balance(ctx, "dave"); bal != 30_000 {
		t.Fatalf("balance mutated twice: %d", bal)
	}
	entries, _ := l.Entries(ctx, "dave", EntryFilter{})
	if len(entries) != 1 {
		t.Fatalf("want exactly one topup entry, got %d", len(entries))
	}
}

func TestRejectTopUpRequestKeepsBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"dave": 0})

	req, _ := l.SubmitTopUpRequest(ctx, TopUpRequestInput{AccountID: "dave", Amount: 30_000, BankChannel: "FNB"})
	res, err := l.DecideTopUpRequest(ctx, DecideInput{RequestID: req.ID, Approve: false, AdminID: "admin", Reason: "receipt unreadable"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if res.Request.Status != RequestRejected || res.Request.RejectionReason != "receipt unreadable" {
		t.Fatalf("unexpected request state: %+v", res.Request)
	}
	if bal, _ := l.Balance(ctx, "dave"); bal != 0 {
		t.Fatalf("rejection credited balance: %d", bal)
	}

	notes, _ := l.Notifications(ctx, "dave", 10)
	if len(notes) != 1 {
		t.Fatalf("want one notification, got %d", len(notes))
	}
	if notes[0].Kind != "topup_rejected" {
		t.Fatalf("notification kind = %s", notes[0].Kind)
	}
}

func TestDecideMissingRequest(t *testing.T) {
	l := newTestLedger(t, nil)
	_, err := l.DecideTopUpRequest(context.Background(), DecideInput{RequestID: "nope", Approve: true, AdminID: "admin"})
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestNotificationFailureRollsBackTransfer(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 10_000, "bob": 0})

	injected := errors.New("notification store down")
	FailNextNotification(l, injected)

	_, err := l.Transfer(ctx, TransferPosting{FromAccountID: "alice", ToAccountID: "bob", Amount: 2_000, Fee: 100})
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if bal, _ := l.Balance(ctx, "alice"); bal != 10_000 {
		t.Fatalf("sender balance leaked: %d", bal)
	}
	if bal, _ := l.Balance(ctx, "bob"); bal != 0 {
		t.Fatalf("recipient balance leaked: %d", bal)
	}
	entries, _ := l.Entries(ctx, "alice", EntryFilter{})
	if len(entries) != 0 {
		t.Fatalf("entries leaked: %+v", entries)
	}

	// A later transfer succeeds once the failure is consumed.
	if _, err := l.Transfer(ctx, TransferPosting{FromAccountID: "alice", ToAccountID: "bob", Amount: 2_000, Fee: 100}); err != nil {
		t.Fatalf("transfer after recovery: %v", err)
	}
}

func TestEntriesFilterAndUnfilteredSummary(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 100_000, "bob": 0})

	if _, err := l.TopUp(ctx, TopUpPosting{AccountID: "alice", Amount: 5_000, Method: "card"}); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := l.Transfer(ctx, TransferPosting{FromAccountID: "alice", ToAccountID: "bob", Amount: 10_000, Fee: 500}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	topups, err := l.Entries(ctx, "alice", EntryFilter{Kind: KindTopUp})
	if err != nil {
		t.Fatalf("filtered entries: %v", err)
	}
	if len(topups) != 1 || topups[0].Kind != KindTopUp {
		t.Fatalf("filter leaked other kinds: %+v", topups)
	}

	// The summary covers the whole history even when listings are filtered.
	s, err := l.Summary(ctx, "alice")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Credits != 5_000 || s.Debits != 10_000 || s.Fees != 500 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestBalanceMatchesEntrySum(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 0, "bob": 0})

	if _, err := l.TopUp(ctx, TopUpPosting{AccountID: "alice", Amount: 50_000, Method: "card"}); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := l.Transfer(ctx, TransferPosting{FromAccountID: "alice", ToAccountID: "bob", Amount: 20_000, Fee: 1_000}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	for _, id := range []string{"alice", "bob"} {
		entries, _ := l.Entries(ctx, id, EntryFilter{})
		var sum int64
		for _, e := range entries {
			sum += e.Amount
		}
		bal, _ := l.Balance(ctx, id)
		if sum != bal {
			t.Fatalf("account %s: entry sum %d != cached balance %d", id, sum, bal)
		}
	}
}

func TestCreateAndDisableVouchers(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, nil)

	minted, err := l.CreateVouchers(ctx, MintInput{Count: 5, Amount: 2_500, Type: "promo", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if len(minted) != 5 {
		t.Fatalf("minted %d, want 5", len(minted))
	}
	seen := map[string]bool{}
	for _, v := range minted {
		if len(v.Code) != 10 {
			t.Fatalf("code %q is not 10 digits", v.Code)
		}
		if seen[v.Code] {
			t.Fatalf("duplicate code %q", v.Code)
		}
		seen[v.Code] = true
		if v.Status != VoucherUnused {
			t.Fatalf("minted status = %s", v.Status)
		}
	}

	if err := l.DisableVoucher(ctx, minted[0].Code); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := l.DisableVoucher(ctx, minted[0].Code); !errors.Is(err, ErrVoucherUnavailable) {
		t.Fatalf("double disable: got %v", err)
	}

	disabled, err := l.Vouchers(ctx, VoucherFilter{Status: VoucherDisabled})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(disabled) != 1 || disabled[0].Code != minted[0].Code {
		t.Fatalf("unexpected disabled listing: %+v", disabled)
	}
}

func TestVoucherTransitionTable(t *testing.T) {
	cases := []struct {
		from, to VoucherStatus
		ok       bool
	}{
		{VoucherUnused, VoucherUsed, true},
		{VoucherUnused, VoucherExported, true},
		{VoucherExported, VoucherUsed, true},
		{VoucherUsed, VoucherUnused, false},
		{VoucherUsed, VoucherUsed, false},
		{VoucherDisabled, VoucherUsed, false},
		{VoucherExpired, VoucherUsed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTransferMissingRecipient(t *testing.T) {
	ctx := context.Background()
	// Recipient ids sorting both before and after the sender, so the error
	// does not depend on lock ordering.
	l := newTestLedger(t, map[string]int64{"mmmm": 10_000})

	for _, missing := range []string{"aaaa", "zzzz"} {
		_, err := l.Transfer(ctx, TransferPosting{FromAccountID: "mmmm", ToAccountID: missing, Amount: 1_000, Fee: 50})
		if !errors.Is(err, ErrRecipientNotFound) {
			t.Fatalf("recipient %q: err = %v, want ErrRecipientNotFound", missing, err)
		}
	}
}

func TestListingsClampNegativeOffset(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, map[string]int64{"alice": 0})

	if _, err := l.TopUp(ctx, TopUpPosting{AccountID: "alice", Amount: 1_000, Method: "card"}); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := l.SubmitTopUpRequest(ctx, TopUpRequestInput{AccountID: "alice", Amount: 1_000, BankChannel: "FNB"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := l.CreateVouchers(ctx, MintInput{Count: 1, Amount: 500}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	entries, err := l.Entries(ctx, "alice", EntryFilter{Offset: -1})
	if err != nil {
		t.Fatalf("entries with negative offset: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	requests, err := l.TopUpRequests(ctx, RequestFilter{Offset: -3})
	if err != nil {
		t.Fatalf("requests with negative offset: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(requests))
	}

	vouchers, err := l.Vouchers(ctx, VoucherFilter{Offset: -7})
	if err != nil {
		t.Fatalf("vouchers with negative offset: %v", err)
	}
	if len(vouchers) != 1 {
		t.Fatalf("got %d vouchers, want 1", len(vouchers))
	}
}
