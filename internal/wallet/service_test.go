package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/barterhub/wallet/internal/ledger"
)

func TestHistoryKeepsSummaryUnfiltered(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l)
	ctx := context.Background()

	account := uuid.NewString()
	other := uuid.NewString()
	ledger.SeedBalance(l, account, 0)
	ledger.SeedBalance(l, other, 0)

	if _, err := l.TopUp(ctx, ledger.TopUpPosting{AccountID: account, Amount: 10_000, Method: "card"}); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := l.Transfer(ctx, ledger.TransferPosting{
		FromAccountID: account,
		ToAccountID:   other,
		Amount:        2_000,
		Fee:           100,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	entries, summary, err := svc.History(ctx, account, ledger.EntryFilter{Kind: ledger.KindTopUp})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != ledger.KindTopUp {
		t.Fatalf("filtered entries = %+v", entries)
	}

	// The summary covers the whole history even when the listing is filtered.
	if summary.Credits != 10_000 {
		t.Fatalf("credits = %d, want 10000", summary.Credits)
	}
	if summary.Debits != 2_000 {
		t.Fatalf("debits = %d, want 2000", summary.Debits)
	}
	if summary.Fees != 100 {
		t.Fatalf("fees = %d, want 100", summary.Fees)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l)
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)

	if _, err := l.TopUp(ctx, ledger.TopUpPosting{AccountID: account, Amount: 1_000, Method: "card"}); err != nil {
		t.Fatalf("first topup: %v", err)
	}
	if _, err := l.TopUp(ctx, ledger.TopUpPosting{AccountID: account, Amount: 2_000, Method: "card"}); err != nil {
		t.Fatalf("second topup: %v", err)
	}

	items, err := svc.Notifications(ctx, account, 1)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d notifications, want 1 with limit", len(items))
	}
}
