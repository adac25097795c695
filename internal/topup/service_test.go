package topup

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/barterhub/wallet/internal/config"
	"github.com/barterhub/wallet/internal/ledger"
	"github.com/barterhub/wallet/internal/notification"
)

type captureNotifier struct {
	sent []notification.Notification
}

func (c *captureNotifier) Send(_ context.Context, n notification.Notification) error {
	c.sent = append(c.sent, n)
	return nil
}

func newTestService() (*Service, ledger.Ledger, *captureNotifier) {
	l := ledger.NewInMemory()
	notifier := &captureNotifier{}
	policy := config.Policy{TopUpMinCents: 500, TopUpMaxCents: 5_000_000}
	return NewService(l, notifier, policy), l, notifier
}

func TestNowCreditsImmediately(t *testing.T) {
	svc, l, notifier := newTestService()
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 1_000)

	res, err := svc.Now(ctx, account, 10_000, "card", "pay-ref-1")
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if res.NewBalance != 11_000 {
		t.Fatalf("balance = %d, want 11000", res.NewBalance)
	}

	entries, err := l.Entries(ctx, account, ledger.EntryFilter{Kind: ledger.KindTopUp})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d topup entries, want 1", len(entries))
	}
	if entries[0].Status != ledger.EntryCompleted {
		t.Fatalf("entry status = %s, want completed", entries[0].Status)
	}
	if entries[0].Reference != "pay-ref-1" {
		t.Fatalf("entry reference = %q, want pay-ref-1", entries[0].Reference)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Kind != notification.KindTopUp {
		t.Fatalf("pushes = %+v, want one topup push", notifier.sent)
	}
}

func TestNowEnforcesBounds(t *testing.T) {
	svc, l, _ := newTestService()
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)

	for _, amount := range []int64{0, 499, 5_000_001} {
		_, err := svc.Now(ctx, account, amount, "card", "")
		if !errors.Is(err, ledger.ErrAmountOutOfRange) {
			t.Fatalf("amount %d: err = %v, want ErrAmountOutOfRange", amount, err)
		}
	}

	if _, err := svc.Now(ctx, account, 500, "card", ""); err != nil {
		t.Fatalf("minimum amount rejected: %v", err)
	}
	if _, err := svc.Now(ctx, account, 5_000_000, "card", ""); err != nil {
		t.Fatalf("maximum amount rejected: %v", err)
	}
}

func TestSubmitAndApprove(t *testing.T) {
	svc, l, notifier := newTestService()
	ctx := context.Background()

	account := uuid.NewString()
	admin := uuid.NewString()
	ledger.SeedBalance(l, account, 0)

	req, err := svc.Submit(ctx, ledger.TopUpRequestInput{
		AccountID:   account,
		Amount:      50_000,
		BankChannel: "FNB",
		ReceiptRef:  "FNB-20260831-01",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != ledger.RequestPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	// Submission alone never moves money.
	balance, err := l.Balance(ctx, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance after submit = %d, want 0", balance)
	}

	res, err := svc.Decide(ctx, ledger.DecideInput{RequestID: req.ID, Approve: true, AdminID: admin})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.NewBalance != 50_000 {
		t.Fatalf("balance after approve = %d, want 50000", res.NewBalance)
	}
	if res.Request.Status != ledger.RequestApproved {
		t.Fatalf("request status = %s, want approved", res.Request.Status)
	}

	// A second ruling on the same request must fail without moving money.
	if _, err := svc.Decide(ctx, ledger.DecideInput{RequestID: req.ID, Approve: true, AdminID: admin}); !errors.Is(err, ledger.ErrAlreadyProcessed) {
		t.Fatalf("second decide err = %v, want ErrAlreadyProcessed", err)
	}
	if balance, _ = l.Balance(ctx, account); balance != 50_000 {
		t.Fatalf("balance after duplicate approve = %d, want 50000", balance)
	}

	// Only the successful approval produced a push.
	if len(notifier.sent) != 1 || notifier.sent[0].Kind != notification.KindTopUpApproved {
		t.Fatalf("pushes = %+v, want one topup_approved push", notifier.sent)
	}
}

func TestSubmitEnforcesBounds(t *testing.T) {
	svc, l, _ := newTestService()
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)

	_, err := svc.Submit(ctx, ledger.TopUpRequestInput{AccountID: account, Amount: 100, BankChannel: "FNB"})
	if !errors.Is(err, ledger.ErrAmountOutOfRange) {
		t.Fatalf("err = %v, want ErrAmountOutOfRange", err)
	}
}

func TestRequestsFilterByAccount(t *testing.T) {
	svc, l, _ := newTestService()
	ctx := context.Background()

	first := uuid.NewString()
	second := uuid.NewString()
	ledger.SeedBalance(l, first, 0)
	ledger.SeedBalance(l, second, 0)

	if _, err := svc.Submit(ctx, ledger.TopUpRequestInput{AccountID: first, Amount: 1_000, BankChannel: "FNB"}); err != nil {
		t.Fatalf("submit first: %v", err)
	}
	if _, err := svc.Submit(ctx, ledger.TopUpRequestInput{AccountID: second, Amount: 2_000, BankChannel: "Bank Windhoek"}); err != nil {
		t.Fatalf("submit second: %v", err)
	}

	mine, err := svc.Requests(ctx, ledger.RequestFilter{AccountID: first})
	if err != nil {
		t.Fatalf("requests: %v", err)
	}
	if len(mine) != 1 || mine[0].AccountID != first {
		t.Fatalf("filtered requests = %+v", mine)
	}

	all, err := svc.Requests(ctx, ledger.RequestFilter{Status: ledger.RequestPending})
	if err != nil {
		t.Fatalf("pending requests: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d pending requests, want 2", len(all))
	}
}
