package voucher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

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

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234567890", "1234567890", true},
		{"12345 67890", "1234567890", true},
		{"123-456-7890", "1234567890", true},
		{" 1234567890 ", "1234567890", true},
		{"code:1234567890", "1234567890", true},
		{"VCHR#12-345 678.90", "1234567890", true},
		{"0000000001", "0000000001", true},
		{"123456789", "", false},
		{"12345678901", "", false},
		{"junk 12345678901 junk", "", false},
		{"12345abcde", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, ledger.ErrInvalidVoucherFormat) {
			t.Fatalf("Normalize(%q) err = %v, want ErrInvalidVoucherFormat", tc.in, err)
		}
	}
}

func TestRedeemAcceptsFormattedCode(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &captureNotifier{}
	svc := NewService(l, notifier)
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)
	ledger.SeedVoucher(l, ledger.Voucher{
		ID:        uuid.NewString(),
		Code:      "5551234567",
		Amount:    2_500,
		Status:    ledger.VoucherUnused,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	})

	res, err := svc.Redeem(ctx, account, "555 123-4567")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if res.Amount != 2_500 {
		t.Fatalf("amount = %d, want 2500", res.Amount)
	}
	if res.NewBalance != 2_500 {
		t.Fatalf("balance = %d, want 2500", res.NewBalance)
	}

	// A second attempt with the raw code must lose to the first.
	if _, err := svc.Redeem(ctx, account, "5551234567"); !errors.Is(err, ledger.ErrVoucherUsed) {
		t.Fatalf("second redeem err = %v, want ErrVoucherUsed", err)
	}

	// Exactly one push, for the successful redemption only.
	if len(notifier.sent) != 1 {
		t.Fatalf("got %d pushes, want 1", len(notifier.sent))
	}
	if notifier.sent[0].Kind != notification.KindVoucherRedeemed || notifier.sent[0].AccountID != account {
		t.Fatalf("unexpected push %+v", notifier.sent[0])
	}
}

func TestRedeemBadFormatNeverReachesLedger(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)

	_, err := svc.Redeem(context.Background(), uuid.NewString(), "not-a-code")
	if !errors.Is(err, ledger.ErrInvalidVoucherFormat) {
		t.Fatalf("err = %v, want ErrInvalidVoucherFormat", err)
	}
}

func TestMintDisableList(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	admin := uuid.NewString()
	minted, err := svc.Mint(ctx, ledger.MintInput{
		Count:     3,
		Amount:    1_000,
		Type:      "promo",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedBy: admin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if len(minted) != 3 {
		t.Fatalf("minted %d vouchers, want 3", len(minted))
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
		if v.Status != ledger.VoucherUnused {
			t.Fatalf("status = %s, want unused", v.Status)
		}
	}

	if err := svc.Disable(ctx, minted[0].Code); err != nil {
		t.Fatalf("disable: %v", err)
	}

	disabled, err := svc.List(ctx, ledger.VoucherFilter{Status: ledger.VoucherDisabled})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(disabled) != 1 || disabled[0].Code != minted[0].Code {
		t.Fatalf("disabled listing = %+v", disabled)
	}

	// Disabled codes cannot be redeemed afterwards.
	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)
	if _, err := svc.Redeem(ctx, account, minted[0].Code); !errors.Is(err, ledger.ErrVoucherDisabled) {
		t.Fatalf("redeem disabled err = %v, want ErrVoucherDisabled", err)
	}
}

func TestDisableRedeemedVoucherRejected(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	account := uuid.NewString()
	ledger.SeedBalance(l, account, 0)
	ledger.SeedVoucher(l, ledger.Voucher{
		ID:        uuid.NewString(),
		Code:      "1112223334",
		Amount:    500,
		Status:    ledger.VoucherUnused,
		CreatedAt: time.Now().UTC(),
	})

	if _, err := svc.Redeem(ctx, account, "1112223334"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := svc.Disable(ctx, "1112223334"); !errors.Is(err, ledger.ErrVoucherUsed) {
		t.Fatalf("disable used err = %v, want ErrVoucherUsed", err)
	}
}
