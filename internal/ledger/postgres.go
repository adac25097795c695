package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barterhub/wallet/internal/notification"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	mintMaxAttempts  = 5
)

// PostgresLedger persists accounts, entries, vouchers, top-up requests and
// notifications in PostgreSQL. Every mutating operation opens exactly one
// transaction; helper functions receive the pgx.Tx explicitly so the
// transaction boundary is visible at every call site.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// runAtomic executes fn inside a single transaction. Any error from fn rolls
// back every mutation and is returned to the caller unchanged.
func (l *PostgresLedger) runAtomic(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureAccount guarantees a wallet account row exists for the given id.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, accountID string) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO accounts (id, balance, created_at) VALUES ($1, 0, $2)
        ON CONFLICT (id) DO NOTHING`, id, time.Now().UTC())
	return err
}

// Balance returns the cached balance for the account.
func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (int64, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return 0, ErrAccountNotFound
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// TopUp credits the account immediately inside one transaction.
func (l *PostgresLedger) TopUp(ctx context.Context, p TopUpPosting) (PostResult, error) {
	if p.Amount <= 0 {
		return PostResult{}, ErrAmountOutOfRange
	}
	accountID, err := uuid.Parse(p.AccountID)
	if err != nil {
		return PostResult{}, ErrAccountNotFound
	}

	var res PostResult
	err = l.runAtomic(ctx, func(tx pgx.Tx) error {
		if _, err := lockBalance(ctx, tx, accountID); err != nil {
			return err
		}
		newBalance, err := applyDelta(ctx, tx, accountID, p.Amount)
		if err != nil {
			return err
		}
		entryID, err := insertEntry(ctx, tx, Entry{
			AccountID:    p.AccountID,
			Kind:         KindTopUp,
			Amount:       p.Amount,
			BalanceAfter: newBalance,
			Status:       EntryCompleted,
			Reference:    p.Reference,
			Description:  fmt.Sprintf("top-up via %s", p.Method),
		})
		if err != nil {
			return err
		}
		if err := insertNotification(ctx, tx, accountID, notification.KindTopUp,
			fmt.Sprintf("Your wallet was topped up with %d cents. New balance: %d cents.", p.Amount, newBalance)); err != nil {
			return err
		}
		res = PostResult{EntryID: entryID.String(), NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	return res, nil
}

// Transfer moves value between two accounts atomically. Accounts are locked
// in a deterministic order so concurrent transfers cannot deadlock.
func (l *PostgresLedger) Transfer(ctx context.Context, p TransferPosting) (TransferResult, error) {
	if p.Amount <= 0 || p.Fee < 0 || p.Fee >= p.Amount {
		return TransferResult{}, ErrAmountOutOfRange
	}
	fromID, err := uuid.Parse(p.FromAccountID)
	if err != nil {
		return TransferResult{}, ErrAccountNotFound
	}
	toID, err := uuid.Parse(p.ToAccountID)
	if err != nil {
		return TransferResult{}, ErrRecipientNotFound
	}
	if fromID == toID {
		return TransferResult{}, ErrInvalidRecipient
	}

	transferID := p.Reference
	if transferID == "" {
		transferID = uuid.NewString()
	}

	var res TransferResult
	err = l.runAtomic(ctx, func(tx pgx.Tx) error {
		first, second := fromID, toID
		if second.String() < first.String() {
			first, second = second, first
		}
		for _, id := range [...]uuid.UUID{first, second} {
			if _, err := lockBalance(ctx, tx, id); err != nil {
				if errors.Is(err, ErrAccountNotFound) && id == toID {
					return ErrRecipientNotFound
				}
				return err
			}
		}

		fromBalance, err := currentBalance(ctx, tx, fromID)
		if err != nil {
			return err
		}
		if fromBalance < p.Amount {
			return ErrInsufficientFunds
		}

		newFromBalance, err := applyDelta(ctx, tx, fromID, -p.Amount)
		if err != nil {
			return err
		}
		newToBalance, err := applyDelta(ctx, tx, toID, p.Amount-p.Fee)
		if err != nil {
			return err
		}

		outID, err := insertEntry(ctx, tx, Entry{
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
		if err != nil {
			return err
		}
		inID, err := insertEntry(ctx, tx, Entry{
			AccountID:    p.ToAccountID,
			Kind:         KindTransferIn,
			Amount:       p.Amount - p.Fee,
			BalanceAfter: newToBalance,
			Status:       EntryCompleted,
			Counterparty: p.FromAccountID,
			Reference:    transferID,
			Description:  p.Note,
		})
		if err != nil {
			return err
		}

		if err := insertNotification(ctx, tx, fromID, notification.KindTransferSent,
			fmt.Sprintf("You sent %d cents (fee %d cents). New balance: %d cents.", p.Amount, p.Fee, newFromBalance)); err != nil {
			return err
		}
		if err := insertNotification(ctx, tx, toID, notification.KindTransferReceived,
			fmt.Sprintf("You received %d cents.", p.Amount-p.Fee)); err != nil {
			return err
		}

		res = TransferResult{
			TransferID:  transferID,
			FromEntryID: outID.String(),
			ToEntryID:   inID.String(),
			FromBalance: newFromBalance,
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

// RedeemVoucher marks the voucher used and credits the redeemer in one
// transaction. The status flip is a conditional update, so of two concurrent
// redeemers exactly one commits; the loser observes ErrVoucherUsed.
func (l *PostgresLedger) RedeemVoucher(ctx context.Context, code, accountID string, now time.Time) (RedeemResult, error) {
	redeemerID, err := uuid.Parse(accountID)
	if err != nil {
		return RedeemResult{}, ErrAccountNotFound
	}

	var res RedeemResult
	err = l.runAtomic(ctx, func(tx pgx.Tx) error {
		var (
			voucherID uuid.UUID
			amount    int64
			status    VoucherStatus
			expiresAt time.Time
		)
		row := tx.QueryRow(ctx, `SELECT id, amount, status, expires_at FROM vouchers WHERE code = $1 FOR UPDATE`, code)
		if err := row.Scan(&voucherID, &amount, &status, &expiresAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoucherNotFound
			}
			return err
		}

		if err := redeemableErr(status, expiresAt, now); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE vouchers SET status = $1, redeemed_by = $2, redeemed_at = $3
            WHERE id = $4 AND status IN ('unused', 'exported')`,
			VoucherUsed, redeemerID, now.UTC(), voucherID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVoucherUsed
		}

		if _, err := lockBalance(ctx, tx, redeemerID); err != nil {
			return err
		}
		newBalance, err := applyDelta(ctx, tx, redeemerID, amount)
		if err != nil {
			return err
		}
		entryID, err := insertEntry(ctx, tx, Entry{
			AccountID:    accountID,
			Kind:         KindVoucher,
			Amount:       amount,
			BalanceAfter: newBalance,
			Status:       EntryCompleted,
			Reference:    code,
			Description:  "voucher redemption",
		})
		if err != nil {
			return err
		}
		if err := insertNotification(ctx, tx, redeemerID, notification.KindVoucherRedeemed,
			fmt.Sprintf("Voucher redeemed for %d cents. New balance: %d cents.", amount, newBalance)); err != nil {
			return err
		}

		res = RedeemResult{EntryID: entryID.String(), Amount: amount, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return RedeemResult{}, err
	}
	return res, nil
}

// SubmitTopUpRequest records a pending external-payment claim.
func (l *PostgresLedger) SubmitTopUpRequest(ctx context.Context, in TopUpRequestInput) (TopUpRequest, error) {
	if in.Amount <= 0 {
		return TopUpRequest{}, ErrAmountOutOfRange
	}
	accountID, err := uuid.Parse(in.AccountID)
	if err != nil {
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
	_, err = l.db.Exec(ctx, `INSERT INTO topup_requests (id, account_id, amount, bank_channel, receipt_ref, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.MustParse(req.ID), accountID, req.Amount, req.BankChannel, req.ReceiptRef, req.Status, req.CreatedAt)
	if err != nil {
		return TopUpRequest{}, err
	}
	return req, nil
}

// DecideTopUpRequest transitions a pending request to a terminal status. The
// transition is conditional on the current status, so a racing second
// decision fails with ErrAlreadyProcessed and moves no money.
func (l *PostgresLedger) DecideTopUpRequest(ctx context.Context, in DecideInput) (DecideResult, error) {
	requestID, err := uuid.Parse(in.RequestID)
	if err != nil {
		return DecideResult{}, ErrRequestNotFound
	}
	adminID, err := uuid.Parse(in.AdminID)
	if err != nil {
		return DecideResult{}, fmt.Errorf("invalid admin id: %w", err)
	}

	var res DecideResult
	err = l.runAtomic(ctx, func(tx pgx.Tx) error {
		var req TopUpRequest
		var accountID uuid.UUID
		row := tx.QueryRow(ctx, `SELECT id, account_id, amount, bank_channel, receipt_ref, status, created_at
            FROM topup_requests WHERE id = $1 FOR UPDATE`, requestID)
		var id uuid.UUID
		if err := row.Scan(&id, &accountID, &req.Amount, &req.BankChannel, &req.ReceiptRef, &req.Status, &req.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRequestNotFound
			}
			return err
		}
		req.ID = id.String()
		req.AccountID = accountID.String()

		if req.Status != RequestPending {
			return ErrAlreadyProcessed
		}

		decidedAt := time.Now().UTC()
		next := RequestRejected
		if in.Approve {
			next = RequestApproved
		}
		tag, err := tx.Exec(ctx, `UPDATE topup_requests
            SET status = $1, rejection_reason = $2, decided_by = $3, decided_at = $4
            WHERE id = $5 AND status = 'pending'`,
			next, in.Reason, adminID, decidedAt, requestID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyProcessed
		}
		req.Status = next
		req.RejectionReason = in.Reason
		req.DecidedBy = in.AdminID
		req.DecidedAt = &decidedAt

		if !in.Approve {
			if err := insertNotification(ctx, tx, accountID, notification.KindTopUpRejected,
				fmt.Sprintf("Your top-up request for %d cents was rejected: %s", req.Amount, in.Reason)); err != nil {
				return err
			}
			res = DecideResult{Request: req}
			return nil
		}

		if _, err := lockBalance(ctx, tx, accountID); err != nil {
			return err
		}
		newBalance, err := applyDelta(ctx, tx, accountID, req.Amount)
		if err != nil {
			return err
		}
		entryID, err := insertEntry(ctx, tx, Entry{
			AccountID:    req.AccountID,
			Kind:         KindTopUp,
			Amount:       req.Amount,
			BalanceAfter: newBalance,
			Status:       EntryCompleted,
			Reference:    req.ID,
			Description:  fmt.Sprintf("top-up via %s", req.BankChannel),
		})
		if err != nil {
			return err
		}
		if err := insertNotification(ctx, tx, accountID, notification.KindTopUpApproved,
			fmt.Sprintf("Your top-up of %d cents was approved. New balance: %d cents.", req.Amount, newBalance)); err != nil {
			return err
		}

		res = DecideResult{Request: req, EntryID: entryID.String(), NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return DecideResult{}, err
	}
	return res, nil
}

// Entries lists ledger entries for the account, newest first.
func (l *PostgresLedger) Entries(ctx context.Context, accountID string, f EntryFilter) ([]Entry, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	query := `SELECT id, account_id, kind, amount, fee, balance_after, status,
        counterparty, reference, description, created_at FROM entries WHERE account_id = $1`
	args := []any{id}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.UTC())
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, clampOffset(f.Offset))
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary aggregates the full committed history of the account, independent
// of any listing filter.
func (l *PostgresLedger) Summary(ctx context.Context, accountID string) (Summary, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return Summary{}, ErrAccountNotFound
	}
	const query = `SELECT
        COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0),
        COALESCE(SUM(fee), 0)
        FROM entries WHERE account_id = $1 AND status = 'completed'`
	var s Summary
	if err := l.db.QueryRow(ctx, query, id).Scan(&s.Credits, &s.Debits, &s.Fees); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Notifications lists recent notification rows for the account.
func (l *PostgresLedger) Notifications(ctx context.Context, accountID string, limit int) ([]notification.Notification, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	rows, err := l.db.Query(ctx, `SELECT id, account_id, kind, body, read, created_at
        FROM notifications WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`, id, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var n notification.Notification
		var nid, aid uuid.UUID
		if err := rows.Scan(&nid, &aid, &n.Kind, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ID = nid.String()
		n.AccountID = aid.String()
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

// TopUpRequests lists top-up requests, newest first.
func (l *PostgresLedger) TopUpRequests(ctx context.Context, f RequestFilter) ([]TopUpRequest, error) {
	query := `SELECT id, account_id, amount, bank_channel, receipt_ref, status,
        rejection_reason, decided_by, created_at, decided_at FROM topup_requests WHERE 1=1`
	var args []any
	if f.AccountID != "" {
		id, err := uuid.Parse(f.AccountID)
		if err != nil {
			return nil, ErrAccountNotFound
		}
		args = append(args, id)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, clampOffset(f.Offset))
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopUpRequest
	for rows.Next() {
		var req TopUpRequest
		var id, accountID uuid.UUID
		var reason *string
		var decidedBy *uuid.UUID
		if err := rows.Scan(&id, &accountID, &req.Amount, &req.BankChannel, &req.ReceiptRef,
			&req.Status, &reason, &decidedBy, &req.CreatedAt, &req.DecidedAt); err != nil {
			return nil, err
		}
		req.ID = id.String()
		req.AccountID = accountID.String()
		if reason != nil {
			req.RejectionReason = *reason
		}
		if decidedBy != nil {
			req.DecidedBy = decidedBy.String()
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// CreateVouchers mints a batch of vouchers with unique random codes. Code
// collisions are resolved by retrying the insert with a fresh draw.
func (l *PostgresLedger) CreateVouchers(ctx context.Context, in MintInput) ([]Voucher, error) {
	if in.Count <= 0 || in.Amount <= 0 {
		return nil, ErrAmountOutOfRange
	}
	var createdBy *uuid.UUID
	if in.CreatedBy != "" {
		id, err := uuid.Parse(in.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid creator id: %w", err)
		}
		createdBy = &id
	}

	vouchers := make([]Voucher, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		v := Voucher{
			ID:        uuid.NewString(),
			Amount:    in.Amount,
			Type:      in.Type,
			Status:    VoucherUnused,
			ExpiresAt: in.ExpiresAt.UTC(),
			CreatedBy: in.CreatedBy,
			CreatedAt: time.Now().UTC(),
		}
		inserted := false
		for attempt := 0; attempt < mintMaxAttempts; attempt++ {
			code, err := randomCode()
			if err != nil {
				return nil, err
			}
			tag, err := l.db.Exec(ctx, `INSERT INTO vouchers (id, code, amount, vtype, status, expires_at, created_by, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (code) DO NOTHING`,
				uuid.MustParse(v.ID), code, v.Amount, v.Type, v.Status, v.ExpiresAt, createdBy, v.CreatedAt)
			if err != nil {
				return nil, err
			}
			if tag.RowsAffected() == 1 {
				v.Code = code
				inserted = true
				break
			}
		}
		if !inserted {
			return nil, fmt.Errorf("voucher code space exhausted after %d attempts", mintMaxAttempts)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, nil
}

// DisableVoucher retires an unredeemed code.
func (l *PostgresLedger) DisableVoucher(ctx context.Context, code string) error {
	return l.runAtomic(ctx, func(tx pgx.Tx) error {
		var status VoucherStatus
		row := tx.QueryRow(ctx, `SELECT status FROM vouchers WHERE code = $1 FOR UPDATE`, code)
		if err := row.Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoucherNotFound
			}
			return err
		}
		if !status.CanTransition(VoucherDisabled) {
			if status == VoucherUsed {
				return ErrVoucherUsed
			}
			return ErrVoucherUnavailable
		}
		_, err := tx.Exec(ctx, `UPDATE vouchers SET status = $1 WHERE code = $2`, VoucherDisabled, code)
		return err
	})
}

// Vouchers lists vouchers, newest first.
func (l *PostgresLedger) Vouchers(ctx context.Context, f VoucherFilter) ([]Voucher, error) {
	query := `SELECT id, code, amount, vtype, status, expires_at, created_by, redeemed_by, redeemed_at, created_at
        FROM vouchers WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, clampOffset(f.Offset))
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		var v Voucher
		var id uuid.UUID
		var createdBy, redeemedBy *uuid.UUID
		if err := rows.Scan(&id, &v.Code, &v.Amount, &v.Type, &v.Status, &v.ExpiresAt,
			&createdBy, &redeemedBy, &v.RedeemedAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.ID = id.String()
		if createdBy != nil {
			v.CreatedBy = createdBy.String()
		}
		if redeemedBy != nil {
			v.RedeemedBy = redeemedBy.String()
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// redeemableErr maps a voucher's state to the redemption error the caller
// should observe, applying the lazy expiry rule.
func redeemableErr(status VoucherStatus, expiresAt time.Time, now time.Time) error {
	if status == VoucherUsed {
		return ErrVoucherUsed
	}
	if status == VoucherDisabled {
		return ErrVoucherDisabled
	}
	if status == VoucherExpired || (!expiresAt.IsZero() && expiresAt.Before(now)) {
		return ErrVoucherExpired
	}
	if !status.Redeemable() {
		return ErrVoucherUnavailable
	}
	return nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func clampOffset(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func lockBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	var balance int64
	row := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func currentBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func applyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (int64, error) {
	var balance int64
	row := tx.QueryRow(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2 RETURNING balance`, delta, accountID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	if balance < 0 {
		return 0, ErrInsufficientFunds
	}
	return balance, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, e Entry) (uuid.UUID, error) {
	accountID, err := uuid.Parse(e.AccountID)
	if err != nil {
		return uuid.Nil, ErrAccountNotFound
	}
	var counterparty *uuid.UUID
	if e.Counterparty != "" {
		id, err := uuid.Parse(e.Counterparty)
		if err != nil {
			return uuid.Nil, err
		}
		counterparty = &id
	}
	id := uuid.New()
	_, err = tx.Exec(ctx, `INSERT INTO entries
        (id, account_id, kind, amount, fee, balance_after, status, counterparty, reference, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, accountID, e.Kind, e.Amount, e.Fee, e.BalanceAfter, e.Status, counterparty, e.Reference, e.Description, time.Now().UTC())
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func insertNotification(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind, body string) error {
	_, err := tx.Exec(ctx, `INSERT INTO notifications (id, account_id, kind, body, read, created_at)
        VALUES ($1, $2, $3, $4, false, $5)`, uuid.New(), accountID, kind, body, time.Now().UTC())
	return err
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var e Entry
	var id, accountID uuid.UUID
	var counterparty *uuid.UUID
	if err := rows.Scan(&id, &accountID, &e.Kind, &e.Amount, &e.Fee, &e.BalanceAfter,
		&e.Status, &counterparty, &e.Reference, &e.Description, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.ID = id.String()
	e.AccountID = accountID.String()
	if counterparty != nil {
		e.Counterparty = counterparty.String()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
