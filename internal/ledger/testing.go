package ledger

// Test helpers for the in-memory ledger. All of them are no-ops on other
// backends.

// SeedBalance sets an account balance directly, bypassing the entry log.
func SeedBalance(l Ledger, accountID string, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[accountID] = amount
	}
}

// SeedVoucher installs a voucher with the exact code and state given.
func SeedVoucher(l Ledger, v Voucher) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.vouchers[v.Code] = v
	}
}

// SeedRequest installs a top-up request with the exact state given.
func SeedRequest(l Ledger, req TopUpRequest) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.requests[req.ID] = req
	}
}

// FailNextNotification makes the next mutating operation fail at its
// notification-insert step, leaving no partial state behind. Used to verify
// atomicity under failure injection.
func FailNextNotification(l Ledger, err error) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.notifyErr = err
	}
}
