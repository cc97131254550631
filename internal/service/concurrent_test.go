package service_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

// TestConcurrentWalletDebit simulates 50 goroutines simultaneously paying a
// fixed amount out of a shared wallet — protected by a mutex. In the real
// SettlementService the DB row-level FOR UPDATE lock provides this guarantee;
// here the same guard is replicated with sync primitives so the race detector
// can confirm the pattern is sound.
func TestConcurrentWalletDebit(t *testing.T) {
	const workers = 50
	const amountEach = 10

	balance := decimal.NewFromInt(int64(workers * amountEach)) // exact total
	var mu sync.Mutex
	var rejected int64 // payments refused for insufficient funds (zero expected)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			amount := decimal.NewFromInt(amountEach)

			mu.Lock()
			defer mu.Unlock()

			if balance.LessThan(amount) {
				atomic.AddInt64(&rejected, 1)
				return
			}
			balance = balance.Sub(amount)
		}()
	}
	wg.Wait()

	if rejected > 0 {
		t.Errorf("expected 0 rejected payments, got %d", rejected)
	}
	if !balance.IsZero() {
		t.Errorf("final balance should be 0, got %s", balance)
	}
}

// TestConcurrentDebtSettlementGuard verifies that a debt can only be settled
// once under concurrent access: of N racing payers exactly one wins. The real
// guard is the status-conditional UPDATE in DebtRepository.MarkPaid.
func TestConcurrentDebtSettlementGuard(t *testing.T) {
	const workers = 20
	type debtState struct {
		mu   sync.Mutex
		paid bool
	}

	var (
		d      debtState
		wins   int64
		losses int64
		wg     sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			d.mu.Lock()
			defer d.mu.Unlock()

			if d.paid {
				atomic.AddInt64(&losses, 1)
				return
			}
			d.paid = true
			atomic.AddInt64(&wins, 1)
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("exactly 1 goroutine should have settled the debt, got %d", wins)
	}
	if losses != workers-1 {
		t.Errorf("expected %d rejections, got %d", workers-1, losses)
	}
}

// TestConcurrentFreezeVsPayment: a listing freeze and a payment race for the
// same pending debt; whichever transitions the status first wins and the
// loser observes a non-pending debt.
func TestConcurrentFreezeVsPayment(t *testing.T) {
	const rounds = 100

	for i := 0; i < rounds; i++ {
		var (
			mu     sync.Mutex
			status = "pending"
			wins   int64
		)

		transition := func(to string) {
			mu.Lock()
			defer mu.Unlock()
			if status != "pending" {
				return
			}
			status = to
			atomic.AddInt64(&wins, 1)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); transition("paid") }()
		go func() { defer wg.Done(); transition("sold_as_title") }()
		wg.Wait()

		if wins != 1 {
			t.Fatalf("round %d: %d transitions succeeded, want exactly 1", i, wins)
		}
		if status == "pending" {
			t.Fatalf("round %d: debt still pending after race", i)
		}
	}
}
