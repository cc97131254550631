package service_test

import (
	"testing"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestPaymentDebitsOnlyPayer replays the settlement money flow on in-memory
// wallets: paying a debt takes the amount out of the payer's wallet and logs
// a single debit record; the creditor's wallet never moves. What the creditor
// is owed they collect outside the wallet system.
func TestPaymentDebitsOnlyPayer(t *testing.T) {
	payerStart := decimal.NewFromInt(100)
	creditorStart := decimal.NewFromInt(40)
	amount := decimal.NewFromFloat(33.33)

	payer := &domain.Wallet{ID: uuid.New(), UserID: uuid.New(), Balance: payerStart}
	creditor := &domain.Wallet{ID: uuid.New(), UserID: uuid.New(), Balance: creditorStart}
	debtID := uuid.New()

	// The settlement path: one debit against the payer, one transaction row.
	txn := domain.Transaction{
		ID:            uuid.New(),
		WalletID:      payer.ID,
		Type:          domain.TxDebit,
		Amount:        amount,
		BalanceBefore: payer.Balance,
		BalanceAfter:  payer.Balance.Sub(amount),
		RefID:         &debtID,
		Description:   "Debt payment",
		CreatedAt:     time.Now().UTC(),
	}
	payer.Balance = txn.BalanceAfter

	if !payer.Balance.Equal(payerStart.Sub(amount)) {
		t.Errorf("payer balance = %s, want %s", payer.Balance, payerStart.Sub(amount))
	}
	if !creditor.Balance.Equal(creditorStart) {
		t.Errorf("creditor balance moved to %s, want untouched %s", creditor.Balance, creditorStart)
	}
	if txn.Type != domain.TxDebit {
		t.Errorf("transaction type = %s, want %s", txn.Type, domain.TxDebit)
	}
	if txn.WalletID != payer.ID {
		t.Error("the only transaction must be against the payer's wallet")
	}
	if !txn.BalanceBefore.Sub(txn.BalanceAfter).Equal(amount) {
		t.Errorf("debit delta = %s, want %s", txn.BalanceBefore.Sub(txn.BalanceAfter), amount)
	}
}

// TestPaymentResultCarriesWallet: the settlement response hands the caller
// the payer's post-debit wallet so clients can render the new balance without
// a second round trip.
func TestPaymentResultCarriesWallet(t *testing.T) {
	amount := decimal.NewFromInt(25)
	wallet := &domain.Wallet{ID: uuid.New(), UserID: uuid.New(), Balance: decimal.NewFromInt(75)}
	debt := &domain.Debt{ID: uuid.New(), Amount: amount, Status: domain.DebtPaid}

	result := service.PaymentResult{
		Debt:     debt,
		Amount:   amount,
		Wallet:   wallet,
		NewScore: decimal.NewFromFloat(7.1),
		OnTime:   true,
	}

	if result.Wallet == nil {
		t.Fatal("payment result must include the payer's wallet")
	}
	if !result.Wallet.Balance.Equal(decimal.NewFromInt(75)) {
		t.Errorf("wallet balance = %s, want the post-debit 75", result.Wallet.Balance)
	}
	if result.Wallet.UserID == debt.CreditorID {
		t.Error("returned wallet must belong to the payer, not the creditor")
	}
}
