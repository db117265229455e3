// Package ledger derives account balances from the transaction history.
//
// Balances are never stored. Every figure is a fold over the transaction
// list starting from the account's initial balance, so the functions here
// are pure and safe to call from any number of goroutines on a shared
// snapshot. Transactions reference accounts by name; a transaction naming
// an account that does not exist simply contributes to nothing.
package ledger

import (
	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// Balance is one account's derived balance.
type Balance struct {
	Account core.Account
	Amount  decimal.Decimal
}

// AccountBalance folds every transaction touching account into its
// initial balance.
func AccountBalance(account core.Account, txs []core.Transaction) decimal.Decimal {
	balance := account.InitialBalance
	for _, tx := range txs {
		balance = balance.Add(Effect(account.Name, tx))
	}
	return balance
}

// Effect is the signed change tx applies to the account called name.
// A transfer from an account to itself applies both legs.
func Effect(name string, tx core.Transaction) decimal.Decimal {
	switch tx.Type {
	case core.Income:
		if tx.Account == name {
			return tx.Amount
		}
	case core.Expense:
		if tx.Account == name {
			return tx.Amount.Neg()
		}
	case core.Adjustment:
		if tx.Account == name {
			return tx.Amount
		}
	case core.Transfer:
		delta := decimal.Zero
		if tx.FromAccount == name {
			delta = delta.Sub(tx.Amount.Add(tx.FeeOrZero()))
		}
		if tx.ToAccount == name {
			delta = delta.Add(tx.Received())
		}
		return delta
	}
	return decimal.Zero
}

// TotalBalance sums the balances of real, non credit-card accounts.
func TotalBalance(accounts []core.Account, txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.Type == core.CreditCard || a.IsVirtual {
			continue
		}
		total = total.Add(AccountBalance(a, txs))
	}
	return total
}

// CreditCardBalance sums the balances of credit-card accounts. A negative
// result is outstanding debt.
func CreditCardBalance(accounts []core.Account, txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.Type != core.CreditCard {
			continue
		}
		total = total.Add(AccountBalance(a, txs))
	}
	return total
}

// Balances lists every account with its balance, in account order.
func Balances(accounts []core.Account, txs []core.Transaction) []Balance {
	out := make([]Balance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Balance{Account: a, Amount: AccountBalance(a, txs)})
	}
	return out
}

// AdjustmentFor returns the signed adjustment amount that brings the
// account's derived balance to actual. Zero means no correction is needed.
func AdjustmentFor(account core.Account, txs []core.Transaction, actual decimal.Decimal) decimal.Decimal {
	return actual.Sub(AccountBalance(account, txs))
}

// NewAdjustment builds the correction transaction for account, or reports
// false when the balance already matches.
func NewAdjustment(account core.Account, txs []core.Transaction, actual decimal.Decimal, date core.Date, note string) (core.Transaction, bool) {
	delta := AdjustmentFor(account, txs, actual)
	if delta.IsZero() {
		return core.Transaction{}, false
	}
	return core.Transaction{
		Type:     core.Adjustment,
		Amount:   delta,
		Category: core.AdjustmentCategory,
		Date:     date,
		Note:     note,
		Tags:     []string{core.AdjustmentTag},
		Account:  account.Name,
	}, true
}
