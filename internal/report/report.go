// Package report aggregates transactions into month trends and
// category and tag rankings.
//
// Only income and expense count towards the aggregates; transfers move
// money between the user's own accounts and adjustments correct bookkeeping
// errors. Everything here is a pure function of its inputs.
package report

import (
	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// MonthBucket holds one month of the trend.
type MonthBucket struct {
	Month   core.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// BucketByMonth returns one bucket per month in [start, end], oldest first.
// Months without activity are present with zero totals. An end before start
// is clamped to start.
func BucketByMonth(txs []core.Transaction, start, end core.Month) []MonthBucket {
	if end.Before(start) {
		end = start
	}
	var buckets []MonthBucket
	index := make(map[core.Month]int)
	for m := start; !m.After(end); m = m.Next() {
		index[m] = len(buckets)
		buckets = append(buckets, MonthBucket{
			Month:   m,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Balance: decimal.Zero,
		})
	}

	for _, tx := range txs {
		i, ok := index[tx.Date.Month()]
		if !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			buckets[i].Income = buckets[i].Income.Add(tx.Amount)
		case core.Expense:
			buckets[i].Expense = buckets[i].Expense.Add(tx.Amount)
		}
	}

	for i := range buckets {
		buckets[i].Balance = buckets[i].Income.Sub(buckets[i].Expense)
	}
	return buckets
}

// ExcludeCardPayments drops transfers into credit-card accounts. The card
// spending is already recorded as expenses, so the bill payment would
// otherwise be counted twice.
func ExcludeCardPayments(accounts []core.Account, txs []core.Transaction) []core.Transaction {
	cards := make(map[string]struct{})
	for _, a := range accounts {
		if a.Type == core.CreditCard {
			cards[a.Name] = struct{}{}
		}
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == core.Transfer && tx.ToAccount != "" {
			if _, ok := cards[tx.ToAccount]; ok {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

// expenseInRange reports whether tx is an expense dated within [start, end].
func expenseInRange(tx core.Transaction, start, end core.Month) bool {
	return tx.Type == core.Expense && tx.Date.Month().Contains(start, end)
}

// percentage returns part/total*100, or 0 when total is not positive.
func percentage(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
