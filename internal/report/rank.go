package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// CategoryShare is one row of the category ranking.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// TagShare is one row of the tag ranking. Count is the number of
// expenses carrying the tag.
type TagShare struct {
	Tag        string          `json:"tag"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Count      int             `json:"count"`
}

// RankCategories sums expenses in [start, end] per category, largest
// first, ties by name. topN <= 0 keeps every category.
func RankCategories(txs []core.Transaction, start, end core.Month, topN int) []CategoryShare {
	if end.Before(start) {
		end = start
	}
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if !expenseInRange(tx, start, end) {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	out := make([]CategoryShare, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryShare{
			Category:   name,
			Amount:     amount,
			Percentage: percentage(amount, total),
		})
	}
	slices.SortFunc(out, func(a, b CategoryShare) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return truncate(out, topN)
}

// RankTags ranks tags by the expenses carrying them. An expense with
// several tags counts in full for each one, so percentages can add up to
// more than 100. The denominator is the total of tagged expenses, each
// counted once.
func RankTags(txs []core.Transaction, start, end core.Month, topN int) []TagShare {
	if end.Before(start) {
		end = start
	}
	type acc struct {
		amount decimal.Decimal
		count  int
	}
	totals := make(map[string]*acc)
	total := decimal.Zero
	for _, tx := range txs {
		if !expenseInRange(tx, start, end) || len(tx.Tags) == 0 {
			continue
		}
		total = total.Add(tx.Amount)
		for _, tag := range tx.Tags {
			a, ok := totals[tag]
			if !ok {
				a = &acc{amount: decimal.Zero}
				totals[tag] = a
			}
			a.amount = a.amount.Add(tx.Amount)
			a.count++
		}
	}

	out := make([]TagShare, 0, len(totals))
	for tag, a := range totals {
		out = append(out, TagShare{
			Tag:        tag,
			Amount:     a.amount,
			Percentage: percentage(a.amount, total),
			Count:      a.count,
		})
	}
	slices.SortFunc(out, func(a, b TagShare) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return truncate(out, topN)
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
