package report

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// Summary totals a run of month buckets.
type Summary struct {
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Net            decimal.Decimal `json:"net"`
	AverageIncome  decimal.Decimal `json:"averageIncome"`
	AverageExpense decimal.Decimal `json:"averageExpense"`
	Months         int             `json:"months"`
}

// Summarize adds up buckets and averages over their count, including
// empty months.
func Summarize(buckets []MonthBucket) Summary {
	s := Summary{
		Income:         decimal.Zero,
		Expense:        decimal.Zero,
		AverageIncome:  decimal.Zero,
		AverageExpense: decimal.Zero,
		Months:         len(buckets),
	}
	for _, b := range buckets {
		s.Income = s.Income.Add(b.Income)
		s.Expense = s.Expense.Add(b.Expense)
	}
	s.Net = s.Income.Sub(s.Expense)
	if n := len(buckets); n > 0 {
		s.AverageIncome = s.Income.Div(decimal.NewFromInt(int64(n)))
		s.AverageExpense = s.Expense.Div(decimal.NewFromInt(int64(n)))
	}
	return s
}

// SortKey orders the month trend.
type SortKey string

const (
	ByMonth   SortKey = "month"
	ByIncome  SortKey = "income"
	ByExpense SortKey = "expense"
	ByBalance SortKey = "balance"
)

// ParseSortKey accepts month, income, expense or balance; empty means month.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return ByMonth, nil
	case ByMonth, ByIncome, ByExpense, ByBalance:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortBuckets returns a sorted copy. ByMonth is chronological, the other
// keys sort descending with months in chronological order on ties.
func SortBuckets(buckets []MonthBucket, by SortKey) []MonthBucket {
	out := slices.Clone(buckets)
	field := func(b MonthBucket) decimal.Decimal {
		switch by {
		case ByIncome:
			return b.Income
		case ByExpense:
			return b.Expense
		default:
			return b.Balance
		}
	}
	slices.SortStableFunc(out, func(a, b MonthBucket) int {
		if by == ByMonth || by == "" {
			return a.Month.Compare(b.Month)
		}
		if c := field(b).Cmp(field(a)); c != 0 {
			return c
		}
		return a.Month.Compare(b.Month)
	})
	return out
}

// Report is everything the reports view shows for one period.
type Report struct {
	Start      core.Month      `json:"start"`
	End        core.Month      `json:"end"`
	Months     []MonthBucket   `json:"months"`
	Categories []CategoryShare `json:"categories"`
	Tags       []TagShare      `json:"tags"`
	Summary    Summary         `json:"summary"`
}

// DefaultTopN is how many categories and tags a report keeps.
const DefaultTopN = 5

// Build assembles a report, removing credit-card payments first.
func Build(accounts []core.Account, txs []core.Transaction, p Period, now time.Time, topN int) Report {
	start, end := p.Range(now)
	filtered := ExcludeCardPayments(accounts, txs)
	months := BucketByMonth(filtered, start, end)
	return Report{
		Start:      start,
		End:        end,
		Months:     months,
		Categories: RankCategories(filtered, start, end, topN),
		Tags:       RankTags(filtered, start, end, topN),
		Summary:    Summarize(months),
	}
}
