package store

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// SearchFilters narrows a transaction search. Zero fields do not filter.
type SearchFilters struct {
	Text       string // case-insensitive match on note, category or merchant
	StartDate  core.Date
	EndDate    core.Date
	Types      []core.TransactionType
	Categories []string
	Tags       []string // any of
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Merchant   string
	Account    string // matches account, fromAccount or toAccount
}

// Match reports whether tx passes every filter.
func (f SearchFilters) Match(tx core.Transaction) bool {
	if !f.StartDate.IsZero() && tx.Date.Before(f.StartDate.Time) {
		return false
	}
	if !f.EndDate.IsZero() && tx.Date.After(f.EndDate.Time) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, tx.Type) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, tx.Category) {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, tx.HasTag) {
		return false
	}
	if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && tx.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Merchant != "" && tx.Merchant != f.Merchant {
		return false
	}
	if f.Account != "" && tx.Account != f.Account && tx.FromAccount != f.Account && tx.ToAccount != f.Account {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Text)); q != "" {
		hay := strings.ToLower(tx.Note + "\x00" + tx.Category + "\x00" + tx.Merchant)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Search returns matching transactions, newest first. Same-day
// transactions keep the later-recorded one first.
func (s Snapshot) Search(f SearchFilters) []core.Transaction {
	var out []core.Transaction
	for i := len(s.data.Transactions) - 1; i >= 0; i-- {
		tx := s.data.Transactions[i]
		if f.Match(tx) {
			out = append(out, tx.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}
