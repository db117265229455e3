package store

import (
	"slices"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// Data is the raw content of the store, the shape persisters read and
// write.
type Data struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
	Tags         []core.Tag         `json:"tags"`
	Merchants    []core.Merchant    `json:"merchants"`
	Currencies   []core.Currency    `json:"currencies"`
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	c := Data{
		Accounts:   slices.Clone(d.Accounts),
		Categories: slices.Clone(d.Categories),
		Tags:       slices.Clone(d.Tags),
		Merchants:  slices.Clone(d.Merchants),
		Currencies: slices.Clone(d.Currencies),
	}
	if d.Transactions != nil {
		c.Transactions = make([]core.Transaction, len(d.Transactions))
		for i, tx := range d.Transactions {
			c.Transactions[i] = tx.Clone()
		}
	}
	return c
}

// Snapshot is an immutable view of the store at one version. Accessors
// return copies, so callers may modify what they get back.
type Snapshot struct {
	version uint64
	data    Data
}

// NewSnapshot wraps a copy of data at version 0.
func NewSnapshot(data Data) Snapshot {
	return Snapshot{data: data.Clone()}
}

// Version increases by one with every successful command.
func (s Snapshot) Version() uint64 { return s.version }

func (s Snapshot) Data() Data                       { return s.data.Clone() }
func (s Snapshot) Accounts() []core.Account         { return slices.Clone(s.data.Accounts) }
func (s Snapshot) Categories() []core.Category      { return slices.Clone(s.data.Categories) }
func (s Snapshot) Tags() []core.Tag                 { return slices.Clone(s.data.Tags) }
func (s Snapshot) Merchants() []core.Merchant       { return slices.Clone(s.data.Merchants) }
func (s Snapshot) Currencies() []core.Currency      { return slices.Clone(s.data.Currencies) }
func (s Snapshot) Transactions() []core.Transaction { return s.Data().Transactions }

// Account looks an account up by name.
func (s Snapshot) Account(name string) (core.Account, bool) {
	for _, a := range s.data.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return core.Account{}, false
}

// AccountByID looks an account up by id.
func (s Snapshot) AccountByID(id int64) (core.Account, bool) {
	for _, a := range s.data.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return core.Account{}, false
}

// Transaction looks a transaction up by id.
func (s Snapshot) Transaction(id int64) (core.Transaction, bool) {
	for _, tx := range s.data.Transactions {
		if tx.ID == id {
			return tx.Clone(), true
		}
	}
	return core.Transaction{}, false
}

// MonthlyTotals sums income and expense dated in m.
func (s Snapshot) MonthlyTotals(m core.Month) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, tx := range s.data.Transactions {
		if tx.Date.Month() != m {
			continue
		}
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// referenced reports whether any transaction names the account.
func (d Data) referenced(name string) bool {
	for _, tx := range d.Transactions {
		if tx.Account == name || tx.FromAccount == name || tx.ToAccount == name {
			return true
		}
	}
	return false
}
