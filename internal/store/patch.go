package store

import (
	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// TransactionPatch replaces the non-nil fields of a transaction.
type TransactionPatch struct {
	Type         *core.TransactionType
	Amount       *decimal.Decimal
	Category     *string
	Date         *core.Date
	Note         *string
	Tags         *[]string
	Merchant     *string
	Account      *string
	FromAccount  *string
	ToAccount    *string
	Fee          *decimal.Decimal
	ExchangeRate *decimal.Decimal
	ToAmount     *decimal.Decimal

	ClearFee      bool // drop the fee
	ClearExchange bool // drop exchange rate and received amount
}

// Apply returns tx with the patch applied.
func (p TransactionPatch) Apply(tx core.Transaction) core.Transaction {
	out := tx.Clone()
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Note != nil {
		out.Note = *p.Note
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Merchant != nil {
		out.Merchant = *p.Merchant
	}
	if p.Account != nil {
		out.Account = *p.Account
	}
	if p.FromAccount != nil {
		out.FromAccount = *p.FromAccount
	}
	if p.ToAccount != nil {
		out.ToAccount = *p.ToAccount
	}
	if p.ClearFee {
		out.Fee = nil
	} else if p.Fee != nil {
		v := *p.Fee
		out.Fee = &v
	}
	if p.ClearExchange {
		out.ExchangeRate, out.ToAmount = nil, nil
	} else {
		if p.ExchangeRate != nil {
			v := *p.ExchangeRate
			out.ExchangeRate = &v
		}
		if p.ToAmount != nil {
			v := *p.ToAmount
			out.ToAmount = &v
		}
	}
	return out
}

// AccountPatch replaces the non-nil fields of an account. Names change
// through RenameAccount only.
type AccountPatch struct {
	Type           *core.AccountType
	InitialBalance *decimal.Decimal
	Currency       *string
	IsVirtual      *bool
	Group          *string
	Icon           *string
	Color          *string
}

// Apply returns a with the patch applied.
func (p AccountPatch) Apply(a core.Account) core.Account {
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.InitialBalance != nil {
		a.InitialBalance = *p.InitialBalance
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.IsVirtual != nil {
		a.IsVirtual = *p.IsVirtual
	}
	if p.Group != nil {
		a.Group = *p.Group
	}
	if p.Icon != nil {
		a.Icon = *p.Icon
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	return a
}
