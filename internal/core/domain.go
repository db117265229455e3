package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Bank       AccountType = "bank"
	Cash       AccountType = "cash"
	EWallet    AccountType = "e-wallet"
	CreditCard AccountType = "credit-card"
	Other      AccountType = "other"
)

const (
	Expense    TransactionType = "expense"
	Income     TransactionType = "income"
	Transfer   TransactionType = "transfer"
	Adjustment TransactionType = "adjustment"
)

type (
	AccountType     string
	TransactionType string

	Account struct {
		ID             int64           `json:"id"`
		Name           string          `json:"name"`
		Type           AccountType     `json:"type"`
		InitialBalance decimal.Decimal `json:"balance"` // fixed reference point, never moved by transactions
		Currency       string          `json:"currency"`
		IsVirtual      bool            `json:"isVirtual,omitempty"`
		Group          string          `json:"group,omitempty"`
		Icon           string          `json:"icon,omitempty"`
		Color          string          `json:"color,omitempty"`
	}

	// Transaction links to accounts by name: Account for expense, income and
	// adjustment, FromAccount/ToAccount for transfers.
	Transaction struct {
		ID           int64            `json:"id"`
		Type         TransactionType  `json:"type"`
		Amount       decimal.Decimal  `json:"amount"` // signed delta for adjustments
		Category     string           `json:"category"`
		Date         Date             `json:"date"`
		Note         string           `json:"note,omitempty"`
		Tags         []string         `json:"tags,omitempty"`
		Merchant     string           `json:"merchant,omitempty"`
		Account      string           `json:"account,omitempty"`
		FromAccount  string           `json:"fromAccount,omitempty"`
		ToAccount    string           `json:"toAccount,omitempty"`
		Fee          *decimal.Decimal `json:"fee,omitempty"`
		ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
		ToAmount     *decimal.Decimal `json:"toAmount,omitempty"`
	}

	Category struct {
		ID   int64           `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"` // expense or income
		Icon string          `json:"icon,omitempty"`
	}

	Tag struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
	}

	Merchant struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category,omitempty"`
	}

	Currency struct {
		ID     int64  `json:"id"`
		Code   string `json:"code"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid type")
	ErrEmptyName           = errors.New("empty name")
	ErrMissingAccount      = errors.New("missing account")
	ErrSameAccountTransfer = errors.New("transfer source and destination must differ")
	ErrInvalidFee          = errors.New("invalid fee")
	ErrInvalidExchangeRate = errors.New("invalid exchange rate")
	ErrEmptyCurrency       = errors.New("empty currency code")
)

func (t AccountType) IsValid() bool {
	switch t {
	case Bank, Cash, EWallet, CreditCard, Other:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Expense, Income, Transfer, Adjustment:
		return true
	}
	return false
}

// FeeOrZero returns the transfer fee, zero when absent.
func (t Transaction) FeeOrZero() decimal.Decimal {
	if t.Fee == nil {
		return decimal.Zero
	}
	return *t.Fee
}

// Received returns what the destination of a transfer is credited with:
// ToAmount for cross-currency transfers, Amount otherwise.
func (t Transaction) Received() decimal.Decimal {
	if t.ToAmount != nil {
		return *t.ToAmount
	}
	return t.Amount
}

// HasTag reports whether the transaction carries tag.
func (t Transaction) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; slices and optional amounts are not shared.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	c.Fee = cloneDecimal(t.Fee)
	c.ExchangeRate = cloneDecimal(t.ExchangeRate)
	c.ToAmount = cloneDecimal(t.ToAmount)
	return c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Validate checks user input before a transaction enters the store. The
// ledger engine itself never validates.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: transaction type %q", ErrInvalidType, t.Type)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case Adjustment:
		if t.Amount.IsZero() {
			return fmt.Errorf("%w: adjustment must be non-zero", ErrInvalidAmount)
		}
		if strings.TrimSpace(t.Account) == "" {
			return ErrMissingAccount
		}
	case Transfer:
		if !t.Amount.IsPositive() {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(t.FromAccount) == "" || strings.TrimSpace(t.ToAccount) == "" {
			return ErrMissingAccount
		}
		if t.FromAccount == t.ToAccount {
			return ErrSameAccountTransfer
		}
		if t.Fee != nil && t.Fee.IsNegative() {
			return ErrInvalidFee
		}
		if t.ExchangeRate != nil && !t.ExchangeRate.IsPositive() {
			return ErrInvalidExchangeRate
		}
		if t.ToAmount != nil && !t.ToAmount.IsPositive() {
			return fmt.Errorf("%w: received amount must be positive", ErrInvalidAmount)
		}
	default:
		if !t.Amount.IsPositive() {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(t.Account) == "" {
			return ErrMissingAccount
		}
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: account type %q", ErrInvalidType, a.Type)
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != Expense && c.Type != Income {
		return fmt.Errorf("%w: category type %q", ErrInvalidType, c.Type)
	}
	return nil
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (m Merchant) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Currency) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCurrency
	}
	return nil
}
