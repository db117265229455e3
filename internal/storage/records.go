package storage

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// number decodes a JSON number or string leniently. Anything that does not
// parse, including NaN and infinities, reads as zero.
type number struct {
	set   bool
	value decimal.Decimal
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = number{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	*n = number{set: strings.TrimSpace(s) != "", value: core.SafeDecimal(s)}
	return nil
}

func (n number) ptr() *decimal.Decimal {
	if !n.set {
		return nil
	}
	v := n.value
	return &v
}

// flexBool accepts true/false as well as the strings "true", "1" and "yes".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	*f = flexBool(s == "true" || s == "1" || s == "yes")
	return nil
}

// flexID accepts ids written as numbers or strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	*f = flexID(core.SafeDecimal(s).IntPart())
	return nil
}

type transactionRecord struct {
	ID           flexID               `json:"id"`
	Type         core.TransactionType `json:"type"`
	Amount       number               `json:"amount"`
	Category     string               `json:"category"`
	Date         string               `json:"date"`
	Note         string               `json:"note"`
	Tags         []string             `json:"tags"`
	Merchant     string               `json:"merchant"`
	Account      string               `json:"account"`
	FromAccount  string               `json:"fromAccount"`
	ToAccount    string               `json:"toAccount"`
	Fee          number               `json:"fee"`
	ExchangeRate number               `json:"exchangeRate"`
	ToAmount     number               `json:"toAmount"`
}

func (r transactionRecord) toCore() core.Transaction {
	date, _ := core.ParseDate(r.Date)
	return core.Transaction{
		ID:           int64(r.ID),
		Type:         r.Type,
		Amount:       r.Amount.value,
		Category:     r.Category,
		Date:         date,
		Note:         r.Note,
		Tags:         r.Tags,
		Merchant:     r.Merchant,
		Account:      r.Account,
		FromAccount:  r.FromAccount,
		ToAccount:    r.ToAccount,
		Fee:          r.Fee.ptr(),
		ExchangeRate: r.ExchangeRate.ptr(),
		ToAmount:     r.ToAmount.ptr(),
	}
}

type accountRecord struct {
	ID        flexID           `json:"id"`
	Name      string           `json:"name"`
	Type      core.AccountType `json:"type"`
	Balance   number           `json:"balance"`
	Currency  string           `json:"currency"`
	IsVirtual flexBool         `json:"isVirtual"`
	Group     string           `json:"group"`
	Icon      string           `json:"icon"`
	Color     string           `json:"color"`
}

func (r accountRecord) toCore() core.Account {
	return core.Account{
		ID:             int64(r.ID),
		Name:           r.Name,
		Type:           r.Type,
		InitialBalance: r.Balance.value,
		Currency:       r.Currency,
		IsVirtual:      bool(r.IsVirtual),
		Group:          r.Group,
		Icon:           r.Icon,
		Color:          r.Color,
	}
}

func decodeTransactions(raw []byte) ([]core.Transaction, error) {
	var recs []transactionRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toCore())
	}
	return out, nil
}

func decodeAccounts(raw []byte) ([]core.Account, error) {
	var recs []accountRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toCore())
	}
	return out, nil
}
