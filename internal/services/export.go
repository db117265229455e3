package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

type transactionRow struct {
	ID          int64     `csv:"id"`
	Date        core.Date `csv:"date"`
	Type        string    `csv:"type"`
	Amount      string    `csv:"amount"`
	Category    string    `csv:"category"`
	Account     string    `csv:"account"`
	FromAccount string    `csv:"from_account"`
	ToAccount   string    `csv:"to_account"`
	Fee         string    `csv:"fee"`
	ToAmount    string    `csv:"to_amount"`
	Merchant    string    `csv:"merchant"`
	Tags        string    `csv:"tags"`
	Note        string    `csv:"note"`
}

func writeTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	rows := make([]transactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow{
			ID:          tx.ID,
			Date:        tx.Date,
			Type:        string(tx.Type),
			Amount:      tx.Amount.String(),
			Category:    tx.Category,
			Account:     tx.Account,
			FromAccount: tx.FromAccount,
			ToAccount:   tx.ToAccount,
			Fee:         optionalString(tx.Fee),
			ToAmount:    optionalString(tx.ToAmount),
			Merchant:    tx.Merchant,
			Tags:        strings.Join(tx.Tags, ";"),
			Note:        tx.Note,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func optionalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
