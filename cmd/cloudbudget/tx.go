package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudbudget/internal/core"
	"cloudbudget/internal/store"
)

func newTxCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and browse transactions",
	}
	cmd.AddCommand(
		newTxAddCmd(rt),
		newTxUpdateCmd(rt),
		newTxDeleteCmd(rt),
		newTxListCmd(rt),
		newTxSearchCmd(rt),
	)
	return cmd
}

type txFlags struct {
	txType   string
	amount   string
	category string
	date     string
	note     string
	tags     []string
	merchant string
	account  string
	from     string
	to       string
	fee      string
	rate     string
	toAmount string
}

func (f *txFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.txType, "type", string(core.Expense), "expense, income or transfer")
	fs.StringVar(&f.amount, "amount", "", "amount, dot or comma decimal separator")
	fs.StringVar(&f.category, "category", "", "category name")
	fs.StringVar(&f.date, "date", "", "YYYY-MM-DD (default today)")
	fs.StringVar(&f.note, "note", "", "free text note")
	fs.StringSliceVar(&f.tags, "tags", nil, "comma separated tags")
	fs.StringVar(&f.merchant, "merchant", "", "merchant name")
	fs.StringVar(&f.account, "account", "", "account for income and expense")
	fs.StringVar(&f.from, "from", "", "transfer source account")
	fs.StringVar(&f.to, "to", "", "transfer destination account")
	fs.StringVar(&f.fee, "fee", "", "transfer fee charged to the source")
	fs.StringVar(&f.rate, "rate", "", "exchange rate of a cross-currency transfer")
	fs.StringVar(&f.toAmount, "to-amount", "", "amount credited to the destination")
}

func parseOptional(s string, parse func(string) (decimal.Decimal, error)) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func newTxAddCmd(rt *runtime) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(f.amount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			date, err := parseDate(f.date, rt.today())
			if err != nil {
				return err
			}
			tx := core.Transaction{
				Type:        core.TransactionType(f.txType),
				Amount:      amount,
				Category:    f.category,
				Date:        date,
				Note:        f.note,
				Tags:        f.tags,
				Merchant:    f.merchant,
				Account:     f.account,
				FromAccount: f.from,
				ToAccount:   f.to,
			}
			if tx.Fee, err = parseOptional(f.fee, core.ParseSignedAmount); err != nil {
				return fmt.Errorf("fee: %w", err)
			}
			if tx.ExchangeRate, err = parseOptional(f.rate, core.ParseAmount); err != nil {
				return fmt.Errorf("rate: %w", err)
			}
			if tx.ToAmount, err = parseOptional(f.toAmount, core.ParseAmount); err != nil {
				return fmt.Errorf("to-amount: %w", err)
			}

			added, err := rt.store().AddTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %d\n", added.Type, added.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newTxUpdateCmd(rt *runtime) *cobra.Command {
	var f txFlags
	var clearFee, clearExchange bool
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the given fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			fs := cmd.Flags()
			patch := store.TransactionPatch{ClearFee: clearFee, ClearExchange: clearExchange}
			if fs.Changed("type") {
				t := core.TransactionType(f.txType)
				patch.Type = &t
			}
			if fs.Changed("amount") {
				a, err := core.ParseAmount(f.amount)
				if err != nil {
					return fmt.Errorf("amount: %w", err)
				}
				patch.Amount = &a
			}
			if fs.Changed("date") {
				d, err := core.ParseDate(f.date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}
			setString := func(name string, dst **string, v *string) {
				if fs.Changed(name) {
					*dst = v
				}
			}
			setString("category", &patch.Category, &f.category)
			setString("note", &patch.Note, &f.note)
			setString("merchant", &patch.Merchant, &f.merchant)
			setString("account", &patch.Account, &f.account)
			setString("from", &patch.FromAccount, &f.from)
			setString("to", &patch.ToAccount, &f.to)
			if fs.Changed("tags") {
				patch.Tags = &f.tags
			}
			if patch.Fee, err = parseOptional(f.fee, core.ParseSignedAmount); err != nil {
				return fmt.Errorf("fee: %w", err)
			}
			if patch.ExchangeRate, err = parseOptional(f.rate, core.ParseAmount); err != nil {
				return fmt.Errorf("rate: %w", err)
			}
			if patch.ToAmount, err = parseOptional(f.toAmount, core.ParseAmount); err != nil {
				return fmt.Errorf("to-amount: %w", err)
			}

			updated, err := rt.store().UpdateTransaction(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d\n", updated.Type, updated.ID)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearFee, "clear-fee", false, "remove the transfer fee")
	cmd.Flags().BoolVar(&clearExchange, "clear-exchange", false, "remove exchange rate and received amount")
	return cmd
}

func newTxDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			if err := rt.store().DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}
}

func newTxListCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.store().Snapshot()
			txs := snap.Search(store.SearchFilters{})
			if limit > 0 && len(txs) > limit {
				txs = txs[:limit]
			}
			return rt.printTransactions(cmd.OutOrStdout(), snap, txs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of transactions, 0 for all")
	return cmd
}

func newTxSearchCmd(rt *runtime) *cobra.Command {
	var (
		text, from, to, minAmount, maxAmount, merchant, account string
		types, categories, tags                                 []string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find transactions matching every given filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.SearchFilters{
				Text:       text,
				Categories: categories,
				Tags:       tags,
				Merchant:   merchant,
				Account:    account,
			}
			var err error
			if f.StartDate, err = parseDate(from, core.Date{}); err != nil {
				return err
			}
			if f.EndDate, err = parseDate(to, core.Date{}); err != nil {
				return err
			}
			for _, t := range types {
				f.Types = append(f.Types, core.TransactionType(t))
			}
			if f.MinAmount, err = parseOptional(minAmount, core.ParseSignedAmount); err != nil {
				return fmt.Errorf("min: %w", err)
			}
			if f.MaxAmount, err = parseOptional(maxAmount, core.ParseSignedAmount); err != nil {
				return fmt.Errorf("max: %w", err)
			}

			snap := rt.store().Snapshot()
			return rt.printTransactions(cmd.OutOrStdout(), snap, snap.Search(f))
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&text, "text", "", "text in note, category or merchant")
	fs.StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	fs.StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	fs.StringSliceVar(&types, "type", nil, "transaction types")
	fs.StringSliceVar(&categories, "category", nil, "categories")
	fs.StringSliceVar(&tags, "tag", nil, "tags, any of")
	fs.StringVar(&minAmount, "min", "", "minimum amount")
	fs.StringVar(&maxAmount, "max", "", "maximum amount")
	fs.StringVar(&merchant, "merchant", "", "merchant")
	fs.StringVar(&account, "account", "", "account on either side")
	return cmd
}

func (rt *runtime) printTransactions(w io.Writer, snap store.Snapshot, txs []core.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tACCOUNT\tNOTE")
	for _, tx := range txs {
		account := tx.Account
		if tx.Type == core.Transfer {
			account = tx.FromAccount + " -> " + tx.ToAccount
		}
		currency := ""
		if acc, ok := snap.Account(firstNonEmpty(tx.Account, tx.FromAccount)); ok {
			currency = acc.Currency
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type, rt.money(tx.Amount, currency), tx.Category, account, tx.Note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d transactions\n", len(txs))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
