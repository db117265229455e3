package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudbudget/internal/core"
	"cloudbudget/internal/store"
)

func newAccountsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tTYPE\tGROUP\tBALANCE")
			for _, b := range rt.dashboard.Balances() {
				name := b.Account.Name
				if b.Account.IsVirtual {
					name += " (virtual)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, b.Account.Type, b.Account.Group, rt.money(b.Amount, b.Account.Currency))
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(newAccountAddCmd(rt), newAccountSetCmd(rt), newAccountRenameCmd(rt), newAccountDeleteCmd(rt))
	return cmd
}

type accountFlags struct {
	accountType string
	balance     string
	currency    string
	group       string
	icon        string
	color       string
	virtual     bool
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.accountType, "type", string(core.Bank), "bank, cash, e-wallet, credit-card or other")
	cmd.Flags().StringVar(&f.balance, "balance", "0", "initial balance")
	cmd.Flags().StringVar(&f.currency, "currency", "", "currency code (default DEFAULT_CURRENCY)")
	cmd.Flags().StringVar(&f.group, "group", "", "display group")
	cmd.Flags().StringVar(&f.icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&f.color, "color", "", "display color")
	cmd.Flags().BoolVar(&f.virtual, "virtual", false, "exclude from the total balance")
}

func newAccountAddCmd(rt *runtime) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := core.ParseSignedAmount(f.balance)
			if err != nil {
				return fmt.Errorf("balance: %w", err)
			}
			currency := f.currency
			if currency == "" {
				currency = rt.cfg.DefaultCurrency
			}
			acc, err := rt.store().AddAccount(cmd.Context(), core.Account{
				Name:           args[0],
				Type:           core.AccountType(f.accountType),
				InitialBalance: balance,
				Currency:       currency,
				IsVirtual:      f.virtual,
				Group:          f.group,
				Icon:           f.icon,
				Color:          f.color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s (%s)\n", acc.Name, rt.money(acc.InitialBalance, acc.Currency))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAccountSetCmd(rt *runtime) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Change an account's type, initial balance, currency or display fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := accountByName(rt.store().Snapshot(), args[0])
			if err != nil {
				return err
			}
			var patch store.AccountPatch
			flags := cmd.Flags()
			if flags.Changed("type") {
				t := core.AccountType(f.accountType)
				patch.Type = &t
			}
			if flags.Changed("balance") {
				b, err := core.ParseSignedAmount(f.balance)
				if err != nil {
					return fmt.Errorf("balance: %w", err)
				}
				patch.InitialBalance = &b
			}
			if flags.Changed("currency") {
				patch.Currency = &f.currency
			}
			if flags.Changed("group") {
				patch.Group = &f.group
			}
			if flags.Changed("icon") {
				patch.Icon = &f.icon
			}
			if flags.Changed("color") {
				patch.Color = &f.color
			}
			if flags.Changed("virtual") {
				patch.IsVirtual = &f.virtual
			}
			updated, err := rt.store().UpdateAccount(cmd.Context(), acc.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", updated.Name)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAccountRenameCmd(rt *runtime) *cobra.Command {
	var rewrite bool
	cmd := &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := accountByName(rt.store().Snapshot(), args[0])
			if err != nil {
				return err
			}
			n, err := rt.store().RenameAccount(cmd.Context(), acc.ID, args[1], rewrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s, %d transactions moved\n", args[0], args[1], n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rewrite, "rewrite", true, "move transactions to the new name")
	return cmd
}

func newAccountDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an account; its transactions are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := accountByName(rt.store().Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := rt.store().DeleteAccount(cmd.Context(), acc.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", acc.Name)
			return nil
		},
	}
}

func newBalanceCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the total balance, credit card debt and this month's flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			card := rt.dashboard.Card()
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Total balance\t%s\n", rt.money(card.Total, ""))
			fmt.Fprintf(tw, "Credit cards\t%s\n", rt.money(card.CreditCardDebt, ""))
			fmt.Fprintf(tw, "Income %s\t%s\n", card.Month, rt.money(card.MonthIncome, ""))
			fmt.Fprintf(tw, "Expense %s\t%s\n", card.Month, rt.money(card.MonthExpense, ""))
			return tw.Flush()
		},
	}
}
