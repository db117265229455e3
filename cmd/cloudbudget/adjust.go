package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudbudget/internal/core"
	"cloudbudget/internal/ledger"
)

func newAdjustCmd(rt *runtime) *cobra.Command {
	var date, note string
	cmd := &cobra.Command{
		Use:   "adjust ACCOUNT ACTUAL",
		Short: "Record a correction so the account balance equals ACTUAL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.store().Snapshot()
			acc, err := accountByName(snap, args[0])
			if err != nil {
				return err
			}
			actual, err := core.ParseSignedAmount(args[1])
			if err != nil {
				return fmt.Errorf("actual balance: %w", err)
			}
			day, err := parseDate(date, rt.today())
			if err != nil {
				return err
			}

			tx, ok := ledger.NewAdjustment(acc, snap.Transactions(), actual, day, note)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already balances at %s\n", acc.Name, rt.money(actual, acc.Currency))
				return nil
			}
			added, err := rt.store().AddTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Adjusted %s by %s (transaction %d)\n", acc.Name, rt.money(added.Amount, acc.Currency), added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "note for the correction")
	return cmd
}

func newPayCardCmd(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "pay-card FROM CARD AMOUNT",
		Short: "Pay a credit card from another account",
		Long: `Records a transfer from FROM to the credit card CARD. Card payments are
left out of reports; the card purchases are already counted as expenses.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.store().Snapshot()
			from, err := accountByName(snap, args[0])
			if err != nil {
				return err
			}
			card, err := accountByName(snap, args[1])
			if err != nil {
				return err
			}
			if card.Type != core.CreditCard {
				return fmt.Errorf("%s is not a credit card", card.Name)
			}
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			day, err := parseDate(date, rt.today())
			if err != nil {
				return err
			}

			added, err := rt.store().AddTransaction(cmd.Context(), core.Transaction{
				Type:        core.Transfer,
				Amount:      amount,
				Date:        day,
				Note:        core.CardPaymentNote,
				FromAccount: from.Name,
				ToAccount:   card.Name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paid %s to %s (transaction %d)\n", rt.money(amount, from.Currency), card.Name, added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	return cmd
}
