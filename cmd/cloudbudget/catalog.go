package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cloudbudget/internal/core"
	"cloudbudget/internal/store"
)

// newCatalogCmds builds the list/add/delete commands for categories, tags,
// merchants and currencies.
func newCatalogCmds(rt *runtime) []*cobra.Command {
	return []*cobra.Command{
		newCategoriesCmd(rt),
		newTagsCmd(rt),
		newMerchantsCmd(rt),
		newCurrenciesCmd(rt),
	}
}

func newCategoriesCmd(rt *runtime) *cobra.Command {
	var addType, delType, icon string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tTYPE\tICON")
			for _, c := range rt.store().Snapshot().Categories() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Type, c.Icon)
			}
			return tw.Flush()
		},
	}
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.store().AddCategory(cmd.Context(), core.Category{Name: args[0], Type: core.TransactionType(addType), Icon: icon})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s category %s\n", c.Type, c.Name)
			return nil
		},
	}
	add.Flags().StringVar(&addType, "type", string(core.Expense), "expense or income")
	add.Flags().StringVar(&icon, "icon", "", "display icon")

	del := deleteCmd("category", func(cmd *cobra.Command, name string) error {
		for _, c := range rt.store().Snapshot().Categories() {
			if c.Name == name && (delType == "" || string(c.Type) == delType) {
				return rt.store().DeleteCategory(cmd.Context(), c.ID)
			}
		}
		return fmt.Errorf("category %q: %w", name, store.ErrNotFound)
	})
	del.Flags().StringVar(&delType, "type", "", "expense or income, when the name exists for both")

	cmd.AddCommand(add, del)
	return cmd
}

func newTagsCmd(rt *runtime) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0)
			for _, t := range rt.store().Snapshot().Tags() {
				names = append(names, t.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return nil
		},
	}
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := rt.store().AddTag(cmd.Context(), core.Tag{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added tag %s\n", t.Name)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color")
	del := deleteCmd("tag", func(cmd *cobra.Command, name string) error {
		for _, t := range rt.store().Snapshot().Tags() {
			if t.Name == name {
				return rt.store().DeleteTag(cmd.Context(), t.ID)
			}
		}
		return fmt.Errorf("tag %q: %w", name, store.ErrNotFound)
	})
	cmd.AddCommand(add, del)
	return cmd
}

func newMerchantsCmd(rt *runtime) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "List merchants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tCATEGORY")
			for _, m := range rt.store().Snapshot().Merchants() {
				fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.Category)
			}
			return tw.Flush()
		},
	}
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a merchant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rt.store().AddMerchant(cmd.Context(), core.Merchant{Name: args[0], Category: category})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added merchant %s\n", m.Name)
			return nil
		},
	}
	add.Flags().StringVar(&category, "category", "", "default category")
	del := deleteCmd("merchant", func(cmd *cobra.Command, name string) error {
		for _, m := range rt.store().Snapshot().Merchants() {
			if m.Name == name {
				return rt.store().DeleteMerchant(cmd.Context(), m.ID)
			}
		}
		return fmt.Errorf("merchant %q: %w", name, store.ErrNotFound)
	})
	cmd.AddCommand(add, del)
	return cmd
}

func newCurrenciesCmd(rt *runtime) *cobra.Command {
	var name, symbol string
	cmd := &cobra.Command{
		Use:   "currencies",
		Short: "List currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CODE\tSYMBOL\tNAME")
			for _, c := range rt.store().Snapshot().Currencies() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Symbol, c.Name)
			}
			return tw.Flush()
		},
	}
	add := &cobra.Command{
		Use:   "add CODE",
		Short: "Add a currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.store().AddCurrency(cmd.Context(), core.Currency{Code: args[0], Name: name, Symbol: symbol})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added currency %s\n", c.Code)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&symbol, "symbol", "", "display symbol")
	del := deleteCmd("currency", func(cmd *cobra.Command, code string) error {
		for _, c := range rt.store().Snapshot().Currencies() {
			if strings.EqualFold(c.Code, code) {
				return rt.store().DeleteCurrency(cmd.Context(), c.ID)
			}
		}
		return fmt.Errorf("currency %q: %w", code, store.ErrNotFound)
	})
	cmd.AddCommand(add, del)
	return cmd
}

func deleteCmd(kind string, del func(cmd *cobra.Command, name string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := del(cmd, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, args[0])
			return nil
		},
	}
}
