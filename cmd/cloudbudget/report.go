package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cloudbudget/internal/report"
)

func newReportCmd(rt *runtime) *cobra.Command {
	var (
		period, from, to, sortBy string
		top                      int
		asJSON                   bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly income and expense, top categories and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := report.ParsePeriod(period, from, to)
			if err != nil {
				return err
			}
			key, err := report.ParseSortKey(sortBy)
			if err != nil {
				return err
			}

			r := rt.dashboard.Report(p, top)
			r.Months = report.SortBuckets(r.Months, key)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}

			fmt.Fprintf(out, "Report %s (%s to %s)\n\n", p.Label(rt.now()), r.Start, r.End)

			tw := newTable(out)
			fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tBALANCE")
			for _, m := range r.Months {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Month, rt.money(m.Income, ""), rt.money(m.Expense, ""), rt.money(m.Balance, ""))
			}
			fmt.Fprintf(tw, "Total\t%s\t%s\t%s\n", rt.money(r.Summary.Income, ""), rt.money(r.Summary.Expense, ""), rt.money(r.Summary.Net, ""))
			fmt.Fprintf(tw, "Average\t%s\t%s\t\n", rt.money(r.Summary.AverageIncome, ""), rt.money(r.Summary.AverageExpense, ""))
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nTop categories")
			tw = newTable(out)
			for _, c := range r.Categories {
				fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Category, rt.money(c.Amount, ""), c.Percentage)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nTop tags")
			tw = newTable(out)
			for _, t := range r.Tags {
				fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%d\n", t.Tag, rt.money(t.Amount, ""), t.Percentage, t.Count)
			}
			return tw.Flush()
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&period, "period", string(report.LastSixMonths), "6m, 12m or custom")
	fs.StringVar(&from, "from", "", "custom period start, YYYY-MM")
	fs.StringVar(&to, "to", "", "custom period end, YYYY-MM")
	fs.StringVar(&sortBy, "sort", string(report.ByMonth), "month, income, expense or balance")
	fs.IntVar(&top, "top", report.DefaultTopN, "categories and tags to show, 0 for all")
	fs.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
