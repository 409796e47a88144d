package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/spf13/cobra"
)

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarise spending, status and profit",
		Long: `Show the order summary for the orders matching the filter flags:
counts by status, total cost, amount owing and profit, then spending and
profit by store and spending by month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := stateFromFlags(cmd)
			if err != nil {
				return err
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			a, err := client.Analytics(cmd.Context(), s.FilterOnly())
			if err != nil {
				return fmt.Errorf("failed to get analytics: %w", err)
			}
			return writeAnalytics(cmd.OutOrStdout(), s, a)
		},
	}
	addFilterFlags(cmd, false)
	return cmd
}

func writeAnalytics(w io.Writer, s filter.State, a model.Analytics) error {
	st := a.Statistics
	scope := "All orders"
	if q := filter.ConstraintValues(s).Encode(); q != "" {
		scope = q
	}

	margin := "-"
	if st.AverageProfitMargin != nil {
		margin = st.AverageProfitMargin.StringFixed(1) + "%"
	}
	summary := fmt.Sprintf("Orders:     %d (%d pending, %d delivered, %d sold)\n"+
		"Total cost: %s\nOwing:      %s\nProfit:     %s\nMargin:     %s",
		st.TotalOrders, st.PendingCount, st.DeliveredCount, st.SoldCount,
		cli.FormatMoney(st.TotalCost), cli.FormatMoney(st.AmountOwing), cli.FormatMoney(st.TotalProfit), margin)

	fmt.Fprintln(w, cli.FormatTitle("Order summary"))
	fmt.Fprintln(w, cli.SubtleStyle.Render(scope))
	fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" Statistics", summary))

	if len(a.StatusOverview) > 0 {
		fmt.Fprintln(w)
		t := cli.NewTable(w)
		if err := t.Header("Status", "Orders", "Value"); err != nil {
			return err
		}
		for _, row := range a.StatusOverview {
			if err := t.Row(cli.StatusStyle(row.Status).Render(string(row.Status)), strconv.Itoa(row.Count), cli.FormatMoney(row.TotalValue)); err != nil {
				return err
			}
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(a.SpendingByStore) > 0 {
		fmt.Fprintln(w)
		t := cli.NewTable(w)
		if err := t.Header("Store", "Orders", "Spent"); err != nil {
			return err
		}
		for _, row := range a.SpendingByStore {
			if err := t.Row(row.StoreName, strconv.Itoa(row.OrderCount), cli.FormatMoney(row.TotalSpent)); err != nil {
				return err
			}
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(a.ProfitByStore) > 0 {
		fmt.Fprintln(w)
		t := cli.NewTable(w)
		if err := t.Header("Store", "Sold", "Profit", "Margin"); err != nil {
			return err
		}
		for _, row := range a.ProfitByStore {
			m := "-"
			if row.AverageProfitMargin != nil {
				m = row.AverageProfitMargin.StringFixed(1) + "%"
			}
			if err := t.Row(row.StoreName, strconv.Itoa(row.SoldCount), cli.FormatMoney(row.TotalProfit), m); err != nil {
				return err
			}
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	if len(a.MonthlySpending) > 0 {
		fmt.Fprintln(w)
		t := cli.NewTable(w)
		if err := t.Header("Month", "Orders", "Spent"); err != nil {
			return err
		}
		for _, row := range a.MonthlySpending {
			if err := t.Row(row.Month, strconv.Itoa(row.OrderCount), cli.FormatMoney(row.TotalSpent)); err != nil {
				return err
			}
		}
		if err := t.Flush(); err != nil {
			return err
		}
	}

	return nil
}
