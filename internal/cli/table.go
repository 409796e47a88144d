package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/tcg-ledger/internal/model"
)

// Table writes aligned columns with a styled header and a rule under it.
type Table struct {
	w *tabwriter.Writer
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

// Header writes the header row. Each rule is as wide as its title.
func (t *Table) Header(titles ...string) error {
	styled := make([]string, len(titles))
	rules := make([]string, len(titles))
	for i, title := range titles {
		styled[i] = HeaderStyle.Render(title)
		rules[i] = strings.Repeat("─", max(4, len(title)))
	}
	if err := t.Row(styled...); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := t.Row(rules...); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	return nil
}

// Row writes one row.
func (t *Table) Row(cells ...string) error {
	_, err := fmt.Fprintln(t.w, strings.Join(cells, "\t"))
	return err
}

// Flush writes buffered rows to the underlying writer.
func (t *Table) Flush() error {
	return t.w.Flush()
}

// WriteOrders renders orders as a table.
func WriteOrders(w io.Writer, orders []model.Order) error {
	t := NewTable(w)
	if err := t.Header("ID", "Ordered", "Product", "Store", "Status", "Qty", "Total", "Paid", "Owing", "Release"); err != nil {
		return err
	}
	for _, o := range orders {
		release := "-"
		if o.ReleaseDate != nil {
			release = o.ReleaseDate.String()
		}
		if err := t.Row(
			o.ID,
			o.OrderDate.String(),
			truncate(o.ProductName, 40),
			o.StoreName,
			StatusStyle(o.Status).Render(string(o.Status)),
			strconv.Itoa(o.Quantity),
			FormatMoney(o.ComputedTotalCost()),
			FormatMoney(o.AmountPaid),
			FormatMoney(o.ComputedAmountOwing()),
			release,
		); err != nil {
			return fmt.Errorf("failed to write order row: %w", err)
		}
	}
	return t.Flush()
}

// WriteOrder renders every field of one order.
func WriteOrder(w io.Writer, o model.Order) error {
	optional := func(s *string) string {
		if s == nil || *s == "" {
			return "-"
		}
		return *s
	}
	release := "-"
	if o.ReleaseDate != nil {
		release = o.ReleaseDate.String()
	}
	margin := "-"
	if o.ProfitMargin != nil {
		margin = o.ProfitMargin.StringFixed(1) + "%"
	}

	t := NewTable(w)
	rows := [][2]string{
		{"ID", o.ID},
		{"Product", o.ProductName},
		{"Store", o.StoreName},
		{"Status", StatusStyle(o.Status).Render(string(o.Status))},
		{"Ordered", o.OrderDate.String()},
		{"Release", release},
		{"Quantity", strconv.Itoa(o.Quantity)},
		{"Cost / item", FormatMoney(o.CostPerItem)},
		{"Total cost", FormatMoney(o.ComputedTotalCost())},
		{"Paid", FormatMoney(o.AmountPaid)},
		{"Owing", FormatMoney(o.ComputedAmountOwing())},
		{"Sold price", FormatOptionalMoney(o.SoldPrice)},
		{"Profit", FormatOptionalMoney(o.Profit)},
		{"Margin", margin},
		{"URL", optional(o.ProductURL)},
		{"Notes", optional(o.Notes)},
	}
	for _, r := range rows {
		if err := t.Row(BoldStyle.Render(r[0]), r[1]); err != nil {
			return fmt.Errorf("failed to write field: %w", err)
		}
	}
	return t.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
