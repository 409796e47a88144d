package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// column is a sortable table column. Its position is also its sort key.
type column struct {
	title string
	field string
	width int
}

var columns = []column{
	{title: "Ordered", field: "order_date", width: 12},
	{title: "Release", field: "release_date", width: 12},
	{title: "Product", field: "product_name"},
	{title: "Store", field: "store_name", width: 16},
	{title: "Status", field: "status", width: 10},
	{title: "Qty", field: "quantity", width: 7},
	{title: "Total", field: "total_cost", width: 10},
	{title: "Paid", field: "amount_paid", width: 10},
	{title: "Owing", field: "amount_owing", width: 10},
}

const (
	markWidth       = 1
	minProductWidth = 12
	// Lines used by everything except the table rows.
	chromeHeight = 12
)

func (m *Model) resize() {
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(3, m.height-chromeHeight))
	m.help.Width = m.width
	m.input.Width = max(10, m.width-40)
}

func (m Model) productWidth() int {
	fixed := markWidth + 2
	for _, c := range columns {
		fixed += c.width + 2
	}
	return max(minProductWidth, m.width-fixed)
}

// syncTable rebuilds headers and rows from the current state and result.
func (m *Model) syncTable() {
	s := m.list.State()

	cols := make([]table.Column, 0, len(columns)+1)
	cols = append(cols, table.Column{Title: " ", Width: markWidth})
	for i, c := range columns {
		width := c.width
		if width == 0 {
			width = m.productWidth()
		}
		cols = append(cols, table.Column{Title: headerTitle(i, c, s), Width: width})
	}

	var rows []table.Row
	if res, ok := m.list.Result(); ok {
		rows = make([]table.Row, 0, len(res.Items))
		for _, o := range res.Items {
			rows = append(rows, m.orderRow(o))
		}
	}

	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func headerTitle(i int, c column, s filter.State) string {
	title := strconv.Itoa(i+1) + " " + c.title
	if s.SortBy != c.field {
		return title
	}
	if s.SortOrder == filter.Asc {
		return title + " ▲"
	}
	return title + " ▼"
}

func (m Model) orderRow(o model.Order) table.Row {
	mark := " "
	if m.selected[o.ID] && m.selVersion == m.list.Version() {
		mark = "✓"
	}
	release := ""
	if o.ReleaseDate != nil {
		release = o.ReleaseDate.String()
	}
	return table.Row{
		mark,
		o.OrderDate.String(),
		release,
		o.ProductName,
		o.StoreName,
		string(o.Status),
		strconv.Itoa(o.Quantity),
		formatMoney(o.ComputedTotalCost()),
		formatMoney(o.AmountPaid),
		formatMoney(o.ComputedAmountOwing()),
	}
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader(), m.renderFilters()}
	if banner := m.renderListError(); banner != "" {
		sections = append(sections, banner)
	}
	if stats := m.renderStats(); stats != "" {
		sections = append(sections, stats)
	}
	sections = append(sections, m.renderTable(), m.renderFooter())
	if status := m.renderStatusLine(); status != "" {
		sections = append(sections, status)
	}
	if m.prompt != promptNone {
		sections = append(sections, m.renderPrompt())
	}
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keymap.FullHelp()))
	} else {
		sections = append(sections, m.help.ShortHelpView(m.keymap.ShortHelp()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("TCG Orders")
	switch {
	case m.list.Stale():
		return title + "  " + m.spinner.View() + m.theme.Muted.Render(" refreshing")
	case m.list.Loading():
		return title + "  " + m.spinner.View() + m.theme.Muted.Render(" loading")
	}
	return title
}

// describeFilters lists the active constraints of s in display order.
func describeFilters(s filter.State) []string {
	var chips []string
	if s.Search != "" {
		chips = append(chips, fmt.Sprintf("search: %q", s.Search))
	}
	if s.Status != "" {
		chips = append(chips, "status: "+string(s.Status))
	}
	if s.Store != "" {
		chips = append(chips, "store: "+s.Store)
	}
	if !s.OrderDateFrom.IsZero() || !s.OrderDateTo.IsZero() {
		chips = append(chips, "ordered: "+formatRange(s.OrderDateFrom, s.OrderDateTo))
	}
	if !s.ReleaseDateFrom.IsZero() || !s.ReleaseDateTo.IsZero() {
		chips = append(chips, "released: "+formatRange(s.ReleaseDateFrom, s.ReleaseDateTo))
	}
	if s.AmountOwingOnly {
		chips = append(chips, "owing only")
	}
	return chips
}

func (m Model) renderFilters() string {
	s := m.list.State()
	chips := describeFilters(s)
	if len(chips) == 0 {
		return m.theme.Muted.Render("No filters")
	}

	rendered := make([]string, 0, len(chips)+1)
	for _, chip := range chips {
		rendered = append(rendered, m.theme.FilterChip.Render(chip))
	}
	rendered = append(rendered, m.theme.Muted.Render(
		fmt.Sprintf("%d active · c to clear", s.ActiveCount())))
	return strings.Join(rendered, " ")
}

func (m Model) renderListError() string {
	err := m.list.Err()
	if err == nil {
		return ""
	}

	var maint *common.MaintenanceError
	switch {
	case errors.As(err, &maint):
		msg := "The service is under maintenance"
		if maint.Message != "" {
			msg += ": " + maint.Message
		}
		return m.theme.StatusWarning.Render(msg) +
			m.theme.Muted.Render(fmt.Sprintf(" (checking again every %s)", m.config.PollInterval))
	case errors.Is(err, common.ErrUnauthenticated):
		return m.theme.StatusError.Render("Sign-in required: "+err.Error()) +
			m.theme.Muted.Render(" Set api.token and restart.")
	case errors.Is(err, common.ErrNetwork):
		return m.theme.StatusError.Render("Could not reach the server: "+err.Error()) +
			m.theme.Muted.Render(" r to retry, esc to dismiss")
	default:
		return m.theme.StatusError.Render("Could not load orders: "+err.Error()) +
			m.theme.Muted.Render(" r to retry, esc to dismiss")
	}
}

func (m Model) renderStats() string {
	if !m.statsEnabled() {
		return ""
	}
	a, ok := m.summary.Result()
	if !ok {
		if err := m.summary.Err(); err != nil {
			return m.theme.Muted.Render("Summary unavailable: " + err.Error())
		}
		return m.theme.Muted.Render("Loading summary")
	}

	st := a.Statistics
	line := fmt.Sprintf("%d orders · %d pending · %d delivered · %d sold · cost %s · owing %s · profit %s",
		st.TotalOrders, st.PendingCount, st.DeliveredCount, st.SoldCount,
		formatMoney(st.TotalCost), formatMoney(st.AmountOwing), formatMoney(st.TotalProfit))

	if len(a.SpendingByStore) > 0 {
		top := a.SpendingByStore[:min(3, len(a.SpendingByStore))]
		parts := make([]string, 0, len(top))
		for _, s := range top {
			parts = append(parts, s.StoreName+" "+formatMoney(s.TotalSpent))
		}
		line += "\n" + m.theme.Muted.Render("Top stores: "+strings.Join(parts, ", "))
	}
	return m.theme.BorderedBox.Render(line)
}

func (m Model) renderTable() string {
	res, ok := m.list.Result()
	if ok && len(res.Items) == 0 && !m.list.Loading() {
		if m.list.State().HasConstraints() {
			return m.theme.Muted.Render("No orders match these filters.")
		}
		return m.theme.Muted.Render("No orders yet.")
	}
	return m.table.View()
}

func (m Model) renderFooter() string {
	s := m.list.State()
	res, ok := m.list.Result()
	if !ok {
		return ""
	}

	start, end := res.Range()
	parts := []string{m.theme.Muted.Render(ShowingText(start, end, res.Total))}

	window := PageWindow(s.Page, res.TotalPages())
	if len(window) > 1 {
		pages := make([]string, 0, len(window))
		for _, p := range window {
			switch {
			case p == Ellipsis:
				pages = append(pages, m.theme.Muted.Render("…"))
			case p == s.Page:
				pages = append(pages, m.theme.CurrentPage.Render(strconv.Itoa(p)))
			default:
				pages = append(pages, m.theme.Page.Render(strconv.Itoa(p)))
			}
		}
		parts = append(parts, strings.Join(pages, ""))
	}

	parts = append(parts, m.theme.Muted.Render(fmt.Sprintf("%d per page", s.PageSize)))
	return strings.Join(parts, "   ")
}

func (m Model) renderStatusLine() string {
	var parts []string
	if n := len(m.SelectedIDs()); n > 0 {
		parts = append(parts, m.theme.Marked.Render(fmt.Sprintf("%d selected", n)))
	}

	switch {
	case m.mutating:
		parts = append(parts, m.spinner.View()+" "+m.theme.StatusPending.Render(m.pendingOp))
	case m.flashErr != nil:
		parts = append(parts, m.theme.StatusError.Render(mutationErrorText(m.flashErr))+
			m.theme.Muted.Render(" esc to dismiss"))
	case m.flash != "":
		parts = append(parts, m.theme.StatusSuccess.Render(m.flash))
	}
	return strings.Join(parts, "  ")
}

func mutationErrorText(err error) string {
	var verr *common.ValidationError
	var uerr *common.UserError
	switch {
	case errors.As(err, &uerr):
		return uerr.UserMessage
	case errors.As(err, &verr):
		return err.Error()
	case errors.Is(err, common.ErrMutationPending):
		return "Another change is still running"
	case errors.Is(err, common.ErrNotFound):
		return "That order no longer exists"
	default:
		return "Change failed: " + err.Error()
	}
}

func (m Model) renderPrompt() string {
	if m.prompt == promptConfirmDelete {
		what := fmt.Sprintf("%d orders", len(m.pendingDelete))
		if len(m.pendingDelete) == 1 {
			if o, ok := m.orderByID(m.pendingDelete[0]); ok {
				what = o.ProductName
			}
		}
		return m.theme.StatusWarning.Render("Delete " + what + "? (y/N)")
	}

	line := m.input.View()
	if m.inputErr != "" {
		line += "  " + m.theme.StatusError.Render(m.inputErr)
	}
	return line
}
