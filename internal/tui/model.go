// Package tui is the interactive order dashboard: a paged, sortable,
// filterable table with selection scoped to the rows on screen and inline
// feedback for every fetch and mutation.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/query"
	"github.com/Veraticus/tcg-ledger/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the dashboard state.
type Model struct {
	flashErr      error
	deps          Deps
	selected      map[string]bool
	theme         themes.Theme
	config        Config
	input         textinput.Model
	help          help.Model
	keymap        KeyMap
	list          query.View[model.QueryResult]
	summary       query.View[model.Analytics]
	table         table.Model
	spinner       spinner.Model
	flash         string
	inputErr      string
	pendingOp     string
	pendingDelete []string
	selVersion    uint64
	prompt        promptKind
	width         int
	height        int
	mutating      bool
	showStats     bool
	showHelp      bool
	quitting      bool
}

// New creates the dashboard model.
func New(deps Deps, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(deps, cfg)
}

func newModel(deps Deps, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.StatusInfo

	input := textinput.New()
	input.CharLimit = 200

	t := table.New(
		table.WithFocused(true),
		table.WithKeyMap(table.KeyMap{
			LineUp:   key.NewBinding(key.WithKeys("up", "k")),
			LineDown: key.NewBinding(key.WithKeys("down", "j")),
		}),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header.Padding(0, 1)
	styles.Cell = cfg.Theme.Cell.Padding(0, 1)
	styles.Selected = cfg.Theme.Selected
	t.SetStyles(styles)

	initial := cfg.Initial
	if initial.PageSize == 0 {
		initial = filter.Default()
	}

	m := Model{
		deps:      deps,
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		input:     input,
		table:     t,
		list:      query.NewView[model.QueryResult](initial),
		summary:   query.NewView[model.Analytics](initial.FilterOnly()),
		selected:  make(map[string]bool),
		showStats: cfg.ShowStats,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.resize()
	m.syncTable()
	return m
}

// State returns the filter the dashboard is showing.
func (m Model) State() filter.State {
	return m.list.State()
}

// Init starts the first fetches.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.fetchList(false)}
	if m.statsEnabled() {
		cmds = append(cmds, m.fetchAnalytics(false))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.syncTable()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listLoadedMsg:
		return m, m.handleListLoaded(msg)

	case analyticsLoadedMsg:
		if !m.summary.Resolve(msg.ticket, msg.analytics, msg.err) {
			slog.Debug("Dropping superseded result", "resource", m.deps.Analytics.Name(), "key", msg.ticket.Key)
		}
		return m, nil

	case mutationDoneMsg:
		return m, m.handleMutationDone(msg)

	case viewSavedMsg:
		if msg.err != nil {
			m.flashErr = msg.err
		} else {
			m.flash = "Saved view " + msg.name
		}
		return m, nil

	case maintenanceRetryMsg:
		if !errors.Is(m.list.Err(), common.ErrMaintenance) {
			return m, nil
		}
		m.list.Refresh()
		return m, m.fetchList(true)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleListLoaded(msg listLoadedMsg) tea.Cmd {
	if !m.list.Resolve(msg.ticket, msg.result, msg.err) {
		slog.Debug("Dropping superseded result", "resource", m.deps.Orders.Name(), "key", msg.ticket.Key)
		return nil
	}

	if msg.err != nil {
		if errors.Is(msg.err, common.ErrMaintenance) {
			return tea.Tick(m.config.PollInterval, func(time.Time) tea.Msg {
				return maintenanceRetryMsg{}
			})
		}
		return nil
	}

	m.clearSelection()
	m.syncTable()

	// Deleting the last rows of the final page leaves it empty.
	s := m.list.State()
	if len(msg.result.Items) == 0 && msg.result.Total > 0 && s.Page > msg.result.TotalPages() {
		return m.navigate(s.GoTo(msg.result.TotalPages()))
	}
	return nil
}

func (m *Model) handleMutationDone(msg mutationDoneMsg) tea.Cmd {
	m.mutating = false
	m.pendingOp = ""

	if msg.err != nil {
		m.flashErr = msg.err
		return nil
	}

	m.deps.Mutations.Dismiss()
	m.flash = describeMutation(msg)
	m.clearSelection()

	m.list.Refresh()
	cmds := []tea.Cmd{m.fetchList(false)}
	if m.statsEnabled() {
		m.summary.Refresh()
		cmds = append(cmds, m.fetchAnalytics(false))
	}
	return tea.Batch(cmds...)
}

func describeMutation(msg mutationDoneMsg) string {
	if msg.bulk == nil {
		return "Done: " + msg.op
	}
	if err := msg.bulk.Err(); err != nil {
		return err.Error()
	}
	if msg.bulk.Message != "" {
		return msg.bulk.Message
	}
	return "Done: " + msg.op
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return tea.Quit
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	s := m.list.State()
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Cancel):
		m.dismiss()

	case key.Matches(msg, m.keymap.Up):
		m.table.MoveUp(1)

	case key.Matches(msg, m.keymap.Down):
		m.table.MoveDown(1)

	case key.Matches(msg, m.keymap.NextPage):
		if s.Page < m.totalPages() {
			return m.navigate(s.GoTo(s.Page + 1))
		}

	case key.Matches(msg, m.keymap.PrevPage):
		if s.Page > 1 {
			return m.navigate(s.GoTo(s.Page - 1))
		}

	case key.Matches(msg, m.keymap.FirstPage):
		return m.navigate(s.GoTo(1))

	case key.Matches(msg, m.keymap.LastPage):
		if n := m.totalPages(); n > 0 {
			return m.navigate(s.GoTo(n))
		}

	case key.Matches(msg, m.keymap.PageSize):
		return m.navigate(s.WithPageSize(nextPageSize(s.PageSize)))

	case key.Matches(msg, m.keymap.Search):
		return m.openPrompt(promptSearch, "Search: ", s.Search)

	case key.Matches(msg, m.keymap.Store):
		return m.openPrompt(promptStore, "Store: ", s.Store)

	case key.Matches(msg, m.keymap.Status):
		next := nextStatus(s.Status)
		return m.navigate(s.Apply(filter.Patch{Status: &next}))

	case key.Matches(msg, m.keymap.OrderDates):
		return m.openPrompt(promptOrderDates, "Order dates (from..to): ", formatRange(s.OrderDateFrom, s.OrderDateTo))

	case key.Matches(msg, m.keymap.ReleaseDates):
		return m.openPrompt(promptReleaseDates, "Release dates (from..to): ", formatRange(s.ReleaseDateFrom, s.ReleaseDateTo))

	case key.Matches(msg, m.keymap.OwingOnly):
		owing := !s.AmountOwingOnly
		return m.navigate(s.Apply(filter.Patch{AmountOwingOnly: &owing}))

	case key.Matches(msg, m.keymap.ClearFilters):
		return m.navigate(s.Clear())

	case key.Matches(msg, m.keymap.SortColumn):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(columns) {
			return m.navigate(s.ToggleSort(columns[idx].field))
		}

	case key.Matches(msg, m.keymap.SaveView):
		if m.deps.Views == nil {
			m.flash = "Saved views are not available"
			return nil
		}
		return m.openPrompt(promptSaveView, "Save view as: ", "")

	case key.Matches(msg, m.keymap.ToggleSelect):
		m.toggleCurrent()

	case key.Matches(msg, m.keymap.SelectAll):
		if res, ok := m.list.Result(); ok {
			for _, id := range res.IDs() {
				m.selected[id] = true
			}
			m.syncTable()
		}

	case key.Matches(msg, m.keymap.DeselectAll):
		m.clearSelection()
		m.syncTable()

	case key.Matches(msg, m.keymap.BulkStatus):
		if m.canMutate() && len(m.targets()) > 0 {
			return m.openPrompt(promptBulkStatus, "Set status (Pending/Delivered/Sold): ", "")
		}

	case key.Matches(msg, m.keymap.MarkPaid):
		return m.markPaid()

	case key.Matches(msg, m.keymap.Delete):
		if !m.canMutate() {
			return nil
		}
		if ids := m.targets(); len(ids) > 0 {
			m.pendingDelete = ids
			m.prompt = promptConfirmDelete
		}

	case key.Matches(msg, m.keymap.ToggleStats):
		m.showStats = !m.showStats
		if m.statsEnabled() && m.summary.SetState(s.FilterOnly()) {
			return m.fetchAnalytics(false)
		}

	case key.Matches(msg, m.keymap.Refresh):
		m.list.Refresh()
		cmds := []tea.Cmd{m.fetchList(true)}
		if m.statsEnabled() {
			m.summary.Refresh()
			cmds = append(cmds, m.fetchAnalytics(true))
		}
		return tea.Batch(cmds...)
	}

	return nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	if m.prompt == promptConfirmDelete {
		ids := m.pendingDelete
		m.closePrompt()
		if msg.String() == "y" || msg.String() == "Y" {
			return m.deleteOrders(ids)
		}
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return nil
	case tea.KeyEnter:
		return m.submitPrompt(strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) openPrompt(kind promptKind, prompt, value string) tea.Cmd {
	m.prompt = kind
	m.inputErr = ""
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.inputErr = ""
	m.pendingDelete = nil
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) submitPrompt(value string) tea.Cmd {
	s := m.list.State()
	kind := m.prompt

	switch kind {
	case promptSearch:
		m.closePrompt()
		return m.navigate(s.WithSearch(value))

	case promptStore:
		m.closePrompt()
		return m.navigate(s.Apply(filter.Patch{Store: &value}))

	case promptOrderDates, promptReleaseDates:
		from, to, err := parseRange(value)
		if err != nil {
			m.inputErr = err.Error()
			return nil
		}
		m.closePrompt()
		if kind == promptOrderDates {
			return m.navigate(s.Apply(filter.Patch{OrderDateFrom: &from, OrderDateTo: &to}))
		}
		return m.navigate(s.Apply(filter.Patch{ReleaseDateFrom: &from, ReleaseDateTo: &to}))

	case promptBulkStatus:
		status, ok := parseStatus(value)
		if !ok {
			m.inputErr = "Status must be Pending, Delivered or Sold"
			return nil
		}
		m.closePrompt()
		return m.setStatus(status)

	case promptSaveView:
		if value == "" {
			m.inputErr = "Enter a name"
			return nil
		}
		m.closePrompt()
		return m.saveView(value, s)
	}

	m.closePrompt()
	return nil
}

// navigate moves the dashboard to next, fetching whatever is not current.
func (m *Model) navigate(next filter.State) tea.Cmd {
	var cmds []tea.Cmd
	if m.list.SetState(next) {
		m.clearSelection()
		cmds = append(cmds, m.rememberView(next))
		// A cached page is shown at once instead of flashing "refreshing".
		if res, ok := m.deps.Orders.Peek(next); ok {
			cmds = append(cmds, m.handleListLoaded(listLoadedMsg{ticket: m.list.Ticket(), result: res}))
		} else {
			cmds = append(cmds, m.fetchList(false))
		}
	}
	if m.statsEnabled() && m.summary.SetState(next.FilterOnly()) {
		cmds = append(cmds, m.fetchAnalytics(false))
	}
	m.syncTable()
	return tea.Batch(cmds...)
}

func (m *Model) dismiss() {
	switch {
	case m.flashErr != nil:
		m.flashErr = nil
		if m.deps.Mutations != nil {
			m.deps.Mutations.Dismiss()
		}
	case m.list.Err() != nil:
		m.list.ClearErr()
	case m.flash != "":
		m.flash = ""
	default:
		m.clearSelection()
		m.syncTable()
	}
}

func (m *Model) clearSelection() {
	clear(m.selected)
	m.selVersion = m.list.Version()
}

func (m *Model) toggleCurrent() {
	o, ok := m.currentOrder()
	if !ok {
		return
	}
	if m.selVersion != m.list.Version() {
		m.clearSelection()
	}
	if m.selected[o.ID] {
		delete(m.selected, o.ID)
	} else {
		m.selected[o.ID] = true
	}
	m.syncTable()
}

// SelectedIDs returns the selected rows of the displayed result in display
// order. A selection made against an earlier result is ignored.
func (m Model) SelectedIDs() []string {
	res, ok := m.list.Result()
	if !ok || m.selVersion != m.list.Version() {
		return nil
	}
	var ids []string
	for _, id := range res.IDs() {
		if m.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// targets are the rows a mutation applies to: the selection, or the row
// under the cursor.
func (m Model) targets() []string {
	if ids := m.SelectedIDs(); len(ids) > 0 {
		return ids
	}
	if o, ok := m.currentOrder(); ok {
		return []string{o.ID}
	}
	return nil
}

func (m Model) currentOrder() (model.Order, bool) {
	res, ok := m.list.Result()
	if !ok {
		return model.Order{}, false
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(res.Items) {
		return model.Order{}, false
	}
	return res.Items[idx], true
}

func (m Model) orderByID(id string) (model.Order, bool) {
	res, _ := m.list.Result()
	i := slices.IndexFunc(res.Items, func(o model.Order) bool { return o.ID == id })
	if i < 0 {
		return model.Order{}, false
	}
	return res.Items[i], true
}

func (m Model) totalPages() int {
	res, ok := m.list.Result()
	if !ok {
		return 0
	}
	return res.TotalPages()
}

func (m Model) statsEnabled() bool {
	return m.showStats && m.deps.Analytics != nil
}

// canMutate reports whether a new mutation may start, flashing the reason
// when it may not.
func (m *Model) canMutate() bool {
	switch {
	case m.deps.Mutations == nil:
		m.flash = "Changes are not available"
		return false
	case m.mutating || m.deps.Mutations.Phase() == mutation.PhasePending:
		m.flash = "Wait for the current change to finish"
		return false
	}
	return true
}

func nextPageSize(current int) int {
	i := slices.Index(filter.PageSizes, current)
	return filter.PageSizes[(i+1)%len(filter.PageSizes)]
}

func nextStatus(current model.Status) model.Status {
	i := slices.Index(model.Statuses, current)
	if i == len(model.Statuses)-1 {
		return ""
	}
	return model.Statuses[i+1]
}

func parseStatus(s string) (model.Status, bool) {
	for _, status := range model.Statuses {
		if strings.EqualFold(s, string(status)) {
			return status, true
		}
	}
	return "", false
}

// parseRange reads "from..to" where either side may be empty.
// A value without ".." is a single day.
func parseRange(s string) (model.Date, model.Date, error) {
	if s == "" {
		return model.Date{}, model.Date{}, nil
	}
	fromText, toText, found := strings.Cut(s, "..")
	if !found {
		toText = fromText
	}

	var from, to model.Date
	var err error
	if fromText = strings.TrimSpace(fromText); fromText != "" {
		if from, err = model.ParseDate(fromText); err != nil {
			return model.Date{}, model.Date{}, err
		}
	}
	if toText = strings.TrimSpace(toText); toText != "" {
		if to, err = model.ParseDate(toText); err != nil {
			return model.Date{}, model.Date{}, err
		}
	}
	return from, to, nil
}

func formatRange(from, to model.Date) string {
	if from.IsZero() && to.IsZero() {
		return ""
	}
	return from.String() + ".." + to.String()
}

func (m *Model) fetchList(refetch bool) tea.Cmd {
	exec := m.deps.Orders
	s := m.list.State()
	ticket := m.list.Ticket()
	timeout := m.config.FetchTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var res model.QueryResult
		var err error
		if refetch {
			res, err = exec.Refetch(ctx, s)
		} else {
			res, err = exec.Fetch(ctx, s)
		}
		return listLoadedMsg{ticket: ticket, result: res, err: err}
	}
}

func (m *Model) fetchAnalytics(refetch bool) tea.Cmd {
	exec := m.deps.Analytics
	s := m.summary.State()
	ticket := m.summary.Ticket()
	timeout := m.config.FetchTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var a model.Analytics
		var err error
		if refetch {
			a, err = exec.Refetch(ctx, s)
		} else {
			a, err = exec.Fetch(ctx, s)
		}
		return analyticsLoadedMsg{ticket: ticket, analytics: a, err: err}
	}
}

func (m *Model) rememberView(s filter.State) tea.Cmd {
	views := m.deps.Views
	if views == nil {
		return nil
	}
	resource := m.config.Resource
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := views.SetLastView(ctx, resource, s); err != nil {
			slog.Warn("Failed to remember view", "error", err)
		}
		return nil
	}
}

func (m *Model) saveView(name string, s filter.State) tea.Cmd {
	views := m.deps.Views
	resource := m.config.Resource
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := views.SaveView(ctx, resource, name, s)
		return viewSavedMsg{name: v.Name, err: err}
	}
}

// mutate runs fn as the single in-flight mutation.
func (m *Model) mutate(op string, fn func(ctx context.Context) (*model.BulkResult, error)) tea.Cmd {
	m.mutating = true
	m.pendingOp = op
	m.flash = ""
	m.flashErr = nil
	timeout := m.config.FetchTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		bulk, err := fn(ctx)
		return mutationDoneMsg{op: op, bulk: bulk, err: err}
	}
}

func (m *Model) setStatus(status model.Status) tea.Cmd {
	coord := m.deps.Mutations
	u := model.OrderUpdate{Status: &status}

	if ids := m.SelectedIDs(); len(ids) > 0 {
		return m.mutate("set status", func(ctx context.Context) (*model.BulkResult, error) {
			res, err := coord.BulkUpdate(ctx, ids, u)
			if err != nil {
				return nil, err
			}
			return &res, nil
		})
	}

	o, ok := m.currentOrder()
	if !ok {
		return nil
	}
	return m.mutate("set status", func(ctx context.Context) (*model.BulkResult, error) {
		_, err := coord.Update(ctx, o, u)
		return nil, err
	})
}

func (m *Model) markPaid() tea.Cmd {
	o, ok := m.currentOrder()
	if !ok || !m.canMutate() {
		return nil
	}
	total := o.ComputedTotalCost()
	if o.AmountPaid.Equal(total) {
		m.flash = o.ProductName + " is already paid"
		return nil
	}

	coord := m.deps.Mutations
	u := model.OrderUpdate{AmountPaid: &total}
	return m.mutate("mark paid", func(ctx context.Context) (*model.BulkResult, error) {
		_, err := coord.Update(ctx, o, u)
		return nil, err
	})
}

func (m *Model) deleteOrders(ids []string) tea.Cmd {
	if len(ids) == 0 || !m.canMutate() {
		return nil
	}
	coord := m.deps.Mutations

	if len(ids) == 1 && len(m.SelectedIDs()) == 0 {
		id := ids[0]
		return m.mutate("delete", func(ctx context.Context) (*model.BulkResult, error) {
			return nil, coord.Delete(ctx, id)
		})
	}
	return m.mutate("delete", func(ctx context.Context) (*model.BulkResult, error) {
		res, err := coord.BulkDelete(ctx, ids)
		if err != nil {
			return nil, err
		}
		return &res, nil
	})
}
