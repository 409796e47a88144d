package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up        key.Binding
	Down      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	PageSize  key.Binding

	// Filtering
	Search       key.Binding
	Store        key.Binding
	Status       key.Binding
	OrderDates   key.Binding
	ReleaseDates key.Binding
	OwingOnly    key.Binding
	ClearFilters key.Binding
	SortColumn   key.Binding
	SaveView     key.Binding

	// Selection
	ToggleSelect key.Binding
	SelectAll    key.Binding
	DeselectAll  key.Binding

	// Mutations
	BulkStatus key.Binding
	MarkPaid   key.Binding
	Delete     key.Binding
	Confirm    key.Binding
	Cancel     key.Binding

	// Application
	ToggleStats key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "pgdown"),
			key.WithHelp("→/l", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "pgup"),
			key.WithHelp("←/h", "previous page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last page"),
		),
		PageSize: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "page size"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Store: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "store"),
		),
		Status: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle status"),
		),
		OrderDates: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "order dates"),
		),
		ReleaseDates: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "release dates"),
		),
		OwingOnly: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "owing only"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		SortColumn: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort by column"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save view"),
		),

		ToggleSelect: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select page"),
		),
		DeselectAll: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "deselect"),
		),

		BulkStatus: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "set status"),
		),
		MarkPaid: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "mark paid"),
		),
		Delete: key.NewBinding(
			key.WithKeys("X", "delete"),
			key.WithHelp("X", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/dismiss"),
		),

		ToggleStats: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analytics"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Status, k.ClearFilters, k.SortColumn, k.ToggleSelect, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.PageSize},
		{k.Search, k.Store, k.Status, k.OrderDates, k.ReleaseDates, k.OwingOnly, k.ClearFilters},
		{k.SortColumn, k.SaveView, k.ToggleSelect, k.SelectAll, k.DeselectAll},
		{k.BulkStatus, k.MarkPaid, k.Delete, k.Cancel},
		{k.ToggleStats, k.Refresh, k.Help, k.Quit},
	}
}
