package tui

import (
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/query"
)

// listLoadedMsg carries the outcome of the page fetch issued under ticket.
type listLoadedMsg struct {
	err    error
	ticket query.Ticket
	result model.QueryResult
}

// analyticsLoadedMsg carries the outcome of the summary fetch issued under
// ticket.
type analyticsLoadedMsg struct {
	err       error
	ticket    query.Ticket
	analytics model.Analytics
}

// mutationDoneMsg reports a finished mutation.
type mutationDoneMsg struct {
	err  error
	bulk *model.BulkResult
	op   string
}

type viewSavedMsg struct {
	err  error
	name string
}

// maintenanceRetryMsg asks for another attempt while the service is down.
type maintenanceRetryMsg struct{}

// promptKind is the input the footer prompt is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptStore
	promptOrderDates
	promptReleaseDates
	promptBulkStatus
	promptSaveView
	promptConfirmDelete
)
