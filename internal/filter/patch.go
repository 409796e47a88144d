package filter

import (
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/model"
)

// Patch is a partial change to a State. Nil fields are left as they are.
// Setting a constraint to its zero value removes it.
type Patch struct {
	Search          *string
	Status          *model.Status
	Store           *string
	OrderDateFrom   *model.Date
	OrderDateTo     *model.Date
	ReleaseDateFrom *model.Date
	ReleaseDateTo   *model.Date
	AmountOwingOnly *bool
	SortBy          *string
	SortOrder       *SortOrder
	Page            *int
	PageSize        *int
}

// touchesConstraints reports whether the patch sets any filter field.
func (p Patch) touchesConstraints() bool {
	return p.Search != nil || p.Status != nil || p.Store != nil ||
		p.OrderDateFrom != nil || p.OrderDateTo != nil ||
		p.ReleaseDateFrom != nil || p.ReleaseDateTo != nil ||
		p.AmountOwingOnly != nil
}

// Apply returns the state produced by applying p to s.
//
// Any constraint change moves back to page 1. Sorting by the active column
// flips the direction; sorting by another column starts descending on page 1.
// A page size change also moves back to page 1.
func (s State) Apply(p Patch) State {
	next := s

	if p.Page != nil && *p.Page >= 1 {
		next.Page = *p.Page
	}

	if p.Search != nil {
		next.Search = strings.TrimSpace(*p.Search)
	}
	if p.Status != nil {
		if p.Status.Valid() {
			next.Status = *p.Status
		} else {
			next.Status = ""
		}
	}
	if p.Store != nil {
		next.Store = strings.TrimSpace(*p.Store)
	}
	if p.OrderDateFrom != nil {
		next.OrderDateFrom = *p.OrderDateFrom
	}
	if p.OrderDateTo != nil {
		next.OrderDateTo = *p.OrderDateTo
	}
	if p.ReleaseDateFrom != nil {
		next.ReleaseDateFrom = *p.ReleaseDateFrom
	}
	if p.ReleaseDateTo != nil {
		next.ReleaseDateTo = *p.ReleaseDateTo
	}
	if p.AmountOwingOnly != nil {
		next.AmountOwingOnly = *p.AmountOwingOnly
	}
	if p.touchesConstraints() {
		next.Page = DefaultPage
	}

	if p.SortBy != nil && *p.SortBy != "" {
		if *p.SortBy == s.SortBy {
			next.SortOrder = s.SortOrder.Flip()
		} else {
			next.SortBy = *p.SortBy
			next.SortOrder = Desc
			next.Page = DefaultPage
		}
	}
	if p.SortOrder != nil && p.SortOrder.Valid() {
		next.SortOrder = *p.SortOrder
	}

	if p.PageSize != nil && ValidPageSize(*p.PageSize) && *p.PageSize != s.PageSize {
		next.PageSize = *p.PageSize
		next.Page = DefaultPage
	}

	return next
}

// ToggleSort is the result of clicking the header of column.
func (s State) ToggleSort(column string) State {
	return s.Apply(Patch{SortBy: &column})
}

// GoTo moves to page n, leaving everything else alone.
func (s State) GoTo(n int) State {
	return s.Apply(Patch{Page: &n})
}

// WithPageSize switches page size and returns to the first page.
func (s State) WithPageSize(n int) State {
	return s.Apply(Patch{PageSize: &n})
}

// WithSearch replaces the free-text search.
func (s State) WithSearch(q string) State {
	return s.Apply(Patch{Search: &q})
}

// Clear drops every constraint and returns to page 1, keeping page size and
// sort.
func (s State) Clear() State {
	return State{
		Page:      DefaultPage,
		PageSize:  s.PageSize,
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
	}
}
