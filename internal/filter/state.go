// Package filter holds the query state of a list view: which records to fetch,
// how they are sorted, and which page is shown. States are plain values; every
// interaction produces a new State through Apply.
package filter

import (
	"slices"

	"github.com/Veraticus/tcg-ledger/internal/model"
)

// SortOrder is the direction of the active sort.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// Defaults applied when a field is missing or malformed.
const (
	DefaultPage      = 1
	DefaultPageSize  = 50
	DefaultSortBy    = "created_at"
	DefaultSortOrder = Desc
)

// PageSizes lists the allowed page sizes.
var PageSizes = []int{10, 25, 50, 100}

// SortFields lists the columns the server can sort by.
var SortFields = []string{
	"created_at",
	"order_date",
	"release_date",
	"product_name",
	"store_name",
	"quantity",
	"cost_per_item",
	"total_cost",
	"amount_paid",
	"amount_owing",
	"status",
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// ValidSortField reports whether field is one of SortFields.
func ValidSortField(field string) bool {
	return slices.Contains(SortFields, field)
}

// State describes the current list query. Zero values of the optional
// constraint fields mean "unconstrained" and are never serialized.
type State struct {
	OrderDateFrom   model.Date
	OrderDateTo     model.Date
	ReleaseDateFrom model.Date
	ReleaseDateTo   model.Date
	Search          string
	Store           string
	SortBy          string
	SortOrder       SortOrder
	Status          model.Status
	Page            int
	PageSize        int
	AmountOwingOnly bool
}

// Default returns the state of a freshly opened view.
func Default() State {
	return State{
		Page:      DefaultPage,
		PageSize:  DefaultPageSize,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
	}
}

// Key is the cache key for s: its canonical encoded form.
func (s State) Key() string {
	return Encode(s)
}

// String returns the encoded query string.
func (s State) String() string {
	return Encode(s)
}

// Equal compares two states by their serialized form.
func (s State) Equal(other State) bool {
	return s.Key() == other.Key()
}

// FilterOnly returns s with paging and sorting reset to defaults, leaving only
// the constraints. Aggregates over the filtered set key on this.
func (s State) FilterOnly() State {
	f := s
	f.Page = DefaultPage
	f.PageSize = DefaultPageSize
	f.SortBy = DefaultSortBy
	f.SortOrder = DefaultSortOrder
	return f
}

// ActiveCount is the number of constraints currently applied.
func (s State) ActiveCount() int {
	n := 0
	for _, set := range []bool{
		s.Search != "",
		s.Status != "",
		s.Store != "",
		!s.OrderDateFrom.IsZero(),
		!s.OrderDateTo.IsZero(),
		!s.ReleaseDateFrom.IsZero(),
		!s.ReleaseDateTo.IsZero(),
		s.AmountOwingOnly,
	} {
		if set {
			n++
		}
	}
	return n
}

// HasConstraints reports whether any constraint is applied.
func (s State) HasConstraints() bool {
	return s.ActiveCount() > 0
}

// Offset is the zero-based index of the first record on the current page.
func (s State) Offset() int {
	return (s.Page - 1) * s.PageSize
}
