package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/model"
)

// Query parameter names.
const (
	ParamPage            = "page"
	ParamPageSize        = "page_size"
	ParamSortBy          = "sort_by"
	ParamSortOrder       = "sort_order"
	ParamSearch          = "search"
	ParamStatus          = "status"
	ParamStore           = "store"
	ParamOrderDateFrom   = "order_date_from"
	ParamOrderDateTo     = "order_date_to"
	ParamReleaseDateFrom = "release_date_from"
	ParamReleaseDateTo   = "release_date_to"
	ParamAmountOwingOnly = "amount_owing_only"
)

// Encode serializes s as a query string with keys in sorted order.
func Encode(s State) string {
	return Values(s).Encode()
}

// Values returns the query parameters for s. Paging and sort are always
// present; constraints only when set.
func Values(s State) url.Values {
	v := ConstraintValues(s)
	v.Set(ParamPage, strconv.Itoa(s.Page))
	v.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	v.Set(ParamSortBy, s.SortBy)
	v.Set(ParamSortOrder, string(s.SortOrder))
	return v
}

// ConstraintValues returns only the filter parameters that are set.
func ConstraintValues(s State) url.Values {
	v := url.Values{}
	setString := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setString(ParamSearch, s.Search)
	setString(ParamStatus, string(s.Status))
	setString(ParamStore, s.Store)
	setString(ParamOrderDateFrom, s.OrderDateFrom.String())
	setString(ParamOrderDateTo, s.OrderDateTo.String())
	setString(ParamReleaseDateFrom, s.ReleaseDateFrom.String())
	setString(ParamReleaseDateTo, s.ReleaseDateTo.String())
	if s.AmountOwingOnly {
		v.Set(ParamAmountOwingOnly, "true")
	}
	return v
}

// Decode parses a query string into a State. It never fails: missing or
// malformed fields take their defaults and unknown parameters are ignored.
// A leading "?" is allowed.
func Decode(raw string) State {
	// ParseQuery keeps every pair it could parse even when it reports an error.
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return DecodeValues(v)
}

// DecodeValues builds a State from already parsed parameters.
func DecodeValues(v url.Values) State {
	s := Default()

	if n, err := strconv.Atoi(v.Get(ParamPage)); err == nil && n >= 1 {
		s.Page = n
	}
	if n, err := strconv.Atoi(v.Get(ParamPageSize)); err == nil && ValidPageSize(n) {
		s.PageSize = n
	}
	if field := v.Get(ParamSortBy); ValidSortField(field) {
		s.SortBy = field
	}
	if order := SortOrder(strings.ToLower(v.Get(ParamSortOrder))); order.Valid() {
		s.SortOrder = order
	}

	s.Search = v.Get(ParamSearch)
	s.Store = v.Get(ParamStore)
	if status := model.Status(v.Get(ParamStatus)); status.Valid() {
		s.Status = status
	}

	s.OrderDateFrom = decodeDate(v.Get(ParamOrderDateFrom))
	s.OrderDateTo = decodeDate(v.Get(ParamOrderDateTo))
	s.ReleaseDateFrom = decodeDate(v.Get(ParamReleaseDateFrom))
	s.ReleaseDateTo = decodeDate(v.Get(ParamReleaseDateTo))

	if b, err := strconv.ParseBool(v.Get(ParamAmountOwingOnly)); err == nil {
		s.AmountOwingOnly = b
	}
	return s
}

func decodeDate(raw string) model.Date {
	if raw == "" {
		return model.Date{}
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}
	}
	return d
}
