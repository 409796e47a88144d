package model

import (
	"github.com/Veraticus/tcg-ledger/internal/common"
)

// QueryResult is one page of a filtered, sorted record set.
// Total counts the full filtered set on the server, not len(Items).
type QueryResult struct {
	Items    []Order `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// TotalPages is the number of pages Total spans at PageSize.
func (r QueryResult) TotalPages() int {
	if r.PageSize <= 0 || r.Total <= 0 {
		return 0
	}
	return (r.Total + r.PageSize - 1) / r.PageSize
}

// Range returns the 1-based positions of the first and last item on this page
// within the full set, or (0, 0) when the set is empty.
func (r QueryResult) Range() (int, int) {
	if r.Total == 0 || r.PageSize <= 0 {
		return 0, 0
	}
	start := (r.Page-1)*r.PageSize + 1
	end := min(r.Page*r.PageSize, r.Total)
	return start, end
}

// IDs returns the IDs of the items on this page in display order.
func (r QueryResult) IDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// BulkOp names a bulk operation.
type BulkOp string

// Bulk operations.
const (
	BulkUpdateOp BulkOp = "bulk update"
	BulkDeleteOp BulkOp = "bulk delete"
)

// BulkResult is the per-item outcome of a bulk update or delete.
type BulkResult struct {
	Op        BulkOp   `json:"-"`
	Message   string   `json:"message"`
	FailedIDs []string `json:"failed_ids"`
	Count     int      `json:"count"`
}

// Partial reports whether some, but not all, requested items failed.
func (r BulkResult) Partial() bool {
	return len(r.FailedIDs) > 0 && r.Count > 0
}

// Err returns a PartialFailure describing any failed items, or nil.
// A non-nil result is informational; the operation itself still succeeded.
func (r BulkResult) Err() error {
	if len(r.FailedIDs) == 0 {
		return nil
	}
	return &common.PartialFailure{
		Op:        string(r.Op),
		Message:   r.Message,
		FailedIDs: r.FailedIDs,
		Succeeded: r.Count,
	}
}

// ImportResult is the outcome of a CSV import.
type ImportResult struct {
	Errors        []string `json:"errors"`
	ImportedCount int      `json:"imported_count"`
	SkippedCount  int      `json:"skipped_count"`
	FailedCount   int      `json:"failed_count"`
}
