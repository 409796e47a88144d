package tui

import "strconv"

// maxVisiblePages caps the number of page buttons before ellipses are used.
const maxVisiblePages = 7

// Ellipsis marks a gap in a page window.
const Ellipsis = 0

// PageWindow returns the page numbers to show for current of total pages.
// Gaps are Ellipsis. The first and last pages are always present.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= maxVisiblePages {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := []int{1}
	if current > 3 {
		pages = append(pages, Ellipsis)
	}
	for p := max(2, current-1); p <= min(total-1, current+1); p++ {
		pages = append(pages, p)
	}
	if current < total-2 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}

// ShowingText is the "Showing a to b of n" line under the table.
func ShowingText(start, end, total int) string {
	return "Showing " + strconv.Itoa(start) + " to " + strconv.Itoa(end) +
		" of " + strconv.Itoa(total) + " orders"
}
