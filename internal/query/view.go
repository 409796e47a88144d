package query

import (
	"github.com/Veraticus/tcg-ledger/internal/filter"
)

// View is the display state of one list: the state being shown, the last
// result received for it, and whether a newer fetch is outstanding.
//
// Changing state keeps the previous result visible until the new one
// arrives. Every fetch carries the Ticket current when it started, and only
// the latest ticket resolves, so a slow response for a superseded state, or
// one that started before a refresh, never replaces newer data.
//
// View is not safe for concurrent use; it belongs to the UI event loop.
type View[T any] struct {
	result    T
	err       error
	state     filter.State
	key       string
	version   uint64
	seq       uint64
	hasResult bool
	current   bool
	loading   bool
}

// Ticket identifies one fetch issued for a view.
type Ticket struct {
	Key string
	seq uint64
}

// NewView returns a view positioned at s with nothing loaded yet.
func NewView[T any](s filter.State) View[T] {
	return View[T]{state: s, key: s.Key(), loading: true}
}

// State returns the state the view is showing or loading.
func (v *View[T]) State() filter.State {
	return v.state
}

// SetState moves the view to s and reports whether a fetch is needed.
// The displayed result is kept.
func (v *View[T]) SetState(s filter.State) bool {
	key := s.Key()
	v.state = s
	if key == v.key && (v.current || v.loading) {
		return false
	}
	v.key = key
	v.current = false
	v.loading = true
	v.err = nil
	v.seq++
	return true
}

// Refresh marks the current state as loading again, for example after the
// cache was invalidated. Fetches started before the call can no longer
// resolve; the returned ticket is the one to resolve with.
func (v *View[T]) Refresh() Ticket {
	v.loading = true
	v.err = nil
	v.seq++
	return v.Ticket()
}

// Ticket is the ticket a fetch started now must resolve with.
func (v *View[T]) Ticket() Ticket {
	return Ticket{Key: v.key, seq: v.seq}
}

// Resolve records the outcome of the fetch issued under t. It reports false
// and changes nothing when t is no longer the latest ticket. An error
// leaves the previous result on screen.
func (v *View[T]) Resolve(t Ticket, result T, err error) bool {
	if t.Key != v.key || t.seq != v.seq {
		return false
	}
	v.loading = false
	if err != nil {
		v.err = err
		return true
	}
	v.err = nil
	v.result = result
	v.hasResult = true
	v.current = true
	v.version++
	return true
}

// Result returns the displayed result and whether there is one.
func (v *View[T]) Result() (T, bool) {
	return v.result, v.hasResult
}

// Loading reports whether a fetch for the current state is outstanding.
func (v *View[T]) Loading() bool {
	return v.loading
}

// Stale reports whether the displayed result belongs to an older state or
// is being refreshed.
func (v *View[T]) Stale() bool {
	return v.loading && v.hasResult
}

// Err is the error of the last fetch for the current state, if any.
func (v *View[T]) Err() error {
	return v.err
}

// ClearErr dismisses the current error.
func (v *View[T]) ClearErr() {
	v.err = nil
}

// Version increments every time the displayed result is replaced.
func (v *View[T]) Version() uint64 {
	return v.version
}
