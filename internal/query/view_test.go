package query

import (
	"errors"
	"testing"

	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_KeepsStaleResultWhileLoading(t *testing.T) {
	first := filter.Default()
	v := NewView[model.QueryResult](first)
	require.True(t, v.Loading())

	page1 := model.QueryResult{Items: []model.Order{{ID: "a"}}, Total: 60, Page: 1, PageSize: 50}
	require.True(t, v.Resolve(v.Ticket(), page1, nil))
	assert.False(t, v.Loading())

	second := first.GoTo(2)
	require.True(t, v.SetState(second))

	shown, ok := v.Result()
	require.True(t, ok)
	assert.Equal(t, page1, shown)
	assert.True(t, v.Loading())
	assert.True(t, v.Stale())
	assert.Equal(t, second, v.State())
}

func TestView_IgnoresSupersededResponses(t *testing.T) {
	first := filter.Default()
	v := NewView[model.QueryResult](first)

	firstTicket := v.Ticket()

	second := first.WithSearch("booster")
	v.SetState(second)
	secondTicket := v.Ticket()
	assert.Equal(t, second.Key(), secondTicket.Key)

	old := model.QueryResult{Items: []model.Order{{ID: "old"}}, Total: 1, Page: 1, PageSize: 50}
	assert.False(t, v.Resolve(firstTicket, old, nil))
	_, ok := v.Result()
	assert.False(t, ok)
	assert.True(t, v.Loading())

	fresh := model.QueryResult{Items: []model.Order{{ID: "new"}}, Total: 1, Page: 1, PageSize: 50}
	assert.True(t, v.Resolve(secondTicket, fresh, nil))
	shown, _ := v.Result()
	assert.Equal(t, "new", shown.Items[0].ID)
	assert.Equal(t, uint64(1), v.Version())
}

func TestView_ErrorKeepsPreviousResult(t *testing.T) {
	s := filter.Default()
	v := NewView[int](s)
	v.Resolve(v.Ticket(), 7, nil)

	ticket := v.Refresh()
	assert.True(t, v.Stale())

	boom := errors.New("boom")
	v.Resolve(ticket, 0, boom)

	shown, ok := v.Result()
	assert.True(t, ok)
	assert.Equal(t, 7, shown)
	assert.ErrorIs(t, v.Err(), boom)
	assert.Equal(t, uint64(1), v.Version())

	v.ClearErr()
	assert.NoError(t, v.Err())
}

func TestView_SetSameStateDoesNotRefetch(t *testing.T) {
	s := filter.Default()
	v := NewView[int](s)
	assert.False(t, v.SetState(s))

	v.Resolve(v.Ticket(), 1, nil)
	assert.False(t, v.SetState(s))

	v.SetState(s.GoTo(2))
	v.Resolve(v.Ticket(), 0, errors.New("offline"))
	assert.True(t, v.SetState(s.GoTo(2)), "an errored state is fetched again")
}

func TestView_RefreshDropsEarlierFetchForSameKey(t *testing.T) {
	s := filter.Default()
	v := NewView[int](s)
	before := v.Ticket()

	after := v.Refresh()
	assert.Equal(t, before.Key, after.Key)

	assert.False(t, v.Resolve(before, 3, nil), "fetch started before the refresh")
	_, ok := v.Result()
	assert.False(t, ok)
	assert.True(t, v.Loading())

	assert.True(t, v.Resolve(after, 2, nil))
	assert.False(t, v.Resolve(before, 3, nil), "late arrival after the fresh result")
	shown, _ := v.Result()
	assert.Equal(t, 2, shown)
	assert.Equal(t, uint64(1), v.Version())
}

func TestView_ReturningToStateNeedsNewTicket(t *testing.T) {
	first := filter.Default()
	v := NewView[int](first)
	stale := v.Ticket()

	v.SetState(first.GoTo(2))
	require.True(t, v.SetState(first))

	assert.False(t, v.Resolve(stale, 1, nil))
	assert.True(t, v.Resolve(v.Ticket(), 2, nil))
}
