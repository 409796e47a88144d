package main

import (
	"errors"
	"testing"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterCmd(t *testing.T, paged bool, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addFilterFlags(cmd, paged)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestStateFromFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, s filter.State)
	}{
		{
			name: "no flags gives the default filter",
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.True(t, s.Equal(filter.Default()), s.String())
			},
		},
		{
			name: "constraints are trimmed and status is case-insensitive",
			args: []string{"--status", "pending", "--store", " EB Games ", "--owing"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, model.StatusPending, s.Status)
				assert.Equal(t, "EB Games", s.Store)
				assert.True(t, s.AmountOwingOnly)
			},
		},
		{
			name: "explicit page wins over the decoded query",
			args: []string{"--query", "status=Sold&page=3", "--page", "2"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, model.StatusSold, s.Status)
				assert.Equal(t, 2, s.Page)
			},
		},
		{
			name: "a new constraint returns to the first page",
			args: []string{"--query", "status=Sold&page=3", "--search", "etb"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, "etb", s.Search)
				assert.Equal(t, model.StatusSold, s.Status)
				assert.Equal(t, 1, s.Page)
			},
		},
		{
			name: "naming the current sort column keeps its direction",
			args: []string{"--sort-by", "created_at"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, "created_at", s.SortBy)
				assert.Equal(t, filter.Desc, s.SortOrder)
			},
		},
		{
			name: "sort column and order",
			args: []string{"--sort-by", "release_date", "--sort-order", "ASC"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, "release_date", s.SortBy)
				assert.Equal(t, filter.Asc, s.SortOrder)
			},
		},
		{
			name: "page size then page",
			args: []string{"--page-size", "25", "--page", "3"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, 25, s.PageSize)
				assert.Equal(t, 3, s.Page)
			},
		},
		{
			name: "empty date clears the decoded one",
			args: []string{"--query", "order_date_from=2025-01-01", "--order-date-from", ""},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.True(t, s.OrderDateFrom.IsZero())
			},
		},
		{
			name: "date range",
			args: []string{"--release-date-from", "2025-01-01", "--release-date-to", "2025-03-31"},
			check: func(t *testing.T, s filter.State) {
				t.Helper()
				assert.Equal(t, model.NewDate(2025, 1, 1), s.ReleaseDateFrom)
				assert.Equal(t, model.NewDate(2025, 3, 31), s.ReleaseDateTo)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := stateFromFlags(filterCmd(t, true, tt.args...))
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestStateFromFlags_RejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"status", []string{"--status", "Lost"}},
		{"date", []string{"--order-date-from", "31/01/2025"}},
		{"sort column", []string{"--sort-by", "colour"}},
		{"sort order", []string{"--sort-order", "up"}},
		{"page size", []string{"--page-size", "7"}},
		{"page", []string{"--page", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stateFromFlags(filterCmd(t, true, tt.args...))
			require.Error(t, err)
			var uerr *common.UserError
			assert.True(t, errors.As(err, &uerr), "want a user error, got %v", err)
		})
	}
}

func TestStateFromFlags_MalformedQueryFallsBack(t *testing.T) {
	s, err := stateFromFlags(filterCmd(t, false, "--query", "page=abc&sort_by=nope&status=Lost&store=EB"))
	require.NoError(t, err)

	assert.Equal(t, filter.DefaultPage, s.Page)
	assert.Equal(t, filter.DefaultSortBy, s.SortBy)
	assert.Empty(t, s.Status)
	assert.Equal(t, "EB", s.Store)
}

func TestAddFilterFlags_Unpaged(t *testing.T) {
	cmd := filterCmd(t, false)
	assert.Nil(t, cmd.Flags().Lookup(flagPage))
	assert.Nil(t, cmd.Flags().Lookup(flagSortBy))
	assert.NotNil(t, cmd.Flags().Lookup(flagStatus))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Status
		wantErr bool
	}{
		{"", "", false},
		{"Pending", model.StatusPending, false},
		{"delivered", model.StatusDelivered, false},
		{"SOLD", model.StatusSold, false},
		{"shipped", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitIDs(" a, b,,c ,"))
	assert.Nil(t, splitIDs(""))
}

func TestOrderFlags(t *testing.T) {
	t.Run("update only carries set flags", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		addOrderFlags(cmd.Flags())
		require.NoError(t, cmd.ParseFlags([]string{"--paid", "$20.50", "--status", "delivered"}))

		u, err := orderFlags{cmd.Flags()}.update()
		require.NoError(t, err)
		require.NotNil(t, u.AmountPaid)
		assert.True(t, decimal.RequireFromString("20.50").Equal(*u.AmountPaid))
		require.NotNil(t, u.Status)
		assert.Equal(t, model.StatusDelivered, *u.Status)
		assert.Nil(t, u.ProductName)
		assert.Nil(t, u.Quantity)
		assert.Nil(t, u.CostPerItem)
	})

	t.Run("create defaults quantity", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		addOrderFlags(cmd.Flags())
		require.NoError(t, cmd.ParseFlags([]string{
			"--product", "Prismatic Evolutions ETB", "--store", "EB Games", "--cost", "89.95",
			"--release-date", "2025-01-17",
		}))

		c, err := orderFlags{cmd.Flags()}.create()
		require.NoError(t, err)
		assert.Equal(t, "Prismatic Evolutions ETB", c.ProductName)
		assert.Equal(t, "EB Games", c.StoreName)
		assert.Equal(t, 1, c.Quantity)
		assert.True(t, decimal.RequireFromString("89.95").Equal(c.CostPerItem))
		require.NotNil(t, c.ReleaseDate)
		assert.Equal(t, model.NewDate(2025, 1, 17), *c.ReleaseDate)
	})

	t.Run("bad amount", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		addOrderFlags(cmd.Flags())
		require.NoError(t, cmd.ParseFlags([]string{"--cost", "twelve"}))

		_, err := orderFlags{cmd.Flags()}.update()
		var uerr *common.UserError
		require.True(t, errors.As(err, &uerr))
		assert.Contains(t, uerr.UserMessage, "--cost")
	})

	t.Run("empty status is rejected", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		addOrderFlags(cmd.Flags())
		require.NoError(t, cmd.ParseFlags([]string{"--status", ""}))

		_, err := orderFlags{cmd.Flags()}.update()
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}
