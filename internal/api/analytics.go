package api

import (
	"context"
	"net/http"

	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"golang.org/x/sync/errgroup"
)

const analyticsPath = "/api/v1/analytics"

func (c *Client) analytics(ctx context.Context, endpoint string, s filter.State, out any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   analyticsPath + "/" + endpoint,
		query:  filter.ConstraintValues(s),
		op:     "load " + endpoint,
	}, out)
}

// Statistics fetches the summary of every order matching s.
// Paging and sort in s are ignored.
func (c *Client) Statistics(ctx context.Context, s filter.State) (model.Statistics, error) {
	var out model.Statistics
	err := c.analytics(ctx, "statistics", s, &out)
	return out, err
}

// SpendingByStore fetches spend per store.
func (c *Client) SpendingByStore(ctx context.Context, s filter.State) ([]model.SpendingByStore, error) {
	var out []model.SpendingByStore
	err := c.analytics(ctx, "spending-by-store", s, &out)
	return out, err
}

// StatusOverview fetches the count and value per status.
func (c *Client) StatusOverview(ctx context.Context, s filter.State) ([]model.StatusOverview, error) {
	var out []model.StatusOverview
	err := c.analytics(ctx, "status-overview", s, &out)
	return out, err
}

// ProfitByStore fetches realised profit per store.
func (c *Client) ProfitByStore(ctx context.Context, s filter.State) ([]model.ProfitByStore, error) {
	var out []model.ProfitByStore
	err := c.analytics(ctx, "profit-by-store", s, &out)
	return out, err
}

// MonthlySpending fetches spend per month.
func (c *Client) MonthlySpending(ctx context.Context, s filter.State) ([]model.MonthlySpending, error) {
	var out []model.MonthlySpending
	err := c.analytics(ctx, "monthly-spending", s, &out)
	return out, err
}

// Analytics fetches every aggregate for s concurrently. The first failure
// cancels the rest.
func (c *Client) Analytics(ctx context.Context, s filter.State) (model.Analytics, error) {
	var out model.Analytics
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		out.Statistics, err = c.Statistics(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		out.SpendingByStore, err = c.SpendingByStore(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		out.StatusOverview, err = c.StatusOverview(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		out.ProfitByStore, err = c.ProfitByStore(ctx, s)
		return err
	})
	g.Go(func() error {
		var err error
		out.MonthlySpending, err = c.MonthlySpending(ctx, s)
		return err
	})

	if err := g.Wait(); err != nil {
		return model.Analytics{}, err
	}
	return out, nil
}
