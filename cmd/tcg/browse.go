package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/config"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/query"
	"github.com/Veraticus/tcg-ledger/internal/storage"
	"github.com/Veraticus/tcg-ledger/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"ui", "dashboard"},
		Short:   "Open the interactive order dashboard",
		Long: `Open the order dashboard. It starts from --query, a saved --view, or
the filter you were last looking at, in that order.

Logs are written to a file while the dashboard runs (log.file, default
browse.log in the config directory).`,
		Example: `  tcg browse
  tcg browse --view "Owing at EB"
  tcg browse --query 'status=Pending&sort_by=release_date&sort_order=asc'`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
	cmd.Flags().String("view", "", "open a saved view")
	cmd.Flags().String(flagQuery, "", "open an encoded filter")
	cmd.MarkFlagsMutuallyExclusive("view", flagQuery)
	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	view, _ := cmd.Flags().GetString("view")
	raw, _ := cmd.Flags().GetString(flagQuery)
	initial, err := initialState(ctx, store, view, raw, config.PageSize(viper.GetViper()))
	if err != nil {
		return err
	}
	slog.Info("Opening dashboard", "filter", initial.String())

	records := client.Records(api.Orders)
	orders := query.NewExecutor[model.QueryResult](api.Orders.Name, records.List)
	mutations := mutation.New(records, orders)

	// Summary figures are computed from the same rows, so every order
	// change makes them stale too.
	analytics := query.NewExecutor[model.Analytics]("analytics", client.Analytics, query.WithKey(query.FilterKey))
	mutations.Register(analytics)

	return tui.Run(ctx, tui.Deps{
		Orders:    orders,
		Analytics: analytics,
		Mutations: mutations,
		Views:     store,
	},
		tui.WithInitialState(initial),
		tui.WithPollInterval(cfg.PollInterval),
	)
}

// viewReader is the part of the view store the starting filter comes from.
type viewReader interface {
	GetView(ctx context.Context, resource, name string) (storage.SavedView, error)
	LastView(ctx context.Context, resource string) (filter.State, error)
}

// initialState picks the dashboard's starting filter. A query wins over a
// named view, which wins over the last filter used. The configured page
// size only applies when nothing was remembered.
func initialState(ctx context.Context, views viewReader, view, raw string, pageSize int) (filter.State, error) {
	if raw != "" {
		return filter.Decode(raw), nil
	}

	if view != "" {
		v, err := views.GetView(ctx, api.Orders.Name, view)
		if errors.Is(err, common.ErrNotFound) {
			return filter.State{}, common.NewUserError(fmt.Sprintf("No saved view named %q", view), err)
		}
		if err != nil {
			return filter.State{}, err
		}
		return v.State(), nil
	}

	s, err := views.LastView(ctx, api.Orders.Name)
	if err != nil {
		slog.Warn("Could not read last view", "error", err)
		s = filter.Default()
	}
	if s.Equal(filter.Default()) && filter.ValidPageSize(pageSize) {
		s = s.WithPageSize(pageSize)
	}
	return s, nil
}
