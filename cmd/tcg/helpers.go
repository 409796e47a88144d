package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/config"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newClient builds the API client from the loaded configuration.
func newClient() (*api.Client, config.API, error) {
	cfg, err := config.LoadAPI(viper.GetViper())
	if err != nil {
		return nil, config.API{}, err
	}
	client, err := cfg.Client("tcg/" + version)
	if err != nil {
		return nil, config.API{}, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, cfg, nil
}

// orderRecords returns the orders client.
func orderRecords() (*api.RecordClient, error) {
	client, _, err := newClient()
	if err != nil {
		return nil, err
	}
	return client.Records(api.Orders), nil
}

// initStorage opens the saved-views database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := config.DatabasePath(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// Filter flag names.
const (
	flagQuery           = "query"
	flagPage            = "page"
	flagPageSize        = "page-size"
	flagSortBy          = "sort-by"
	flagSortOrder       = "sort-order"
	flagSearch          = "search"
	flagStatus          = "status"
	flagStore           = "store"
	flagOrderDateFrom   = "order-date-from"
	flagOrderDateTo     = "order-date-to"
	flagReleaseDateFrom = "release-date-from"
	flagReleaseDateTo   = "release-date-to"
	flagOwing           = "owing"
)

// addFilterFlags registers the flags read by stateFromFlags. Paging and
// sort flags are only added when paged is true.
func addFilterFlags(cmd *cobra.Command, paged bool) {
	f := cmd.Flags()
	f.String(flagQuery, "", "start from an encoded filter, e.g. 'status=Pending&page=2'")
	f.String(flagSearch, "", "free-text search")
	f.String(flagStatus, "", "status (Pending, Delivered, Sold)")
	f.String(flagStore, "", "store name")
	f.String(flagOrderDateFrom, "", "earliest order date (YYYY-MM-DD)")
	f.String(flagOrderDateTo, "", "latest order date (YYYY-MM-DD)")
	f.String(flagReleaseDateFrom, "", "earliest release date (YYYY-MM-DD)")
	f.String(flagReleaseDateTo, "", "latest release date (YYYY-MM-DD)")
	f.Bool(flagOwing, false, "only orders with an amount owing")

	if paged {
		f.Int(flagPage, filter.DefaultPage, "page number")
		f.Int(flagPageSize, filter.DefaultPageSize, "orders per page (10, 25, 50, 100)")
		f.String(flagSortBy, filter.DefaultSortBy, "sort column")
		f.String(flagSortOrder, string(filter.DefaultSortOrder), "sort order (asc, desc)")
	}
}

// stateFromFlags builds the filter for a command. --query is decoded first;
// explicitly set flags then override it. Unlike a decoded query, flags the
// user typed are validated.
func stateFromFlags(cmd *cobra.Command) (filter.State, error) {
	f := cmd.Flags()

	s := filter.Default()
	s.PageSize = config.PageSize(viper.GetViper())
	if raw, _ := f.GetString(flagQuery); raw != "" {
		s = filter.Decode(raw)
	}

	var p filter.Patch
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		v = strings.TrimSpace(v)
		return &v
	}
	date := func(name string) (*model.Date, error) {
		v := str(name)
		if v == nil {
			return nil, nil
		}
		if *v == "" {
			return &model.Date{}, nil
		}
		d, err := model.ParseDate(*v)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("--%s must be a date like 2025-01-31", name), err)
		}
		return &d, nil
	}

	p.Search = str(flagSearch)
	p.Store = str(flagStore)
	if v := str(flagStatus); v != nil {
		status, err := parseStatus(*v)
		if err != nil {
			return filter.State{}, err
		}
		p.Status = &status
	}

	var err error
	if p.OrderDateFrom, err = date(flagOrderDateFrom); err != nil {
		return filter.State{}, err
	}
	if p.OrderDateTo, err = date(flagOrderDateTo); err != nil {
		return filter.State{}, err
	}
	if p.ReleaseDateFrom, err = date(flagReleaseDateFrom); err != nil {
		return filter.State{}, err
	}
	if p.ReleaseDateTo, err = date(flagReleaseDateTo); err != nil {
		return filter.State{}, err
	}
	if f.Changed(flagOwing) {
		owing, _ := f.GetBool(flagOwing)
		p.AmountOwingOnly = &owing
	}

	if f.Lookup(flagSortBy) != nil {
		if f.Changed(flagSortBy) {
			by, _ := f.GetString(flagSortBy)
			if !filter.ValidSortField(by) {
				return filter.State{}, common.NewUserError(
					fmt.Sprintf("--sort-by must be one of %s", strings.Join(filter.SortFields, ", ")), common.ErrValidation)
			}
			// Naming the current column again must not flip it.
			if by != s.SortBy {
				p.SortBy = &by
			}
		}
		if f.Changed(flagSortOrder) {
			order, _ := f.GetString(flagSortOrder)
			so := filter.SortOrder(strings.ToLower(order))
			if !so.Valid() {
				return filter.State{}, common.NewUserError("--sort-order must be asc or desc", common.ErrValidation)
			}
			p.SortOrder = &so
		}
		if f.Changed(flagPageSize) {
			n, _ := f.GetInt(flagPageSize)
			if !filter.ValidPageSize(n) {
				return filter.State{}, common.NewUserError("--page-size must be 10, 25, 50 or 100", common.ErrValidation)
			}
			p.PageSize = &n
		}
	}

	s = s.Apply(p)

	// The page is applied last so a constraint change does not reset it.
	if f.Lookup(flagPage) != nil && f.Changed(flagPage) {
		n, _ := f.GetInt(flagPage)
		if n < 1 {
			return filter.State{}, common.NewUserError("--page must be at least 1", common.ErrValidation)
		}
		s = s.GoTo(n)
	}

	return s, nil
}

func parseStatus(v string) (model.Status, error) {
	if v == "" {
		return "", nil
	}
	for _, status := range model.Statuses {
		if strings.EqualFold(v, string(status)) {
			return status, nil
		}
	}
	return "", common.NewUserError("status must be Pending, Delivered or Sold", common.ErrValidation)
}

// splitIDs parses a comma-separated id list.
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
