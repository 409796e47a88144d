package tui

import (
	"context"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/query"
	"github.com/Veraticus/tcg-ledger/internal/storage"
	"github.com/Veraticus/tcg-ledger/internal/tui/themes"
)

// ViewStore remembers filters between sessions.
type ViewStore interface {
	SetLastView(ctx context.Context, resource string, s filter.State) error
	SaveView(ctx context.Context, resource, name string, s filter.State) (storage.SavedView, error)
}

// Deps are the collaborators the dashboard reads from and writes through.
type Deps struct {
	Orders    *query.Executor[model.QueryResult]
	Analytics *query.Executor[model.Analytics]
	Mutations *mutation.Coordinator
	Views     ViewStore
}

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Initial      filter.State
	Resource     string
	Width        int
	Height       int
	PollInterval time.Duration
	FetchTimeout time.Duration
	ShowStats    bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Initial:      filter.Default(),
		Resource:     api.Orders.Name,
		Width:        120,
		Height:       30,
		PollInterval: api.DefaultMaintenancePollInterval,
		FetchTimeout: 30 * time.Second,
		ShowStats:    true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithInitialState opens the dashboard on s.
func WithInitialState(s filter.State) Option {
	return func(c *Config) {
		c.Initial = s
	}
}

// WithPollInterval sets how often a maintenance notice retries.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithStats shows or hides the analytics summary.
func WithStats(enabled bool) Option {
	return func(c *Config) {
		c.ShowStats = enabled
	}
}
