package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/spf13/viper"
)

// Config keys shared by the CLI flags and the config file.
const (
	KeyAPIBaseURL      = "api.base_url"
	KeyAPIToken        = "api.token"
	KeyAPITimeout      = "api.timeout"
	KeyMaintenancePoll = "maintenance.poll_interval"
	KeyDatabasePath    = "database.path"
	KeyPageSize        = "tui.page_size"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
	KeyLogFile         = "logging.file"
)

const (
	defaultAPITimeout    = 30 * time.Second
	defaultDatabaseFile  = "tcg.db"
	defaultBrowseLogFile = "tcg.log"
)

// SetDefaults registers the defaults every command relies on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBaseURL, api.DefaultBaseURL)
	v.SetDefault(KeyAPITimeout, defaultAPITimeout)
	v.SetDefault(KeyMaintenancePoll, api.DefaultMaintenancePollInterval)
	v.SetDefault(KeyPageSize, filter.DefaultPageSize)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// API holds what is needed to reach the order-tracking service.
type API struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	PollInterval time.Duration
}

// LoadAPI reads the API settings. A missing token is not an error here;
// the client reports it on the first authenticated call.
func LoadAPI(v *viper.Viper) (API, error) {
	cfg := API{
		BaseURL:      v.GetString(KeyAPIBaseURL),
		Token:        v.GetString(KeyAPIToken),
		Timeout:      v.GetDuration(KeyAPITimeout),
		PollInterval: v.GetDuration(KeyMaintenancePoll),
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return API{}, fmt.Errorf("%w: %s %q must be an http(s) URL", common.ErrInvalidConfig, KeyAPIBaseURL, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return API{}, fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeyAPITimeout)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = api.DefaultMaintenancePollInterval
	}
	return cfg, nil
}

// Client builds an API client from cfg.
func (cfg API) Client(userAgent string) (*api.Client, error) {
	return api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.Timeout),
		api.WithToken(cfg.Token),
		api.WithUserAgent(userAgent))
}

// DatabasePath returns the saved-views database location,
// ~/.local/share/tcg/tcg.db by default.
func DatabasePath(v *viper.Viper) (string, error) {
	if p := v.GetString(KeyDatabasePath); p != "" {
		return ExpandPath(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppDir, defaultDatabaseFile), nil
}

// BrowseLogPath is where the TUI logs, since it owns the terminal.
func BrowseLogPath(v *viper.Viper) string {
	if p := v.GetString(KeyLogFile); p != "" {
		return ExpandPath(p)
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, defaultBrowseLogFile)
}

// PageSize returns the configured initial page size, falling back to the
// default when the value is not one of the offered sizes.
func PageSize(v *viper.Viper) int {
	n := v.GetInt(KeyPageSize)
	if !filter.ValidPageSize(n) {
		return filter.DefaultPageSize
	}
	return n
}
