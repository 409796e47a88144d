package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TCG_TEST_DIR", "/srv/tcg")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "home", in: "~", want: home},
		{name: "home relative", in: "~/views.db", want: filepath.Join(home, "views.db")},
		{name: "env var", in: "$TCG_TEST_DIR/views.db", want: "/srv/tcg/views.db"},
		{name: "tilde not at start", in: "/tmp/~/x", want: "/tmp/~/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadAPI(t *testing.T) {
	tests := []struct {
		set     map[string]any
		want    API
		wantErr bool
		name    string
	}{
		{
			name: "defaults",
			want: API{
				BaseURL:      api.DefaultBaseURL,
				Timeout:      30 * time.Second,
				PollInterval: api.DefaultMaintenancePollInterval,
			},
		},
		{
			name: "overrides",
			set: map[string]any{
				KeyAPIBaseURL:      "https://orders.example.com",
				KeyAPIToken:        "secret",
				KeyAPITimeout:      "5s",
				KeyMaintenancePoll: "10s",
			},
			want: API{
				BaseURL:      "https://orders.example.com",
				Token:        "secret",
				Timeout:      5 * time.Second,
				PollInterval: 10 * time.Second,
			},
		},
		{
			name:    "not a url",
			set:     map[string]any{KeyAPIBaseURL: "orders.example.com"},
			wantErr: true,
		},
		{
			name:    "zero timeout",
			set:     map[string]any{KeyAPITimeout: "0s"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			for k, val := range tt.set {
				v.Set(k, val)
			}

			got, err := LoadAPI(v)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			client, err := got.Client("tcg/test")
			require.NoError(t, err)
			assert.Equal(t, tt.want.BaseURL, client.BaseURL())
		})
	}
}

func TestPageSize(t *testing.T) {
	tests := []struct {
		name string
		set  any
		want int
	}{
		{name: "default", want: 50},
		{name: "offered size", set: 25, want: 25},
		{name: "unsupported size", set: 30, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			if tt.set != nil {
				v.Set(KeyPageSize, tt.set)
			}
			assert.Equal(t, tt.want, PageSize(v))
		})
	}
}

func TestDatabasePath(t *testing.T) {
	v := viper.New()
	v.Set(KeyDatabasePath, "$TCG_DB_DIR/views.db")
	t.Setenv("TCG_DB_DIR", "/data")

	got, err := DatabasePath(v)
	require.NoError(t, err)
	assert.Equal(t, "/data/views.db", got)

	got, err = DatabasePath(viper.New())
	require.NoError(t, err)
	assert.Equal(t, defaultDatabaseFile, filepath.Base(got))
	assert.Equal(t, AppDir, filepath.Base(filepath.Dir(got)))
}

func TestLoadSheetsConfig_EnvFallback(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-123")

	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "TCG Orders", cfg.SpreadsheetName)
}

func TestLoadSheetsConfig_Missing(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	_, err := LoadSheetsConfig()
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
