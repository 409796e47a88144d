package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	// logCloser releases the log file opened for the current command.
	logCloser io.Closer
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tcg",
		Short: "🃏 Track trading card game purchase orders",
		Long: `tcg: a terminal dashboard and CLI for your TCG purchase orders.

Browse, filter and sort orders, record payments and sales, and export
reports, all against your order-tracking server.`,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: closeLogging,
		SilenceUsage:       true,
	}

	// Global flags
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/tcg/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().String("api-url", "", "API base URL (default http://localhost:8000)")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyAPIBaseURL, root.PersistentFlags().Lookup("api-url"))

	// Add commands
	root.AddCommand(ordersCmd())
	root.AddCommand(analyticsCmd())
	root.AddCommand(viewsCmd())
	root.AddCommand(browseCmd())
	root.AddCommand(notificationsCmd())
	root.AddCommand(adminCmd())
	root.AddCommand(maintenanceCmd())
	root.AddCommand(sheetsCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(userMessage(err)))
		os.Exit(1)
	}
}

// userMessage picks the text shown for a failed command.
func userMessage(err error) string {
	var uerr *common.UserError
	if errors.As(err, &uerr) {
		return uerr.UserMessage
	}
	var maint *common.MaintenanceError
	switch {
	case errors.As(err, &maint):
		return maint.Error() + " (run 'tcg maintenance wait' to be told when it is back)"
	case errors.Is(err, common.ErrUnauthenticated):
		return err.Error() + " (set api.token in the config file or TCG_API_TOKEN)"
	case errors.Is(err, common.ErrForbidden):
		return err.Error() + " (this command needs an administrator account)"
	}
	return err.Error()
}

func initConfig(cmd *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get config directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	// Environment variables
	viper.SetEnvPrefix("TCG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// The dashboard owns the terminal, so it always logs to a file.
	logFile := viper.GetString(config.KeyLogFile)
	if cmd.Name() == "browse" {
		logFile = config.BrowseLogPath(viper.GetViper())
	}

	if err := setupLogging(logFile); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging(path string) error {
	level, err := common.ParseLevel(viper.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	closer, err := common.SetupLogger(level, viper.GetString(config.KeyLogFormat), path)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func closeLogging(_ *cobra.Command, _ []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tcg %s\n", version)
		},
	}
}
