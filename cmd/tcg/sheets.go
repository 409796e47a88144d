package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/config"
	"github.com/Veraticus/tcg-ledger/internal/sheets"
	"github.com/spf13/cobra"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets export setup",
	}

	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize tcg to write to Google Sheets",
		Long: `Run the OAuth2 consent flow for Google Sheets. Open the printed URL,
approve access, and the token is stored next to the config file.

Client credentials come from sheets.client_id and sheets.client_secret,
GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET, or the flags below.`,
		Args: cobra.NoArgs,
		RunE: runSheetsAuth,
	}
	auth.Flags().String("client-id", "", "OAuth2 client ID")
	auth.Flags().String("client-secret", "", "OAuth2 client secret")
	cmd.AddCommand(auth)

	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	cfg := config.SheetsOAuthConfig()
	if id, _ := cmd.Flags().GetString("client-id"); id != "" {
		cfg.ClientID = id
	}
	if secret, _ := cmd.Flags().GetString("client-secret"); secret != "" {
		cfg.ClientSecret = secret
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return common.NewUserError("OAuth2 credentials not found. Set sheets.client_id and sheets.client_secret in the config file or pass --client-id and --client-secret", common.ErrMissingConfig)
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Authentication", "Run 'tcg sheets auth' again to retry.")

	slog.Info("Starting Google Sheets authentication", "token_file", cfg.TokenFile)

	out := cmd.OutOrStdout()
	token, err := sheets.GetOrCreateToken(ctx, cfg, func(authURL string) {
		fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to authorize access:"))
		fmt.Fprintln(out, authURL)
	})
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Authentication successful!"))
	if cfg.TokenFile == "" {
		fmt.Fprintln(out, "Add this to your config.yaml:")
		fmt.Fprintf(out, "sheets:\n  refresh_token: %q\n", token.RefreshToken)
	}
	fmt.Fprintln(out, cli.ChartIcon+" Google Sheets is ready. Run 'tcg orders export --sheets' to write a report.")
	return nil
}
