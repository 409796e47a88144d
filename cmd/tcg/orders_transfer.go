package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/config"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/sheets"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// exportPageSize is the page size used when collecting every matching order.
const exportPageSize = 100

func ordersExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export orders to a CSV file or Google Sheets",
		Long: `Export orders.

--out downloads the server's CSV export of every order.
--sheets writes the orders matching the filter flags, with a summary, to the
configured Google spreadsheet (see 'tcg sheets auth').`,
		Example: `  tcg orders export --out orders.csv
  tcg orders export --sheets --status Pending --owing`,
		Args: cobra.NoArgs,
		RunE: runOrdersExport,
	}
	cmd.Flags().StringP("out", "o", "", "CSV file to write")
	cmd.Flags().Bool("sheets", false, "write to Google Sheets")
	cmd.MarkFlagsMutuallyExclusive("out", "sheets")
	cmd.MarkFlagsOneRequired("out", "sheets")
	addFilterFlags(cmd, false)
	return cmd
}

func runOrdersExport(cmd *cobra.Command, _ []string) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Export", "Nothing after the last completed page was written.")

	client, _, err := newClient()
	if err != nil {
		return err
	}
	records := client.Records(api.Orders)

	if toSheets, _ := cmd.Flags().GetBool("sheets"); toSheets {
		s, err := stateFromFlags(cmd)
		if err != nil {
			return err
		}
		return exportToSheets(ctx, cmd, client, records, s)
	}

	out, _ := cmd.Flags().GetString("out")
	return exportCSV(ctx, cmd.ErrOrStderr(), records, config.ExpandPath(out))
}

func exportCSV(ctx context.Context, progress io.Writer, records *api.RecordClient, path string) (err error) {
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	bar := cli.NewProgressBar(progress, -1, "Downloading orders")
	n, err := records.Export(ctx, io.MultiWriter(f, bar))
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("failed to export orders: %w", err)
	}

	slog.Info("Exported orders", "file", path, "bytes", n)
	fmt.Fprintln(progress, cli.FormatSuccess(fmt.Sprintf("Wrote %s (%d bytes)", path, n)))
	return nil
}

// pageLister fetches one page of orders.
type pageLister func(ctx context.Context, s filter.State) (model.QueryResult, error)

// collectOrders pages through every order matching s. onPage is called
// after each page with the number collected so far and the total.
func collectOrders(ctx context.Context, list pageLister, s filter.State, onPage func(done, total int)) ([]model.Order, error) {
	size := exportPageSize
	s = s.WithPageSize(size)

	var all []model.Order
	for page := 1; ; page++ {
		res, err := list(ctx, s.GoTo(page))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		all = append(all, res.Items...)
		if onPage != nil {
			onPage(len(all), res.Total)
		}
		if len(res.Items) == 0 || len(all) >= res.Total || page >= res.TotalPages() {
			return all, nil
		}
	}
}

func exportToSheets(ctx context.Context, cmd *cobra.Command, client *api.Client, records *api.RecordClient, s filter.State) error {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets is not configured; run 'tcg sheets auth' first", err)
	}

	stderr := cmd.ErrOrStderr()
	var bar *progressbar.ProgressBar
	orders, err := collectOrders(ctx, records.List, s, func(done, total int) {
		if bar == nil {
			bar = cli.NewProgressBar(stderr, int64(total), "Fetching orders")
		}
		_ = bar.Set(done)
	})
	if err != nil {
		return err
	}

	stats, err := client.Statistics(ctx, s.FilterOnly())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}

	id, err := writer.Write(ctx, sheets.Report{
		GeneratedAt: time.Now(),
		Filter:      s.FilterOnly(),
		Orders:      orders,
		Statistics:  stats,
	})
	if err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d orders", len(orders))))
	fmt.Fprintln(cmd.OutOrStdout(), "https://docs.google.com/spreadsheets/d/"+id)
	return nil
}

func ordersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import orders from a CSV file",
		Long: `Upload a CSV file of orders. The server reports how many rows were
imported, skipped and rejected; rejected rows are listed with the reason.`,
		Args: cobra.ExactArgs(1),
		RunE: runOrdersImport,
	}
}

func runOrdersImport(cmd *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0])
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	records, err := orderRecords()
	if err != nil {
		return err
	}

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), info.Size(), "Uploading "+filepath.Base(path))
	res, err := mutation.New(records).Import(cmd.Context(), path, io.TeeReader(f, bar))
	_ = bar.Finish()
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return common.NewUserError("The server rejected the file: "+err.Error(), err)
		}
		return fmt.Errorf("failed to import orders: %w", err)
	}

	writeImportResult(cmd.OutOrStdout(), res)
	return nil
}

func writeImportResult(w io.Writer, res model.ImportResult) {
	summary := fmt.Sprintf("Imported: %d\nSkipped:  %d\nFailed:   %d",
		res.ImportedCount, res.SkippedCount, res.FailedCount)
	fmt.Fprintln(w, cli.RenderBox("Import complete", summary))
	for _, e := range res.Errors {
		fmt.Fprintln(w, cli.FormatWarning(e))
	}
}
