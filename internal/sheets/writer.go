package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Report is everything written to the spreadsheet in one export.
type Report struct {
	GeneratedAt time.Time
	Filter      filter.State
	Orders      []model.Order
	Statistics  model.Statistics
}

// orderColumns are the headers of the order table.
var orderColumns = []any{
	"Order Date",
	"Product",
	"Store",
	"Status",
	"Qty",
	"Cost / Item",
	"Total Cost",
	"Paid",
	"Owing",
	"Sold Price",
	"Profit",
	"Release Date",
	"Notes",
}

// Column span of the money columns in orderColumns.
const (
	firstMoneyColumn = 5
	lastMoneyColumn  = 11
)

// Writer writes order reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(service, config, logger), nil
}

func newWriter(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{service: service, config: config, logger: logger}
}

// Write replaces the sheet contents with report and returns the
// spreadsheet id.
func (w *Writer) Write(ctx context.Context, report Report) (string, error) {
	w.logger.Info("starting sheets export",
		"orders", len(report.Orders),
		"filter", filter.ConstraintValues(report.Filter).Encode())

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values, headerRow := prepareReportData(report)

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, headerRow, len(values))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Orders",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData lays out the summary block followed by the order table.
// It also returns the zero-based row index of the order table header.
func prepareReportData(report Report) ([][]any, int) {
	stats := report.Statistics
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	description := filter.ConstraintValues(report.Filter).Encode()
	if description == "" {
		description = "All orders"
	}

	values := make([][]any, 0, 16+len(report.Orders))
	values = append(values,
		[]any{"TCG Orders", generated.Format("Jan 2, 2006 15:04")},
		[]any{"Filter", description},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Orders", stats.TotalOrders},
		[]any{"Pending", stats.PendingCount},
		[]any{"Delivered", stats.DeliveredCount},
		[]any{"Sold", stats.SoldCount},
		[]any{"Total Cost", money(stats.TotalCost)},
		[]any{"Amount Owing", money(stats.AmountOwing)},
		[]any{"Total Profit", money(stats.TotalProfit)},
		[]any{"Average Margin", optionalPercent(stats.AverageProfitMargin)},
		[]any{},
		[]any{"Orders"},
	)

	headerRow := len(values)
	values = append(values, orderColumns)

	for _, o := range report.Orders {
		values = append(values, []any{
			o.OrderDate.String(),
			o.ProductName,
			o.StoreName,
			string(o.Status),
			o.Quantity,
			money(o.CostPerItem),
			money(o.ComputedTotalCost()),
			money(o.AmountPaid),
			money(o.ComputedAmountOwing()),
			optionalMoney(o.SoldPrice),
			optionalMoney(o.Profit),
			optionalDate(o.ReleaseDate),
			optionalString(o.Notes),
		})
	}

	return values, headerRow
}

func money(d decimal.Decimal) any {
	return d.Round(2).InexactFloat64()
}

func optionalMoney(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return money(*d)
}

func optionalPercent(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.StringFixed(1) + "%"
}

func optionalDate(d *model.Date) any {
	if d == nil {
		return ""
	}
	return d.String()
}

func optionalString(s *string) any {
	if s == nil {
		return ""
	}
	return *s
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, headerRow, totalRows int) error {
	bold := func(startRow, endRow, startCol, endCol int64, size int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: startCol,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: size},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}
	currency := func(startRow, endRow, startCol, endCol int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: startCol,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		}
	}

	header := int64(headerRow)
	requests := []*sheets.Request{
		bold(0, 1, 0, 2, 16),
		bold(3, header, 0, 1, 10),
		bold(header, header+1, 0, int64(len(orderColumns)), 10),
		// Summary money rows: Total Cost, Amount Owing, Total Profit.
		currency(8, 11, 1, 2),
		currency(header+1, int64(totalRows), firstMoneyColumn, lastMoneyColumn),
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(orderColumns)),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: header + 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
