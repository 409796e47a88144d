package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets records the calls made against a minimal Sheets API.
type fakeSheets struct {
	writes      map[string][][]any
	calls       []string
	mu          sync.Mutex
	getStatus   int
	formatCalls int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && f.getStatus != 0:
		w.WriteHeader(f.getStatus)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope"}}`, f.getStatus)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v4/spreadsheets"):
		_, _ = w.Write([]byte(`{"spreadsheetId":"new-sheet","spreadsheetUrl":"https://example.test/new-sheet"}`))
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		parts := strings.Split(r.URL.Path, "/")
		f.writes[parts[len(parts)-1]] = body.Values
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		f.formatCalls++
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	}
}

func newFakeWriter(t *testing.T, cfg Config) (*Writer, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{writes: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return newWriter(service, cfg, nil), fake
}

func testOrders(n int) []model.Order {
	orders := make([]model.Order, n)
	for i := range orders {
		orders[i] = model.Order{
			ID:          fmt.Sprintf("o-%d", i),
			ProductName: fmt.Sprintf("Booster Box %d", i),
			StoreName:   "EB Games",
			Status:      model.StatusPending,
			OrderDate:   model.NewDate(2025, time.March, 1),
			Quantity:    2,
			CostPerItem: decimal.RequireFromString("35.50"),
			AmountPaid:  decimal.RequireFromString("20"),
		}
	}
	return orders
}

func TestWriter_WriteBatchesRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.BatchSize = 10
	cfg.RetryAttempts = 1
	w, fake := newFakeWriter(t, cfg)

	id, err := w.Write(context.Background(), Report{
		Filter: filter.Default().WithSearch("booster"),
		Orders: testOrders(15),
	})
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)

	// 15 header and summary rows plus 15 orders.
	require.Len(t, fake.writes, 3)
	assert.Contains(t, fake.writes, "A1")
	assert.Contains(t, fake.writes, "A11")
	assert.Contains(t, fake.writes, "A21")
	assert.Equal(t, "TCG Orders", fake.writes["A1"][0][0])
	assert.Equal(t, "search=booster", fake.writes["A1"][1][1])
	assert.Equal(t, 1, fake.formatCalls)
}

func TestWriter_CreatesSpreadsheetWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFormatting = false
	w, fake := newFakeWriter(t, cfg)

	id, err := w.Write(context.Background(), Report{Orders: testOrders(1)})
	require.NoError(t, err)
	assert.Equal(t, "new-sheet", id)
	assert.Zero(t, fake.formatCalls)
}

func TestWriter_InaccessibleSpreadsheet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "missing"
	w, fake := newFakeWriter(t, cfg)
	fake.getStatus = http.StatusNotFound

	_, err := w.Write(context.Background(), Report{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to access spreadsheet missing")
	assert.Empty(t, fake.writes)
}

func TestPrepareReportData(t *testing.T) {
	sold := decimal.RequireFromString("120")
	profit := decimal.RequireFromString("49")
	margin := decimal.RequireFromString("69.014")
	notes := "preorder"
	release := model.NewDate(2025, time.June, 13)

	order := testOrders(1)[0]
	order.Status = model.StatusSold
	order.SoldPrice = &sold
	order.Profit = &profit
	order.Notes = &notes
	order.ReleaseDate = &release

	values, header := prepareReportData(Report{
		GeneratedAt: time.Date(2025, time.July, 1, 9, 30, 0, 0, time.UTC),
		Orders:      []model.Order{order},
		Statistics: model.Statistics{
			TotalOrders:         1,
			SoldCount:           1,
			TotalCost:           decimal.RequireFromString("71"),
			AverageProfitMargin: &margin,
		},
	})

	assert.Equal(t, []any{"TCG Orders", "Jul 1, 2025 09:30"}, values[0])
	assert.Equal(t, []any{"Filter", "All orders"}, values[1])
	assert.Equal(t, []any{"Total Cost", 71.0}, values[8])
	assert.Equal(t, []any{"Average Margin", "69.0%"}, values[11])
	assert.Equal(t, orderColumns, values[header])
	require.Len(t, values, header+2)

	row := values[header+1]
	require.Len(t, row, len(orderColumns))
	assert.Equal(t, "2025-03-01", row[0])
	assert.Equal(t, "Sold", row[3])
	assert.Equal(t, 71.0, row[6])
	assert.Equal(t, 51.0, row[8])
	assert.Equal(t, 120.0, row[9])
	assert.Equal(t, 49.0, row[10])
	assert.Equal(t, "2025-06-13", row[11])
	assert.Equal(t, "preorder", row[12])
}
