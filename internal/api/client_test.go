package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client()), WithToken(testToken)}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestList_SendsFilterAndDecodes(t *testing.T) {
	var gotQuery, gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)

		orders := make([]map[string]any, 50)
		for i := range orders {
			orders[i] = map[string]any{
				"id":            "o",
				"product_name":  "Booster Box",
				"store_name":    "EB Games",
				"cost_per_item": 199.95,
				"amount_paid":   0,
				"quantity":      1,
				"status":        "Pending",
				"order_date":    "2025-01-15",
				"release_date":  nil,
				"total_cost":    199.95,
			}
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"orders": orders, "total": 120, "page": 1, "page_size": 50})
	})

	res, err := c.Records(Orders).List(context.Background(), filter.Default())

	require.NoError(t, err)
	assert.Equal(t, "page=1&page_size=50&sort_by=created_at&sort_order=desc", gotQuery)
	assert.Equal(t, "Bearer "+testToken, gotAuth)
	assert.Len(t, gotRequestID, 36)
	assert.Len(t, res.Items, 50)
	assert.Equal(t, 120, res.Total)
	assert.Equal(t, 3, res.TotalPages())
	assert.True(t, res.Items[0].CostPerItem.Equal(decimal.RequireFromString("199.95")))
	assert.Nil(t, res.Items[0].ReleaseDate)
}

func TestList_OmitsUnsetConstraints(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		writeJSON(t, w, http.StatusOK, map[string]any{"orders": []any{}, "total": 0, "page": 1, "page_size": 25})
	})

	s := filter.Default().Apply(filter.Patch{Store: new(string)}).WithPageSize(25).WithSearch("etb")
	res, err := c.Records(Orders).List(context.Background(), s)

	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Equal(t, "page=1&page_size=25&search=etb&sort_by=created_at&sort_order=desc", got)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		body   any
		check  func(t *testing.T, err error)
		name   string
		status int
	}{
		{
			name:   "maintenance",
			status: http.StatusServiceUnavailable,
			body:   map[string]any{"maintenance_mode": true, "message": "Back at 5pm"},
			check: func(t *testing.T, err error) {
				var me *common.MaintenanceError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, "Back at 5pm", me.Message)
				assert.True(t, common.IsFatalToView(err))
			},
		},
		{
			name:   "plain 503",
			status: http.StatusServiceUnavailable,
			body:   map[string]any{"detail": "overloaded"},
			check: func(t *testing.T, err error) {
				assert.NotErrorIs(t, err, common.ErrMaintenance)
				var apiErr *common.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   map[string]any{"detail": "Token expired"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrUnauthenticated)
				assert.Contains(t, err.Error(), "Token expired")
			},
		},
		{
			name:   "forbidden keeps the credential",
			status: http.StatusForbidden,
			body:   map[string]any{"detail": "Access denied. Admin privileges required."},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrForbidden)
				assert.NotErrorIs(t, err, common.ErrUnauthenticated)
				var apiErr *common.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusForbidden, apiErr.Status)
				assert.Contains(t, err.Error(), "Admin privileges required")
				assert.False(t, common.IsFatalToView(err))
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   map[string]any{"detail": "Order not found"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrNotFound)
				assert.Contains(t, err.Error(), "Order not found")
			},
		},
		{
			name:   "request validation",
			status: http.StatusUnprocessableEntity,
			body: map[string]any{"detail": []map[string]any{
				{"loc": []any{"body", "quantity"}, "msg": "must be at least 1"},
			}},
			check: func(t *testing.T, err error) {
				var apiErr *common.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "quantity: must be at least 1", apiErr.Detail)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, tt.status, tt.body)
			})
			_, err := c.Records(Orders).Get(context.Background(), "abc")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestMissingTokenIsAuthError(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) }, WithToken(""))

	_, err := c.Records(Orders).List(context.Background(), filter.Default())
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Zero(t, calls.Load())
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, WithToken(testToken), WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.Records(Orders).List(context.Background(), filter.Default())
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.True(t, common.IsRetryable(err))
}

func TestMutations(t *testing.T) {
	var lastBody map[string]any
	var lastMethod, lastPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastMethod, lastPath = r.Method, r.URL.Path
		lastBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
		}

		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/bulk-update"):
			writeJSON(t, w, http.StatusOK, map[string]any{"updated_count": 2, "failed_ids": []string{"b"}, "message": "Successfully updated 2 order(s)"})
		case strings.HasSuffix(r.URL.Path, "/bulk-delete"):
			writeJSON(t, w, http.StatusOK, map[string]any{"deleted_count": 3, "failed_ids": []string{}, "message": "Successfully deleted 3 order(s)"})
		case r.Method == http.MethodPost:
			writeJSON(t, w, http.StatusCreated, map[string]any{"id": "new", "product_name": lastBody["product_name"], "order_date": "2025-02-01"})
		default:
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "a", "status": "Sold", "order_date": "2025-02-01"})
		}
	})
	ctx := context.Background()
	orders := c.Records(Orders)

	created, err := orders.Create(ctx, model.OrderCreate{ProductName: "ETB", StoreName: "Big W", CostPerItem: decimal.NewFromInt(70), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, "70", lastBody["cost_per_item"])

	status := model.StatusSold
	updated, err := orders.Update(ctx, "a", model.OrderUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, updated.Status)
	assert.Equal(t, http.MethodPut, lastMethod)
	assert.Equal(t, "/api/v1/orders/a", lastPath)
	assert.Equal(t, map[string]any{"status": "Sold"}, lastBody)

	require.NoError(t, orders.Delete(ctx, "a b"))
	assert.Equal(t, "/api/v1/orders/a b", lastPath)

	bulk, err := orders.BulkUpdate(ctx, []string{"a", "b", "c"}, model.OrderUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, bulk.Count)
	assert.Equal(t, []string{"b"}, bulk.FailedIDs)
	assert.ErrorIs(t, bulk.Err(), common.ErrPartialFailure)
	assert.Equal(t, []any{"a", "b", "c"}, lastBody["order_ids"])
	assert.Equal(t, map[string]any{"status": "Sold"}, lastBody["update_data"])

	deleted, err := orders.BulkDelete(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted.Count)
	assert.NoError(t, deleted.Err())
}

func TestStoresMergesDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/stores", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []string{"EB Games", "Amazon AU", " "})
	})

	stores, err := c.Records(Orders).Stores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Amazon AU", "Big W", "EB Games", "Gameology", "Good Games",
		"JB Hi-Fi", "Kmart Australia", "Target Australia", "Zing Pop Culture",
	}, stores)
}

func TestExportAndImport(t *testing.T) {
	const csv = "id,product_name\n1,ETB\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/orders/export":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, csv)
		case "/api/v1/orders/import":
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer func() { _ = file.Close() }()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "orders.csv", header.Filename)
			assert.Equal(t, csv, string(data))
			writeJSON(t, w, http.StatusOK, map[string]any{"imported_count": 1, "skipped_count": 0, "failed_count": 0, "errors": []string{}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	var out strings.Builder
	n, err := c.Records(Orders).Export(ctx, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(csv)), n)
	assert.Equal(t, csv, out.String())

	res, err := c.Records(Orders).Import(ctx, "/tmp/orders.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
}

func TestAnalytics_UsesConstraintsOnly(t *testing.T) {
	var paths atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths.Add(1)
		assert.Equal(t, "status=Sold", r.URL.RawQuery)
		switch r.URL.Path {
		case "/api/v1/analytics/statistics":
			writeJSON(t, w, http.StatusOK, map[string]any{"total_orders": 4, "sold_count": 4, "total_profit": 12.5, "average_profit_margin": nil})
		case "/api/v1/analytics/monthly-spending":
			writeJSON(t, w, http.StatusOK, []map[string]any{{"month": "2025-01", "total_spent": 100, "order_count": 2}})
		default:
			writeJSON(t, w, http.StatusOK, []any{})
		}
	})

	s := filter.Default().Apply(filter.Patch{Status: ptrTo(model.StatusSold)}).GoTo(3)
	a, err := c.Analytics(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, int64(5), paths.Load())
	assert.Equal(t, 4, a.Statistics.TotalOrders)
	assert.Nil(t, a.Statistics.AverageProfitMargin)
	require.Len(t, a.MonthlySpending, 1)
	assert.Equal(t, "2025-01", a.MonthlySpending[0].Month)
}

func TestAnalytics_FailureCancelsRest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/analytics/statistics" {
			writeJSON(t, w, http.StatusInternalServerError, map[string]any{"detail": "Failed to calculate statistics"})
			return
		}
		writeJSON(t, w, http.StatusOK, []any{})
	})

	_, err := c.Analytics(context.Background(), filter.Default())
	var apiErr *common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestNotificationPreferences_ValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{"release_reminder_days": 3})
	})

	_, err := c.UpdateNotificationPreferences(context.Background(), model.NotificationPreferencesUpdate{ReleaseReminderDays: ptrTo(0)})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, calls.Load())

	prefs, err := c.UpdateNotificationPreferences(context.Background(), model.NotificationPreferencesUpdate{ReleaseReminderDays: ptrTo(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, prefs.ReleaseReminderDays)
}

func TestWaitForService(t *testing.T) {
	var polls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			writeJSON(t, w, http.StatusOK, map[string]any{"maintenance_mode": true, "maintenance_message": "Upgrading"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"maintenance_mode": false})
	})

	var messages []string
	err := c.WaitForService(context.Background(), time.Millisecond, func(msg string) {
		messages = append(messages, msg)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Upgrading", "Upgrading"}, messages)
}

func TestWaitForService_NonAdminFallsBack(t *testing.T) {
	var checks atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == adminSettingsPath {
			writeJSON(t, w, http.StatusForbidden, map[string]any{"detail": "Admin access required"})
			return
		}
		if checks.Add(1) == 1 {
			writeJSON(t, w, http.StatusServiceUnavailable, map[string]any{"maintenance_mode": true, "message": "Soon"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	var messages []string
	err := c.WaitForService(context.Background(), time.Millisecond, func(msg string) {
		messages = append(messages, msg)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Soon"}, messages)
}

func TestWaitForService_ExpiredTokenStops(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"detail": "Token expired"})
	})

	err := c.WaitForService(context.Background(), time.Millisecond, nil)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestWaitForService_StopsOnContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"maintenance_mode": true})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.WaitForService(ctx, 5*time.Millisecond, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func ptrTo[T any](v T) *T { return &v }
