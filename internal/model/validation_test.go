package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validCreate() OrderCreate {
	return OrderCreate{
		ProductName: "Prismatic Evolutions Elite Trainer Box",
		StoreName:   "EB Games",
		CostPerItem: decimal.RequireFromString("89.95"),
		AmountPaid:  decimal.RequireFromString("20"),
		Quantity:    2,
		Status:      StatusPending,
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		mutate     func(*OrderCreate)
		name       string
		wantFields []string
	}{
		{name: "valid", mutate: func(*OrderCreate) {}},
		{
			name:       "missing product and store",
			mutate:     func(c *OrderCreate) { c.ProductName = ""; c.StoreName = "" },
			wantFields: []string{"product_name", "store_name"},
		},
		{
			name:       "zero cost",
			mutate:     func(c *OrderCreate) { c.CostPerItem = decimal.Zero },
			wantFields: []string{"cost_per_item"},
		},
		{
			name:       "zero quantity",
			mutate:     func(c *OrderCreate) { c.Quantity = 0 },
			wantFields: []string{"quantity"},
		},
		{
			name:       "negative paid",
			mutate:     func(c *OrderCreate) { c.AmountPaid = decimal.NewFromInt(-1) },
			wantFields: []string{"amount_paid"},
		},
		{
			name:       "bad url",
			mutate:     func(c *OrderCreate) { c.ProductURL = ptr("not a url") },
			wantFields: []string{"product_url"},
		},
		{
			name:       "unknown status",
			mutate:     func(c *OrderCreate) { c.Status = "Lost" },
			wantFields: []string{"status"},
		},
		{
			name:       "paid exceeds total",
			mutate:     func(c *OrderCreate) { c.AmountPaid = decimal.RequireFromString("180") },
			wantFields: []string{"amount_paid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCreate()
			tt.mutate(&c)

			err := ValidateCreate(c)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))

			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve))
			for _, f := range tt.wantFields {
				assert.Contains(t, ve.Fields, f)
			}
		})
	}
}

func TestValidateUpdate_ChecksMergedRecord(t *testing.T) {
	current := Order{
		ID:          "a",
		CostPerItem: decimal.NewFromInt(10),
		AmountPaid:  decimal.NewFromInt(5),
		Quantity:    3,
	}

	require.NoError(t, ValidateUpdate(current, OrderUpdate{AmountPaid: ptr(decimal.NewFromInt(30))}))

	err := ValidateUpdate(current, OrderUpdate{Quantity: ptr(1), AmountPaid: ptr(decimal.NewFromInt(20))})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cannot exceed total cost", ve.Fields["amount_paid"])

	assert.ErrorIs(t, ValidateUpdate(current, OrderUpdate{}), common.ErrNoChanges)
}

func TestValidateBulkUpdate(t *testing.T) {
	err := ValidateBulkUpdate(OrderUpdate{})
	require.ErrorIs(t, err, common.ErrNoChanges)
	assert.Contains(t, err.Error(), "at least one field")

	require.NoError(t, ValidateBulkUpdate(OrderUpdate{Status: ptr(StatusDelivered)}))

	bad := StatusPending + "x"
	assert.ErrorIs(t, ValidateBulkUpdate(OrderUpdate{Status: &bad}), common.ErrValidation)
}

func TestValidate_NotificationPreferences(t *testing.T) {
	require.NoError(t, Validate(NotificationPreferencesUpdate{ReleaseReminderDays: ptr(7)}))

	err := Validate(NotificationPreferencesUpdate{ReleaseReminderDays: ptr(31), PaymentThreshold: ptr(-5)})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be 30 or less", ve.Fields["release_reminder_days"])
	assert.Equal(t, "must be 0 or greater", ve.Fields["payment_threshold"])
}

func TestOrderUpdate_ApplyToClearsComputed(t *testing.T) {
	total := decimal.NewFromInt(30)
	o := Order{CostPerItem: decimal.NewFromInt(10), Quantity: 3, TotalCost: &total}

	got := OrderUpdate{Quantity: ptr(5)}.ApplyTo(o)

	assert.Nil(t, got.TotalCost)
	assert.True(t, got.ComputedTotalCost().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 3, o.Quantity)
}

func TestDate_JSON(t *testing.T) {
	var o struct {
		Release *Date `json:"release"`
		Order   Date  `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"release":null,"order":"2025-03-28T00:00:00Z"}`), &o))
	assert.Nil(t, o.Release)
	assert.Equal(t, NewDate(2025, time.March, 28), o.Order)

	out, err := json.Marshal(NewDate(2025, time.January, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-01-02"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
}

func TestQueryResult_Paging(t *testing.T) {
	r := QueryResult{Total: 120, Page: 3, PageSize: 50, Items: []Order{{ID: "x"}, {ID: "y"}}}

	assert.Equal(t, 3, r.TotalPages())
	start, end := r.Range()
	assert.Equal(t, 101, start)
	assert.Equal(t, 120, end)
	assert.Equal(t, []string{"x", "y"}, r.IDs())

	start, end = QueryResult{PageSize: 50, Page: 1}.Range()
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestBulkResult_Err(t *testing.T) {
	assert.NoError(t, BulkResult{Op: BulkDeleteOp, Count: 3}.Err())

	r := BulkResult{Op: BulkUpdateOp, Count: 2, FailedIDs: []string{"b"}, Message: "Updated 2 orders"}
	assert.True(t, r.Partial())

	err := r.Err()
	require.ErrorIs(t, err, common.ErrPartialFailure)
	var pf *common.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, []string{"b"}, pf.FailedIDs)
	assert.Equal(t, 2, pf.Succeeded)
}
