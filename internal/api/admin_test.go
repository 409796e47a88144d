package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStatistics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, adminStatisticsPath, r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"total_users": 12, "active_users_7d": 4, "total_orders": 30, "avg_orders_per_user": 2.5,
			"free_tier_users": 8, "basic_tier_users": 3, "pro_tier_users": 1, "grandfathered_users": 5,
		})
	})

	s, err := c.AdminStatistics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 12, s.TotalUsers)
	assert.Equal(t, 4, s.ActiveUsers7d)
	assert.InDelta(t, 2.5, s.AvgOrdersPerUser, 0.001)
	assert.Equal(t, 3, s.TierUsers(model.TierBasic))
	assert.Equal(t, 5, s.GrandfatheredUsers)
}

func TestUsers_SendsFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.UserFilter
		want   string
	}{
		{name: "no filter", want: ""},
		{
			name:   "search and tier",
			filter: model.UserFilter{Search: "ash@", Tier: model.TierPro},
			want:   "search=ash%40&tier=pro",
		},
		{
			name:   "not grandfathered",
			filter: model.UserFilter{Grandfathered: ptrTo(false), Limit: 25, Offset: 50},
			want:   "grandfathered=false&limit=25&offset=50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, adminUsersPath, r.URL.Path)
				assert.Equal(t, tt.want, r.URL.RawQuery)
				writeJSON(t, w, http.StatusOK, []map[string]any{
					{"id": "u-1", "email": "ash@example.com", "tier": "pro", "is_grandfathered": true, "orders_count": 9, "first_name": "Ash", "last_name": nil},
				})
			})

			users, err := c.Users(context.Background(), tt.filter)

			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, model.TierPro, users[0].Tier)
			assert.Equal(t, 9, users[0].OrdersCount)
			assert.True(t, users[0].IsGrandfathered)
			assert.Equal(t, "Ash", users[0].Name())
		})
	}
}

func TestUpdateUserTier(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/admin/users/u-1/tier", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"tier": "basic"}, body)
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "u-1", "email": "ash@example.com", "tier": "basic", "orders_count": 3})
	})

	_, err := c.UpdateUserTier(context.Background(), "u-1", "gold")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = c.UpdateUserTier(context.Background(), "", model.TierBasic)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, calls.Load())

	u, err := c.UpdateUserTier(context.Background(), "u-1", model.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, model.TierBasic, u.Tier)
	assert.Equal(t, int64(1), calls.Load())
}

func TestAdminEndpoints_NonAdminIsForbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{"detail": "Access denied. Admin privileges required."})
	})

	_, err := c.AdminStatistics(context.Background())
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = c.Users(context.Background(), model.UserFilter{})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = c.UpdateUserTier(context.Background(), "u-1", model.TierPro)
	require.ErrorIs(t, err, common.ErrForbidden)
	assert.NotErrorIs(t, err, common.ErrUnauthenticated)
}
