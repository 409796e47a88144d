package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
)

const (
	adminStatisticsPath = "/api/v1/admin/statistics"
	adminUsersPath      = "/api/v1/admin/users"
)

// AdminStatistics fetches the system-wide user and order counts.
func (c *Client) AdminStatistics(ctx context.Context) (model.AdminStatistics, error) {
	var out model.AdminStatistics
	err := c.do(ctx, request{method: http.MethodGet, path: adminStatisticsPath, op: "get admin statistics"}, &out)
	return out, err
}

// Users lists accounts matching f.
func (c *Client) Users(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	var out []model.User
	req := request{method: http.MethodGet, path: adminUsersPath, query: userQuery(f), op: "list users"}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func userQuery(f model.UserFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Tier != "" {
		q.Set("tier", string(f.Tier))
	}
	if f.Grandfathered != nil {
		q.Set("grandfathered", strconv.FormatBool(*f.Grandfathered))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// UpdateUserTier moves the user with id to tier and returns the account as
// it is now.
func (c *Client) UpdateUserTier(ctx context.Context, id string, tier model.Tier) (model.User, error) {
	if id == "" {
		return model.User{}, common.NewValidationError("id", "is required")
	}
	body := model.UserTierUpdate{Tier: tier}
	if err := model.Validate(body); err != nil {
		return model.User{}, err
	}
	req, err := jsonRequest(http.MethodPatch, adminUsersPath+"/"+url.PathEscape(id)+"/tier", "update user tier", body)
	if err != nil {
		return model.User{}, err
	}
	var out model.User
	err = c.do(ctx, req, &out)
	return out, err
}
