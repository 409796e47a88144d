package model

import (
	"strings"
	"time"
)

// Tier is a subscription level.
type Tier string

// Subscription tiers.
const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierFree, TierBasic, TierPro}

// ParseTier reads a tier name in any case.
func ParseTier(v string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(v)))
	if err := Validate(UserTierUpdate{Tier: t}); err != nil {
		return "", err
	}
	return t, nil
}

// AdminStatistics are system-wide counts for administrators.
type AdminStatistics struct {
	TotalUsers         int     `json:"total_users"`
	ActiveUsers7d      int     `json:"active_users_7d"`
	ActiveUsers30d     int     `json:"active_users_30d"`
	NewUsersThisWeek   int     `json:"new_users_this_week"`
	NewUsersThisMonth  int     `json:"new_users_this_month"`
	TotalOrders        int     `json:"total_orders"`
	AvgOrdersPerUser   float64 `json:"avg_orders_per_user"`
	FreeTierUsers      int     `json:"free_tier_users"`
	BasicTierUsers     int     `json:"basic_tier_users"`
	ProTierUsers       int     `json:"pro_tier_users"`
	GrandfatheredUsers int     `json:"grandfathered_users"`
}

// TierUsers is the number of users on t.
func (s AdminStatistics) TierUsers(t Tier) int {
	switch t {
	case TierFree:
		return s.FreeTierUsers
	case TierBasic:
		return s.BasicTierUsers
	case TierPro:
		return s.ProTierUsers
	default:
		return 0
	}
}

// User is an account as listed to administrators.
type User struct {
	CreatedAt       time.Time `json:"created_at"`
	FirstName       *string   `json:"first_name"`
	LastName        *string   `json:"last_name"`
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Tier            Tier      `json:"tier"`
	OrdersCount     int       `json:"orders_count"`
	IsGrandfathered bool      `json:"is_grandfathered"`
	IsAdmin         bool      `json:"is_admin"`
}

// Name joins whichever of the first and last name are set.
func (u User) Name() string {
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

// UserFilter narrows the admin user list. Zero fields do not filter.
// Search matches part of the email address.
type UserFilter struct {
	Grandfathered *bool
	Search        string
	Tier          Tier
	Limit         int
	Offset        int
}

// UserTierUpdate moves a user to another tier.
type UserTierUpdate struct {
	Tier Tier `json:"tier" validate:"required,oneof=free basic pro"`
}
