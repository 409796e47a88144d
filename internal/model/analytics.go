package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics is the dashboard summary for a filtered order set.
type Statistics struct {
	AverageProfitMargin *decimal.Decimal `json:"average_profit_margin"`
	TotalCost           decimal.Decimal  `json:"total_cost"`
	AmountOwing         decimal.Decimal  `json:"amount_owing"`
	TotalProfit         decimal.Decimal  `json:"total_profit"`
	TotalOrders         int              `json:"total_orders"`
	PendingCount        int              `json:"pending_count"`
	DeliveredCount      int              `json:"delivered_count"`
	SoldCount           int              `json:"sold_count"`
}

// SpendingByStore is total spend grouped by store.
type SpendingByStore struct {
	StoreName  string          `json:"store_name"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	OrderCount int             `json:"order_count"`
}

// StatusOverview is the order count and value for one status.
type StatusOverview struct {
	Status     Status          `json:"status"`
	TotalValue decimal.Decimal `json:"total_value"`
	Count      int             `json:"count"`
}

// ProfitByStore is realised profit grouped by store.
type ProfitByStore struct {
	AverageProfitMargin *decimal.Decimal `json:"average_profit_margin"`
	StoreName           string           `json:"store_name"`
	TotalProfit         decimal.Decimal  `json:"total_profit"`
	SoldCount           int              `json:"sold_count"`
}

// MonthlySpending is spend grouped by month ("2025-01").
type MonthlySpending struct {
	Month      string          `json:"month"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	OrderCount int             `json:"order_count"`
}

// Analytics bundles every aggregate the dashboard renders for one filter.
type Analytics struct {
	Statistics      Statistics
	SpendingByStore []SpendingByStore
	StatusOverview  []StatusOverview
	ProfitByStore   []ProfitByStore
	MonthlySpending []MonthlySpending
}

// NotificationPreferences holds the user's reminder and digest settings.
type NotificationPreferences struct {
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
	UserID                  string    `json:"user_id"`
	ReleaseReminderDays     int       `json:"release_reminder_days"`
	PaymentThreshold        int       `json:"payment_threshold"`
	ReleaseRemindersEnabled bool      `json:"release_reminders_enabled"`
	PaymentRemindersEnabled bool      `json:"payment_reminders_enabled"`
	WeeklyDigestEnabled     bool      `json:"weekly_digest_enabled"`
	MonthlyDigestEnabled    bool      `json:"monthly_digest_enabled"`
}

// NotificationPreferencesUpdate is a partial preferences change.
type NotificationPreferencesUpdate struct {
	ReleaseRemindersEnabled *bool `json:"release_reminders_enabled,omitempty"`
	ReleaseReminderDays     *int  `json:"release_reminder_days,omitempty" validate:"omitempty,gte=1,lte=30"`
	PaymentRemindersEnabled *bool `json:"payment_reminders_enabled,omitempty"`
	PaymentThreshold        *int  `json:"payment_threshold,omitempty" validate:"omitempty,gte=0"`
	WeeklyDigestEnabled     *bool `json:"weekly_digest_enabled,omitempty"`
	MonthlyDigestEnabled    *bool `json:"monthly_digest_enabled,omitempty"`
}

// SystemSettings is the global admin configuration.
type SystemSettings struct {
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	GrandfatherDate      *time.Time `json:"grandfather_date"`
	FreeTierLimit        *int       `json:"free_tier_limit"`
	BasicTierLimit       *int       `json:"basic_tier_limit"`
	MaintenanceMessage   *string    `json:"maintenance_message"`
	ID                   string     `json:"id"`
	SubscriptionsEnabled bool       `json:"subscriptions_enabled"`
	MaintenanceMode      bool       `json:"maintenance_mode"`
}

// SystemSettingsUpdate is a partial admin settings change.
type SystemSettingsUpdate struct {
	SubscriptionsEnabled *bool   `json:"subscriptions_enabled,omitempty"`
	FreeTierLimit        *int    `json:"free_tier_limit,omitempty" validate:"omitempty,gte=0"`
	BasicTierLimit       *int    `json:"basic_tier_limit,omitempty" validate:"omitempty,gte=0"`
	MaintenanceMode      *bool   `json:"maintenance_mode,omitempty"`
	MaintenanceMessage   *string `json:"maintenance_message,omitempty"`
}
