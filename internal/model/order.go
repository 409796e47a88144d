// Package model defines the records exchanged with the order-tracking API.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle stage of a purchase order.
type Status string

// Order statuses.
const (
	StatusPending   Status = "Pending"
	StatusDelivered Status = "Delivered"
	StatusSold      Status = "Sold"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusDelivered, StatusSold}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a single purchase order as returned by the API.
// TotalCost, AmountOwing, Profit and ProfitMargin are computed server-side.
type Order struct {
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	OrderDate    Date             `json:"order_date"`
	ReleaseDate  *Date            `json:"release_date,omitempty"`
	SoldPrice    *decimal.Decimal `json:"sold_price,omitempty"`
	TotalCost    *decimal.Decimal `json:"total_cost,omitempty"`
	AmountOwing  *decimal.Decimal `json:"amount_owing,omitempty"`
	Profit       *decimal.Decimal `json:"profit,omitempty"`
	ProfitMargin *decimal.Decimal `json:"profit_margin,omitempty"`
	ProductURL   *string          `json:"product_url,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	ProductName  string           `json:"product_name"`
	StoreName    string           `json:"store_name"`
	Status       Status           `json:"status"`
	CostPerItem  decimal.Decimal  `json:"cost_per_item"`
	AmountPaid   decimal.Decimal  `json:"amount_paid"`
	Quantity     int              `json:"quantity"`
}

// ComputedTotalCost returns the server's total when present and
// cost per item times quantity otherwise.
func (o Order) ComputedTotalCost() decimal.Decimal {
	if o.TotalCost != nil {
		return *o.TotalCost
	}
	return o.CostPerItem.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// ComputedAmountOwing returns the server's amount owing when present and
// total cost minus amount paid otherwise.
func (o Order) ComputedAmountOwing() decimal.Decimal {
	if o.AmountOwing != nil {
		return *o.AmountOwing
	}
	return o.ComputedTotalCost().Sub(o.AmountPaid)
}

// OrderCreate is the body of a create request.
type OrderCreate struct {
	ReleaseDate *Date            `json:"release_date,omitempty"`
	OrderDate   *Date            `json:"order_date,omitempty"`
	SoldPrice   *decimal.Decimal `json:"sold_price,omitempty" validate:"omitempty,gte=0"`
	ProductURL  *string          `json:"product_url,omitempty" validate:"omitempty,http_url"`
	Notes       *string          `json:"notes,omitempty"`
	ProductName string           `json:"product_name" validate:"required,min=1,max=500"`
	StoreName   string           `json:"store_name" validate:"required,min=1,max=200"`
	Status      Status           `json:"status,omitempty" validate:"omitempty,oneof=Pending Delivered Sold"`
	CostPerItem decimal.Decimal  `json:"cost_per_item" validate:"gt=0"`
	AmountPaid  decimal.Decimal  `json:"amount_paid" validate:"gte=0"`
	Quantity    int              `json:"quantity" validate:"gte=1"`
}

// OrderUpdate is a partial record; nil fields are left unchanged.
type OrderUpdate struct {
	ProductName *string          `json:"product_name,omitempty" validate:"omitempty,min=1,max=500"`
	ProductURL  *string          `json:"product_url,omitempty" validate:"omitempty,http_url"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	StoreName   *string          `json:"store_name,omitempty" validate:"omitempty,min=1,max=200"`
	CostPerItem *decimal.Decimal `json:"cost_per_item,omitempty" validate:"omitempty,gt=0"`
	AmountPaid  *decimal.Decimal `json:"amount_paid,omitempty" validate:"omitempty,gte=0"`
	SoldPrice   *decimal.Decimal `json:"sold_price,omitempty" validate:"omitempty,gte=0"`
	Status      *Status          `json:"status,omitempty" validate:"omitempty,oneof=Pending Delivered Sold"`
	ReleaseDate *Date            `json:"release_date,omitempty"`
	OrderDate   *Date            `json:"order_date,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u OrderUpdate) IsEmpty() bool {
	return u.ProductName == nil && u.ProductURL == nil && u.Quantity == nil &&
		u.StoreName == nil && u.CostPerItem == nil && u.AmountPaid == nil &&
		u.SoldPrice == nil && u.Status == nil && u.ReleaseDate == nil &&
		u.OrderDate == nil && u.Notes == nil
}

// ApplyTo returns a copy of o with the update's non-nil fields applied.
// Server-computed fields are cleared because they may no longer hold.
func (u OrderUpdate) ApplyTo(o Order) Order {
	if u.ProductName != nil {
		o.ProductName = *u.ProductName
	}
	if u.ProductURL != nil {
		o.ProductURL = u.ProductURL
	}
	if u.Quantity != nil {
		o.Quantity = *u.Quantity
	}
	if u.StoreName != nil {
		o.StoreName = *u.StoreName
	}
	if u.CostPerItem != nil {
		o.CostPerItem = *u.CostPerItem
	}
	if u.AmountPaid != nil {
		o.AmountPaid = *u.AmountPaid
	}
	if u.SoldPrice != nil {
		o.SoldPrice = u.SoldPrice
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.ReleaseDate != nil {
		o.ReleaseDate = u.ReleaseDate
	}
	if u.OrderDate != nil {
		o.OrderDate = *u.OrderDate
	}
	if u.Notes != nil {
		o.Notes = u.Notes
	}
	o.TotalCost = nil
	o.AmountOwing = nil
	o.Profit = nil
	o.ProfitMargin = nil
	return o
}
