package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values stamped on a freshly derived order.
const (
	OrderStatusPending      = "pending"
	FulfillmentNotFulfilled = "not_fulfilled"
	PaymentStatusAwaiting   = "awaiting"
)

// Order is an immutable-at-creation snapshot of a cart. LineItems and totals
// are frozen when the order is derived and never recomputed; CartID is an
// informational back-reference, so deleting the source cart leaves the order
// intact. Post-creation changes go through OrderPatch only.
type Order struct {
	OrderID           string           `json:"order_id"`
	UserID            string           `json:"user_id"`
	CartID            string           `json:"cart_id"`
	Email             string           `json:"email,omitempty"`
	LineItems         []LineItem       `json:"line_items"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	TaxTotal          decimal.Decimal  `json:"tax_total"`
	DeliveryFee       decimal.Decimal  `json:"delivery_fee"`
	Total             decimal.Decimal  `json:"total"`
	Status            string           `json:"status"`
	FulfillmentStatus string           `json:"fulfillment_status"`
	PaymentStatus     string           `json:"payment_status"`
	ShippingMethod    map[string]any   `json:"shipping_method,omitempty"`
	ShippingAddress   map[string]any   `json:"shipping_address,omitempty"`
	BillingAddress    map[string]any   `json:"billing_address,omitempty"`
	PaymentSession    map[string]any   `json:"payment_session,omitempty"`
	Fulfillments      []map[string]any `json:"fulfillments"`
	CreatedAt         time.Time        `json:"created_at"`
}

// OrderPatch is a typed partial update for an order. Identity, line items,
// and frozen totals are not patchable; fulfillments can only be appended.
type OrderPatch struct {
	Status            *string          `json:"status,omitempty"`
	FulfillmentStatus *string          `json:"fulfillment_status,omitempty"`
	PaymentStatus     *string          `json:"payment_status,omitempty"`
	ShippingAddress   map[string]any   `json:"shipping_address,omitempty"`
	BillingAddress    map[string]any   `json:"billing_address,omitempty"`
	AddFulfillments   []map[string]any `json:"add_fulfillments,omitempty"`
}

// IsZero reports whether the patch sets no fields at all.
func (p OrderPatch) IsZero() bool {
	return p.Status == nil && p.FulfillmentStatus == nil && p.PaymentStatus == nil &&
		p.ShippingAddress == nil && p.BillingAddress == nil && len(p.AddFulfillments) == 0
}

// Apply overwrites exactly the fields the patch carries and appends any new
// fulfillment records in the order given.
func (p OrderPatch) Apply(o *Order) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.FulfillmentStatus != nil {
		o.FulfillmentStatus = *p.FulfillmentStatus
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.ShippingAddress != nil {
		o.ShippingAddress = p.ShippingAddress
	}
	if p.BillingAddress != nil {
		o.BillingAddress = p.BillingAddress
	}
	o.Fulfillments = append(o.Fulfillments, p.AddFulfillments...)
}
