package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in a cart or order. ItemID is the canonical
// identity key for merge, quantity-set, and remove; ProductID is catalog
// metadata carried along with the item.
type LineItem struct {
	ItemID      string          `json:"item_id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Slug        string          `json:"slug"`
	Image       string          `json:"image,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Validate reports ErrInvalidArgument for items that must never enter a cart.
func (li LineItem) Validate() error {
	switch {
	case strings.TrimSpace(li.ItemID) == "":
		return fmt.Errorf("%w: item_id required", ErrInvalidArgument)
	case strings.TrimSpace(li.ProductID) == "":
		return fmt.Errorf("%w: product_id required", ErrInvalidArgument)
	case strings.TrimSpace(li.Name) == "":
		return fmt.Errorf("%w: name required", ErrInvalidArgument)
	case strings.TrimSpace(li.Slug) == "":
		return fmt.Errorf("%w: slug required", ErrInvalidArgument)
	case li.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	case li.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit_price must not be negative", ErrInvalidArgument)
	}
	return nil
}

// Cart is the mutable pre-checkout document. Totals are never stored on it;
// they are recomputed from Items on every read.
type Cart struct {
	CartID          string         `json:"cart_id"`
	CustomerID      string         `json:"customer_id,omitempty"`
	Email           string         `json:"email,omitempty"`
	Items           []LineItem     `json:"items"`
	ShippingMethod  map[string]any `json:"shipping_method,omitempty"`
	ShippingAddress map[string]any `json:"shipping_address,omitempty"`
	BillingAddress  map[string]any `json:"billing_address,omitempty"`
	PaymentSession  map[string]any `json:"payment_session,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MergeItem folds item into the cart: if a line with the same item_id exists,
// its quantity is incremented by item.Quantity (first match wins, position
// preserved); otherwise item is appended.
func (c *Cart) MergeItem(item LineItem) {
	for i := range c.Items {
		if c.Items[i].ItemID == item.ItemID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// SetItemQuantity replaces the quantity of the first line matching itemID.
// The new quantity is an absolute value, not an increment.
func (c *Cart) SetItemQuantity(itemID string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("%w: item %q not in cart", ErrNotFound, itemID)
}

// RemoveItem drops every line matching itemID, preserving the relative order
// of the remaining lines.
func (c *Cart) RemoveItem(itemID string) error {
	kept := c.Items[:0:0]
	for _, li := range c.Items {
		if li.ItemID != itemID {
			kept = append(kept, li)
		}
	}
	if len(kept) == len(c.Items) {
		return fmt.Errorf("%w: item %q not in cart", ErrNotFound, itemID)
	}
	c.Items = kept
	return nil
}

// Normalize drops any line whose quantity has reached zero or below. A cart
// never persists a zero-quantity line.
func (c *Cart) Normalize() {
	kept := c.Items[:0:0]
	for _, li := range c.Items {
		if li.Quantity > 0 {
			kept = append(kept, li)
		}
	}
	c.Items = kept
}

// CloneItems returns a copy of the cart's items that later cart mutations
// cannot reach.
func (c *Cart) CloneItems() []LineItem {
	if len(c.Items) == 0 {
		return nil
	}
	out := make([]LineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// CartPatch is a typed partial update for a cart. Only the fields a caller is
// allowed to overwrite are representable; cart_id, items, and timestamps are
// not patchable.
type CartPatch struct {
	CustomerID      *string        `json:"customer_id,omitempty"`
	Email           *string        `json:"email,omitempty"`
	ShippingMethod  map[string]any `json:"shipping_method,omitempty"`
	ShippingAddress map[string]any `json:"shipping_address,omitempty"`
	BillingAddress  map[string]any `json:"billing_address,omitempty"`
	PaymentSession  map[string]any `json:"payment_session,omitempty"`
}

// IsZero reports whether the patch sets no fields at all.
func (p CartPatch) IsZero() bool {
	return p.CustomerID == nil && p.Email == nil &&
		p.ShippingMethod == nil && p.ShippingAddress == nil &&
		p.BillingAddress == nil && p.PaymentSession == nil
}

// Apply overwrites exactly the fields the patch carries, leaving every other
// cart field untouched.
func (p CartPatch) Apply(c *Cart) {
	if p.CustomerID != nil {
		c.CustomerID = *p.CustomerID
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.ShippingMethod != nil {
		c.ShippingMethod = p.ShippingMethod
	}
	if p.ShippingAddress != nil {
		c.ShippingAddress = p.ShippingAddress
	}
	if p.BillingAddress != nil {
		c.BillingAddress = p.BillingAddress
	}
	if p.PaymentSession != nil {
		c.PaymentSession = p.PaymentSession
	}
}

// Totals is the derived pricing of a set of line items. It is computed on
// read for carts and frozen at creation for orders.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// PricedCart is a cart together with totals computed at read time.
type PricedCart struct {
	Cart
	Totals
}
