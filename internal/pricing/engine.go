// Package pricing derives subtotal, tax, delivery fee, and total from a list
// of line items. All arithmetic is decimal; binary floats never touch money.
package pricing

import (
	"cartkit/internal/domain"
	"github.com/shopspring/decimal"
)

// currencyPlaces is the decimal precision of currency amounts; tax is rounded
// to it so repeated recomputation of the same input never drifts.
const currencyPlaces = 2

// FeePolicy decides the delivery fee for a computation. The policy is fixed
// at engine construction; callers cannot override it per call.
type FeePolicy interface {
	fee(shippingMethod map[string]any) decimal.Decimal
}

type flatFee struct {
	amount decimal.Decimal
}

// FlatFee charges a fixed delivery fee regardless of shipping method.
func FlatFee(amount decimal.Decimal) FeePolicy {
	return flatFee{amount: amount}
}

func (f flatFee) fee(map[string]any) decimal.Decimal {
	return f.amount
}

type methodFee struct{}

// MethodFee reads the delivery fee from the shipping method's "amount" field,
// defaulting to zero when the field is absent or unparseable.
func MethodFee() FeePolicy {
	return methodFee{}
}

func (methodFee) fee(shippingMethod map[string]any) decimal.Decimal {
	amount, ok := shippingMethod["amount"]
	if !ok {
		return decimal.Zero
	}
	switch v := amount.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case decimal.Decimal:
		return v
	default:
		return decimal.Zero
	}
}

// Engine computes totals with an immutable tax rate and fee policy. Cart
// preview and order checkout run separately configured engines, so their
// rates may legitimately differ.
type Engine struct {
	taxRate decimal.Decimal
	policy  FeePolicy
}

func New(taxRate decimal.Decimal, policy FeePolicy) *Engine {
	return &Engine{taxRate: taxRate, policy: policy}
}

// Compute returns the derived totals for items. An empty item list yields a
// zero subtotal; the delivery fee still applies per the engine's policy.
func (e *Engine) Compute(items []domain.LineItem, shippingMethod map[string]any) domain.Totals {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	taxTotal := subtotal.Mul(e.taxRate).Round(currencyPlaces)
	deliveryFee := e.policy.fee(shippingMethod)
	return domain.Totals{
		Subtotal:    subtotal,
		TaxTotal:    taxTotal,
		DeliveryFee: deliveryFee,
		Total:       subtotal.Add(taxTotal).Add(deliveryFee),
	}
}
