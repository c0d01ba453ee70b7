// Package order derives immutable order snapshots from carts and serves the
// access-controlled order queries. Order totals are frozen at creation with
// the checkout rates, which deliberately differ from the cart preview rates.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cartkit/internal/access"
	"cartkit/internal/domain"
	"cartkit/internal/idgen"
	"cartkit/internal/pricing"
	cartrepo "cartkit/internal/repository/cart"
	orderrepo "cartkit/internal/repository/order"
)

const orderIDPrefix = "order_"

type Service struct {
	orders orderrepo.Repository
	carts  cartrepo.Repository
	engine *pricing.Engine
	newID  func() string
	now    func() time.Time
}

func New(orders orderrepo.Repository, carts cartrepo.Repository, engine *pricing.Engine) *Service {
	return &Service{
		orders: orders,
		carts:  carts,
		engine: engine,
		newID:  func() string { return idgen.New(orderIDPrefix) },
		now:    time.Now,
	}
}

// Create snapshots the cart into a new order: items are deep-copied, totals
// are computed once with the order engine and frozen, and a fresh order id
// is assigned. The source cart is left untouched; deleting it later does not
// affect the order.
func (s *Service) Create(ctx context.Context, userID, cartID string) (*domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id required", domain.ErrInvalidArgument)
	}
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	items := c.CloneItems()
	totals := s.engine.Compute(items, c.ShippingMethod)

	o := &domain.Order{
		OrderID:           s.newID(),
		UserID:            userID,
		CartID:            cartID,
		Email:             c.Email,
		LineItems:         items,
		Subtotal:          totals.Subtotal,
		TaxTotal:          totals.TaxTotal,
		DeliveryFee:       totals.DeliveryFee,
		Total:             totals.Total,
		Status:            domain.OrderStatusPending,
		FulfillmentStatus: domain.FulfillmentNotFulfilled,
		PaymentStatus:     domain.PaymentStatusAwaiting,
		ShippingMethod:    c.ShippingMethod,
		ShippingAddress:   c.ShippingAddress,
		BillingAddress:    c.BillingAddress,
		PaymentSession:    c.PaymentSession,
		Fulfillments:      []map[string]any{},
		CreatedAt:         s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get returns the order if the requester owns it or is an admin.
func (s *Service) Get(ctx context.Context, requesterID, orderID string, isAdmin bool) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(o.UserID, requesterID, isAdmin) {
		return nil, fmt.Errorf("%w: order %q belongs to another user", domain.ErrPermissionDenied, orderID)
	}
	return o, nil
}

// Update applies a typed patch to an order. Only admins may update orders;
// the role check runs before any store access.
func (s *Service) Update(ctx context.Context, orderID string, patch domain.OrderPatch, isAdmin bool) (*domain.Order, error) {
	if !access.CanUpdate(isAdmin) {
		return nil, fmt.Errorf("%w: only admins may update orders", domain.ErrPermissionDenied)
	}
	if patch.IsZero() {
		return nil, fmt.Errorf("%w: empty patch", domain.ErrInvalidArgument)
	}
	return s.orders.Mutate(ctx, orderID, func(o *domain.Order) error {
		patch.Apply(o)
		return nil
	})
}

// List returns orders visible to the requester, creation time ascending.
// Admins see every order; everyone else sees only their own. A blank
// requester without the admin role is rejected rather than treated as
// unscoped.
func (s *Service) List(ctx context.Context, requesterID string, isAdmin bool) ([]domain.Order, error) {
	f := orderrepo.Filter{}
	if !isAdmin {
		if strings.TrimSpace(requesterID) == "" {
			return nil, fmt.Errorf("%w: requester id required", domain.ErrInvalidArgument)
		}
		f.UserID = requesterID
	}
	return s.orders.List(ctx, f)
}

// Page is one page of an order listing with pagination metadata.
type Page struct {
	Orders     []domain.Order `json:"orders"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalCount int            `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

// ListPage returns one page of the listing visible to the requester, with
// total_pages = ceil(total_count/limit) and offset (page-1)*limit.
func (s *Service) ListPage(ctx context.Context, requesterID string, isAdmin bool, page, limit int) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be positive", domain.ErrInvalidArgument)
	}
	userID := ""
	if !isAdmin {
		if strings.TrimSpace(requesterID) == "" {
			return nil, fmt.Errorf("%w: requester id required", domain.ErrInvalidArgument)
		}
		userID = requesterID
	}

	total, err := s.orders.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, orderrepo.Filter{
		UserID: userID,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &Page{
		Orders:     orders,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}
