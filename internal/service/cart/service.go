// Package cart implements the cart operations: create, add, read with
// computed totals, quantity update, item removal, typed partial update, and
// clear. Every mutation is a single atomic read-modify-write keyed by
// cart_id; nothing is cached in process between calls.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cartkit/internal/domain"
	"cartkit/internal/pricing"
	cartrepo "cartkit/internal/repository/cart"
)

type Service struct {
	repo   cartrepo.Repository
	engine *pricing.Engine
	now    func() time.Time
}

func New(repo cartrepo.Repository, engine *pricing.Engine) *Service {
	return &Service{repo: repo, engine: engine, now: time.Now}
}

// Owner carries the cart owner fields applied when an operation implicitly
// creates the cart.
type Owner struct {
	CustomerID string
	Email      string
}

// Create stores an empty cart under the caller-assigned id, replacing any
// cart already stored there.
func (s *Service) Create(ctx context.Context, cartID string, owner Owner) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, fmt.Errorf("%w: cart_id required", domain.ErrInvalidArgument)
	}
	now := s.now().UTC()
	c := &domain.Cart{
		CartID:     cartID,
		CustomerID: owner.CustomerID,
		Email:      owner.Email,
		Items:      []domain.LineItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem merges item into the cart by item_id: an existing line gains the
// incoming quantity, a new line is appended in insertion order. A missing
// cart is implicitly created with the owner fields.
func (s *Service) AddItem(ctx context.Context, cartID string, item domain.LineItem, owner Owner) (*domain.Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, fmt.Errorf("%w: cart_id required", domain.ErrInvalidArgument)
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, cartID, func(c *domain.Cart, exists bool) error {
		now := s.now().UTC()
		if !exists {
			c.CustomerID = owner.CustomerID
			c.Email = owner.Email
			c.CreatedAt = now
		}
		c.MergeItem(item)
		c.UpdatedAt = now
		return nil
	})
}

// Get fetches the cart and recomputes totals from current unit prices. Cart
// totals are never stored; only orders freeze them.
func (s *Service) Get(ctx context.Context, cartID string) (*domain.PricedCart, error) {
	c, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return &domain.PricedCart{
		Cart:   *c,
		Totals: s.engine.Compute(c.Items, c.ShippingMethod),
	}, nil
}

// UpdateQuantity sets the quantity of the line matching itemID to an
// absolute value. Non-positive quantities are rejected before any store
// access, so a failed call leaves the cart unmodified.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	return s.repo.Mutate(ctx, cartID, func(c *domain.Cart, exists bool) error {
		if !exists {
			return fmt.Errorf("%w: cart %q", domain.ErrNotFound, cartID)
		}
		if err := c.SetItemQuantity(itemID, quantity); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// RemoveItem drops the line matching itemID, preserving the order of the
// remaining lines.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	return s.repo.Mutate(ctx, cartID, func(c *domain.Cart, exists bool) error {
		if !exists {
			return fmt.Errorf("%w: cart %q", domain.ErrNotFound, cartID)
		}
		if err := c.RemoveItem(itemID); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// UpdateDetails merges the patch into the stored cart. Only the fields the
// patch carries change; items and identity are untouchable through it.
func (s *Service) UpdateDetails(ctx context.Context, cartID string, patch domain.CartPatch) (*domain.Cart, error) {
	if patch.IsZero() {
		return nil, fmt.Errorf("%w: empty patch", domain.ErrInvalidArgument)
	}
	return s.repo.Mutate(ctx, cartID, func(c *domain.Cart, exists bool) error {
		if !exists {
			return fmt.Errorf("%w: cart %q", domain.ErrNotFound, cartID)
		}
		patch.Apply(c)
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Clear removes the cart document. Clearing an absent cart succeeds.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.repo.Delete(ctx, cartID)
}
