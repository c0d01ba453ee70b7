package cart

import (
	"context"

	"cartkit/internal/domain"
)

// MutateFunc edits a cart in place inside an atomic read-modify-write.
// exists reports whether the cart was already stored; fn may initialize a
// fresh cart when it was not. Returning an error aborts the write and leaves
// the stored cart untouched.
type MutateFunc func(c *domain.Cart, exists bool) error

type Repository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Cart, error)
	// Delete is idempotent; deleting an absent cart is not an error.
	Delete(ctx context.Context, id string) error
}
