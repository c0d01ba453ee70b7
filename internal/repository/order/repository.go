package order

import (
	"context"

	"cartkit/internal/domain"
)

// Filter narrows a listing. An empty UserID means all users; Limit <= 0
// means no limit. Results are always ordered by creation time ascending.
type Filter struct {
	UserID string
	Limit  int
	Offset int
}

// MutateFunc edits an existing order in place inside an atomic
// read-modify-write. Returning an error aborts the write.
type MutateFunc func(o *domain.Order) error

type Repository interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Create(ctx context.Context, o *domain.Order) error
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Order, error)
	List(ctx context.Context, f Filter) ([]domain.Order, error)
	// Count returns the number of orders for userID, or for all users when
	// userID is empty.
	Count(ctx context.Context, userID string) (int, error)
}
