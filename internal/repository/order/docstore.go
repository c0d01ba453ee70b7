package order

import (
	"context"
	"fmt"

	"cartkit/internal/docstore"
	"cartkit/internal/domain"
)

type docstoreRepo struct {
	store docstore.Store
}

// NewDocstore builds an order repository on top of any document store.
func NewDocstore(store docstore.Store) Repository {
	return &docstoreRepo{store: store}
}

func (r *docstoreRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionOrders, id)
	if err != nil {
		return nil, err
	}
	return decodeOrder(doc, id)
}

// Create writes the order only if its id is unused. Orders are written
// exactly once; a colliding id must never overwrite an existing order.
func (r *docstoreRepo) Create(ctx context.Context, o *domain.Order) error {
	doc, err := docstore.Encode(o)
	if err != nil {
		return err
	}
	_, err = r.store.Update(ctx, docstore.CollectionOrders, o.OrderID, func(cur docstore.Document) (docstore.Document, error) {
		if cur != nil {
			return nil, fmt.Errorf("%w: order %q already exists", domain.ErrInvalidArgument, o.OrderID)
		}
		return doc, nil
	})
	return err
}

func (r *docstoreRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Order, error) {
	var out *domain.Order
	_, err := r.store.Update(ctx, docstore.CollectionOrders, id, func(cur docstore.Document) (docstore.Document, error) {
		if cur == nil {
			return nil, fmt.Errorf("%w: order %q", domain.ErrNotFound, id)
		}
		o, err := decodeOrder(cur, id)
		if err != nil {
			return nil, err
		}
		if err := fn(o); err != nil {
			return nil, err
		}
		out = o
		return docstore.Encode(o)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *docstoreRepo) List(ctx context.Context, f Filter) ([]domain.Order, error) {
	q := docstore.Query{
		OrderBy: "created_at",
		Limit:   f.Limit,
		Offset:  f.Offset,
	}
	if f.UserID != "" {
		q.FieldEquals = map[string]string{"user_id": f.UserID}
	}
	docs, err := r.store.Query(ctx, docstore.CollectionOrders, q)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := decodeOrder(doc, "")
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *docstoreRepo) Count(ctx context.Context, userID string) (int, error) {
	var fieldEquals map[string]string
	if userID != "" {
		fieldEquals = map[string]string{"user_id": userID}
	}
	return r.store.Count(ctx, docstore.CollectionOrders, fieldEquals)
}

func decodeOrder(doc docstore.Document, id string) (*domain.Order, error) {
	var o domain.Order
	if err := docstore.Decode(doc, &o); err != nil {
		return nil, err
	}
	if id != "" {
		o.OrderID = id
	}
	return &o, nil
}
