package cart

import (
	"context"

	"cartkit/internal/docstore"
	"cartkit/internal/domain"
)

type docstoreRepo struct {
	store docstore.Store
}

// NewDocstore builds a cart repository on top of any document store.
func NewDocstore(store docstore.Store) Repository {
	return &docstoreRepo{store: store}
}

func (r *docstoreRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionCarts, id)
	if err != nil {
		return nil, err
	}
	var c domain.Cart
	if err := docstore.Decode(doc, &c); err != nil {
		return nil, err
	}
	c.CartID = id
	return &c, nil
}

func (r *docstoreRepo) Save(ctx context.Context, c *domain.Cart) error {
	doc, err := docstore.Encode(c)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, docstore.CollectionCarts, c.CartID, doc)
}

func (r *docstoreRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Cart, error) {
	var out *domain.Cart
	_, err := r.store.Update(ctx, docstore.CollectionCarts, id, func(cur docstore.Document) (docstore.Document, error) {
		c := &domain.Cart{CartID: id}
		exists := cur != nil
		if exists {
			if err := docstore.Decode(cur, c); err != nil {
				return nil, err
			}
			c.CartID = id
		}
		if err := fn(c, exists); err != nil {
			return nil, err
		}
		c.Normalize()
		out = c
		return docstore.Encode(c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *docstoreRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, docstore.CollectionCarts, id)
}
