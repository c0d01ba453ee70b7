// Package docstore defines the document-store port the cart/order façade is
// written against, plus adapters for Postgres and an in-memory map. Any store
// that can get, set, delete, and query keyed documents can satisfy it.
package docstore

import "context"

// Document is one stored record: a flat bag of JSON-compatible values keyed
// by field name.
type Document = map[string]any

// Query selects documents within a collection. FieldEquals entries match on
// string equality of top-level fields; OrderBy sorts ascending by a
// top-level field; Limit <= 0 means no limit.
type Query struct {
	FieldEquals map[string]string
	OrderBy     string
	Limit       int
	Offset      int
}

// UpdateFunc transforms a document inside an atomic read-modify-write. cur is
// nil when the document does not exist yet. Returning an error aborts the
// update and leaves the store untouched.
type UpdateFunc func(cur Document) (Document, error)

// Store reads and writes keyed documents grouped into collections: get, set,
// delete, and query, plus Count for pagination and Update for atomic
// read-modify-write per id.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	// Delete is idempotent: deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, fieldEquals map[string]string) (int, error)
	Update(ctx context.Context, collection, id string, fn UpdateFunc) (Document, error)
}

// Collection names used by this module.
const (
	CollectionCarts  = "carts"
	CollectionOrders = "orders"
)
