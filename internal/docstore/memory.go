package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cartkit/internal/domain"
)

// Memory is a mutex-guarded in-process Store used by tests and local tooling.
// Documents are deep-copied on the way in and out, and Update holds the lock
// across the whole read-modify-write, so it serializes mutations per store
// the same way the Postgres adapter does per row.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]Document

	// ForcedErr, when set, makes every operation fail with it. Tests use it
	// to exercise store-failure paths.
	ForcedErr error
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return Clone(doc), nil
}

func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.setLocked(collection, id, doc)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	var docs []Document
	for _, doc := range m.collections[collection] {
		if matches(doc, q.FieldEquals) {
			docs = append(docs, Clone(doc))
		}
	}
	if q.OrderBy != "" {
		sort.Slice(docs, func(i, j int) bool {
			return fieldString(docs[i], q.OrderBy) < fieldString(docs[j], q.OrderBy)
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(docs) {
			return nil, nil
		}
		docs = docs[q.Offset:]
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) Count(_ context.Context, collection string, fieldEquals map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return 0, m.ForcedErr
	}
	n := 0
	for _, doc := range m.collections[collection] {
		if matches(doc, fieldEquals) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fn UpdateFunc) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	var cur Document
	if doc, ok := m.collections[collection][id]; ok {
		cur = Clone(doc)
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	m.setLocked(collection, id, next)
	return Clone(next), nil
}

func (m *Memory) setLocked(collection, id string, doc Document) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	m.collections[collection][id] = Clone(doc)
}

func matches(doc Document, fieldEquals map[string]string) bool {
	for field, want := range fieldEquals {
		if fieldString(doc, field) != want {
			return false
		}
	}
	return true
}

func fieldString(doc Document, field string) string {
	v, ok := doc[field]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
