package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gitlab.connectwisedev.com/cars-service/models"
)

// MemoryStore is a process-local Store used for tests and local runs
// without a database. Documents are copied on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []models.Document
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) Find(ctx context.Context, filter Filter, opts FindOptions) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("find cars", err)
	}

	s.mu.RLock()
	matched := make([]models.Document, 0)
	for _, d := range s.docs {
		if matches(d, filter) {
			matched = append(matched, copyDocument(d))
		}
	}
	s.mu.RUnlock()

	if opts.SortField != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][opts.SortField], matched[j][opts.SortField]
			if opts.SortDescending {
				a, b = b, a
			}
			return lessValue(a, b)
		})
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	docs, err := s.Find(ctx, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs[0], nil
}

func (s *MemoryStore) InsertOne(ctx context.Context, doc models.Document) error {
	return s.InsertMany(ctx, []models.Document{doc})
}

// InsertMany inserts all documents or none
func (s *MemoryStore) InsertMany(ctx context.Context, docs []models.Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("insert cars", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[interface{}]bool, len(s.docs)+len(docs))
	for _, d := range s.docs {
		seen[d[models.KeyField]] = true
	}
	for _, d := range docs {
		key, ok := d[models.KeyField].(string)
		if !ok || key == "" {
			return fmt.Errorf("insert cars: document has no string primary key")
		}
		if seen[key] {
			return fmt.Errorf("insert cars: %w", ErrDuplicateKey)
		}
		seen[key] = true
	}

	for _, d := range docs {
		s.docs = append(s.docs, copyDocument(d))
	}
	return nil
}

func (s *MemoryStore) CountDocuments(ctx context.Context, filter Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("count cars", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func matches(d models.Document, f Filter) bool {
	for field, want := range f.Equals {
		got, ok := d[field]
		if !ok || got != want {
			return false
		}
	}

	if f.Text == nil {
		return true
	}
	query := strings.ToLower(f.Text.Query)
	for _, field := range f.Text.Fields {
		if s, ok := d[field].(string); ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func lessValue(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}

func copyDocument(d models.Document) models.Document {
	out := make(models.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
