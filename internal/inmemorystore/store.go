package inmemorystore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/graphstore"
)

// Store is an in-memory implementation of graphstore.Store.
//
// records maps a record key to its encoded JSON form.
type Store struct {
	records sync.Map // Key: record key string, Value: []byte
}

var _ graphstore.Store = (*Store)(nil)

// New creates a new, empty in-memory graph store.
func New() *Store {
	return &Store{}
}

// Save stores an encoded copy of rec.
func (s *Store) Save(ctx context.Context, rec *graph.Record) error {
	key, err := graphstore.Key(rec)
	if err != nil {
		return err
	}
	data, err := graph.Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding graph %q: %w", key, err)
	}
	s.records.Store(key, data)
	return nil
}

// Load decodes the record stored under key.
func (s *Store) Load(ctx context.Context, key string) (*graph.Record, error) {
	data, ok := s.records.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", graphstore.ErrNotFound, key)
	}
	return graph.ParseRecord(data.([]byte))
}

// List returns the stored keys in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys := []string{}
	s.records.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the record stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, loaded := s.records.LoadAndDelete(key); !loaded {
		return fmt.Errorf("%w: %q", graphstore.ErrNotFound, key)
	}
	return nil
}
