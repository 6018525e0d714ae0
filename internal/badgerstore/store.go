// Package badgerstore provides a graphstore.Store backed by BadgerDB, for
// graph records that must survive a restart.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/graphstore"
)

// prefixGraph namespaces graph records in the key space.
const prefixGraph = "g:"

// Store is a BadgerDB-backed graphstore.Store. It is safe for concurrent use;
// Badger serializes conflicting transactions.
type Store struct {
	db *badger.DB
}

var _ graphstore.Store = (*Store)(nil)

// Open opens or creates the database in dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger DB: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(key string) []byte {
	return []byte(prefixGraph + key)
}

// Save stores rec under its key.
func (s *Store) Save(ctx context.Context, rec *graph.Record) error {
	key, err := graphstore.Key(rec)
	if err != nil {
		return err
	}
	data, err := graph.Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding graph %q: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(key), data); err != nil {
			return fmt.Errorf("setting graph %q: %w", key, err)
		}
		return nil
	})
}

// Load reads the record stored under key.
func (s *Store) Load(ctx context.Context, key string) (*graph.Record, error) {
	var rec *graph.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %q", graphstore.ErrNotFound, key)
		}
		if err != nil {
			return fmt.Errorf("getting graph %q: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			rec, err = graph.ParseRecord(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the stored keys in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGraph)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), prefixGraph))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the record stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %q", graphstore.ErrNotFound, key)
		} else if err != nil {
			return fmt.Errorf("getting graph %q: %w", key, err)
		}
		return txn.Delete(recordKey(key))
	})
}
