// Package graphstore defines the interface for persisting serialized graphs.
//
// Records are keyed by graph name, falling back to the graph uuid for
// unnamed graphs. Implementations store a private copy of each record, so
// mutating a record after Save or Load never affects the stored state.
//
// See internal/inmemorystore and internal/badgerstore for implementations.
package graphstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/nodegraph/internal/graph"
)

// ErrNotFound is returned when no record is stored under a key.
var ErrNotFound = errors.New("graph record not found")

// Store persists graph records. Implementations MUST be safe for concurrent use.
type Store interface {
	// Save stores rec under Key(rec), replacing any previous record.
	Save(ctx context.Context, rec *graph.Record) error
	// Load returns the record stored under key or ErrNotFound.
	Load(ctx context.Context, key string) (*graph.Record, error)
	// List returns every stored key in ascending order.
	List(ctx context.Context) ([]string, error)
	// Delete removes the record stored under key or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// Key returns the key a record is stored under.
func Key(rec *graph.Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("%w: nil record", graph.ErrMalformedSerialization)
	}
	if rec.Name != "" {
		return rec.Name, nil
	}
	if rec.UUID != "" {
		return rec.UUID, nil
	}
	return "", fmt.Errorf("%w: record has neither name nor uuid", graph.ErrMalformedSerialization)
}
