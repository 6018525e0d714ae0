// Package storetest holds a conformance suite for graphstore.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/graphstore"
)

// Run exercises a graphstore.Store implementation. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) graphstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		rec := sampleRecord("demo")
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Load(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("stored copy is private", func(t *testing.T) {
		s := newStore(t)
		rec := sampleRecord("demo")
		require.NoError(t, s.Save(ctx, rec))
		rec.Name = "changed"

		got, err := s.Load(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, "demo", got.Name)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, sampleRecord("demo")))
		next := sampleRecord("demo")
		next.EvaluationModel = graph.Pull
		require.NoError(t, s.Save(ctx, next))

		got, err := s.Load(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, graph.Pull, got.EvaluationModel)
	})

	t.Run("list is sorted", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"b", "c", "a"} {
			require.NoError(t, s.Save(ctx, sampleRecord(name)))
		}
		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, sampleRecord("demo")))
		require.NoError(t, s.Delete(ctx, "demo"))

		_, err := s.Load(ctx, "demo")
		assert.ErrorIs(t, err, graphstore.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "demo"), graphstore.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "nope")
		assert.ErrorIs(t, err, graphstore.ErrNotFound)
		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("anonymous record rejected", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Save(ctx, &graph.Record{}), graph.ErrMalformedSerialization)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, sampleRecord(fmt.Sprintf("g%02d", i))))
			}(i)
		}
		wg.Wait()
		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 20)
	})
}

func sampleRecord(name string) *graph.Record {
	return &graph.Record{
		DataType:        graph.RecordDataType,
		Version:         graph.RecordVersion,
		UUID:            "uuid-" + name,
		Name:            name,
		EvaluationModel: graph.Push,
		Nodes: map[string]graph.NodeRecord{
			"n1": {
				Type:    "value.numeric",
				Name:    "one",
				Enabled: true,
				Inputs: map[string]graph.PortRecord{
					"p1": {UUID: "p1", Name: "value", Value: float64(1), Sources: []string{}},
				},
				Outputs: map[string]graph.PortRecord{
					"p2": {UUID: "p2", Name: "out", Value: float64(1), Sources: []string{}},
				},
			},
		},
	}
}
