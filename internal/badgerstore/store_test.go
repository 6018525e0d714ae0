package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/graphstore"
	"github.com/vk/nodegraph/internal/graphstore/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) graphstore.Store {
		s, err := Open("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	rec := &graph.Record{
		DataType: graph.RecordDataType,
		Version:  graph.RecordVersion,
		Name:     "kept",
		Nodes:    map[string]graph.NodeRecord{},
	}
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
}
