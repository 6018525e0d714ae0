package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/app"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/hcl_adapter"
	"github.com/vk/nodegraph/internal/nodetype"
)

// NewCoreRegistry returns a validated registry holding the core modules plus
// extra. flow.print output goes to out, or is discarded when out is nil.
func NewCoreRegistry(t *testing.T, out io.Writer, extra ...nodetype.Module) *nodetype.Registry {
	t.Helper()
	if out == nil {
		out = io.Discard
	}
	modules := append(app.CoreModules(out), extra...)
	reg, _, err := app.LoadRegistry(context.Background(), hcl_adapter.NewLoader(), modules)
	require.NoError(t, err)
	return reg
}

// NewCoreGraph returns an empty graph over NewCoreRegistry.
func NewCoreGraph(t *testing.T, out io.Writer, opts ...graph.GraphOption) *graph.Graph {
	t.Helper()
	reg := NewCoreRegistry(t, out)
	return graph.New(append([]graph.GraphOption{graph.WithKinds(reg), graph.WithDataTypes(reg.DataTypes())}, opts...)...)
}
