package value

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/hcl_adapter"
	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
)

func newGraph(t *testing.T, opts ...graph.GraphOption) *graph.Graph {
	t.Helper()
	ctx := context.Background()
	r := nodetype.New(nil)
	r.RegisterModules(&Module{})
	model, err := r.LoadManifests(ctx, hcl_adapter.NewLoader())
	require.NoError(t, err)
	require.NoError(t, r.PopulateDefinitionsFromModel(model))
	require.NoError(t, r.ValidateRegistry(ctx))
	return graph.New(append([]graph.GraphOption{graph.WithKinds(r), graph.WithDataTypes(r.DataTypes())}, opts...)...)
}

func TestConstants(t *testing.T) {
	tests := []struct {
		nodeType string
		in       cty.Value
		want     cty.Value
	}{
		{nodeType: "value.numeric", in: cty.StringVal("3"), want: cty.NumberIntVal(3)},
		{nodeType: "value.string", in: cty.NumberIntVal(3), want: cty.StringVal("3")},
		{nodeType: "value.boolean", in: cty.StringVal("true"), want: cty.True},
	}
	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			g := newGraph(t)
			n, err := g.CreateNode(tt.nodeType, map[string]cty.Value{"value": tt.in})
			require.NoError(t, err)
			got := n.Output("out").Value()
			assert.True(t, got.RawEquals(tt.want), "got %#v", got)
		})
	}
}

func TestConstantUnderPull(t *testing.T) {
	g := newGraph(t, graph.WithEvaluationModel(graph.Pull))
	n, err := g.CreateNode("value.numeric", map[string]cty.Value{"value": cty.NumberIntVal(8)})
	require.NoError(t, err)
	assert.Equal(t, 0, n.EvalCount())
	assert.True(t, n.Output("out").Value().RawEquals(cty.NumberIntVal(8)))
	assert.Equal(t, 1, n.EvalCount())
}
