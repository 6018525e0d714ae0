package flow

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/hcl_adapter"
	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
)

func newGraph(t *testing.T, out *bytes.Buffer, opts ...graph.GraphOption) *graph.Graph {
	t.Helper()
	ctx := context.Background()
	r := nodetype.New(nil)
	r.RegisterModules(&Module{Out: out})
	model, err := r.LoadManifests(ctx, hcl_adapter.NewLoader())
	require.NoError(t, err)
	require.NoError(t, r.PopulateDefinitionsFromModel(model))
	require.NoError(t, r.ValidateRegistry(ctx))
	return graph.New(append([]graph.GraphOption{graph.WithKinds(r), graph.WithDataTypes(r.DataTypes())}, opts...)...)
}

func create(t *testing.T, g *graph.Graph, nodeType, name string, values map[string]cty.Value) *graph.Node {
	t.Helper()
	n, err := g.CreateNode(nodeType, values, graph.WithNodeName(name))
	require.NoError(t, err)
	return n
}

func connect(t *testing.T, g *graph.Graph, from, to string) {
	t.Helper()
	ok, err := g.ConnectRefs(from, to)
	require.NoError(t, err)
	require.True(t, ok, "connect %s -> %s", from, to)
}

func TestPrint_Unconnected(t *testing.T) {
	var out bytes.Buffer
	g := newGraph(t, &out)
	create(t, g, "flow.print", "log", map[string]cty.Value{"value": cty.StringVal("hello")})

	assert.Equal(t, "log: hello\n", out.String())
}

func TestPrint_ExecDriven(t *testing.T) {
	var out bytes.Buffer
	g := newGraph(t, &out)
	create(t, g, "flow.print", "first", nil)
	second := create(t, g, "flow.print", "second", nil)
	connect(t, g, "first.outExec", "second.inExec")

	first, _ := g.Node("first")
	first.Input("value").SetValue(cty.NumberIntVal(7))
	second.Input("value").SetValue(cty.ListVal([]cty.Value{cty.StringVal("a")}))
	assert.Equal(t, "first: 7\n", out.String(), "second is exec-driven and must not print on value writes")

	out.Reset()
	require.NoError(t, first.Input("inExec").Call())
	assert.Equal(t, "first: 7\nsecond: [\"a\"]\n", out.String())
}

func TestBranch(t *testing.T) {
	tests := []struct {
		name string
		cond cty.Value
		want string
	}{
		{name: "true", cond: cty.True, want: "yes: taken\n"},
		{name: "false", cond: cty.False, want: "no: taken\n"},
		{name: "null reads as false", cond: cty.NullVal(cty.Bool), want: "no: taken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			g := newGraph(t, &out)
			branch := create(t, g, "flow.branch", "branch", nil)
			yes := create(t, g, "flow.print", "yes", nil)
			no := create(t, g, "flow.print", "no", nil)
			connect(t, g, "branch.true", "yes.inExec")
			connect(t, g, "branch.false", "no.inExec")
			yes.Input("value").SetValue(cty.StringVal("taken"))
			no.Input("value").SetValue(cty.StringVal("taken"))

			branch.Input("condition").SetValue(tt.cond)
			require.NoError(t, branch.Input("inExec").Call())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestTimer_FiresAtInterval(t *testing.T) {
	var out bytes.Buffer
	g := newGraph(t, &out)
	timer := create(t, g, "flow.timer", "clock", nil)
	create(t, g, "flow.print", "log", nil)
	connect(t, g, "clock.outExec", "log.inExec")
	connect(t, g, "clock.elapsed", "log.value")

	for i := 0; i < 8; i++ {
		require.NoError(t, g.Tick(0.25))
	}

	assert.Equal(t, "log: 1\nlog: 2\n", out.String())
	assert.True(t, timer.Output("elapsed").Value().RawEquals(cty.NumberFloatVal(2)))
}

func TestTimer_NonPositiveIntervalNeverFires(t *testing.T) {
	var out bytes.Buffer
	g := newGraph(t, &out)
	create(t, g, "flow.timer", "clock", map[string]cty.Value{"interval": cty.Zero})
	create(t, g, "flow.print", "log", nil)
	connect(t, g, "clock.outExec", "log.inExec")

	require.NoError(t, g.Tick(5))
	assert.Empty(t, out.String())
}
