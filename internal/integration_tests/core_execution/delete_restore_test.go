package core_execution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// TestCoreExecution_DeleteThenRestore verifies that deleting a node severs
// its links and that restoring its captured record brings them back.
func TestCoreExecution_DeleteThenRestore(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	out := &testutil.SafeBuffer{}
	g := testutil.NewCoreGraph(t, out, graph.WithName("edit"))
	one, err := g.CreateNode("value.numeric", map[string]cty.Value{"value": cty.NumberIntVal(2)}, graph.WithNodeName("one"))
	require.NoError(t, err)
	sum, err := g.CreateNode("math.add", nil, graph.WithNodeName("sum"))
	require.NoError(t, err)
	_, err = g.CreateNode("flow.print", nil, graph.WithNodeName("show"))
	require.NoError(t, err)
	for _, link := range [][2]string{{"one.out", "sum.a"}, {"one.out", "sum.b"}, {"sum.result", "show.value"}} {
		ok, err := g.ConnectRefs(link[0], link[1])
		require.NoError(t, err)
		require.True(t, ok, "link %s -> %s", link[0], link[1])
	}
	require.Contains(t, out.String(), "show: 4\n")
	captured := sum.Serialize()

	// --- Act ---
	require.NoError(t, g.DeleteNode("sum"))

	// --- Assert ---
	assert.Empty(t, g.Connectors())
	assert.False(t, one.Output("out").IsConnected())

	// --- Act ---
	restored, err := g.RestoreNode(captured)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, sum.ID(), restored.ID())
	assert.Len(t, g.Connectors(), 3)
	one.Output("out").SetValue(cty.NumberIntVal(5))
	assert.Contains(t, out.String(), "show: 10\n")
}

// TestCoreExecution_RegistryTypes checks the core registry exposes every
// built-in module's node types.
func TestCoreExecution_RegistryTypes(t *testing.T) {
	t.Parallel()
	reg := testutil.NewCoreRegistry(t, nil)
	for _, typ := range []string{"math.add", "value.string", "strings.join", "flow.timer", "env.var"} {
		_, ok := reg.Kind(typ)
		assert.True(t, ok, "missing %s", typ)
	}
}
