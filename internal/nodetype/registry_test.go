package nodetype

import (
	"context"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

type constBehavior struct{}

func (constBehavior) Evaluate(n *graph.Node) error {
	n.Output("out").SetValue(cty.NumberIntVal(42))
	return nil
}

func testModel() *config.Model {
	one := cty.NumberIntVal(1)
	m := config.NewModel()
	m.DataTypes["vector"] = &config.DataTypeDefinition{Name: "vector", Type: cty.List(cty.Number), Color: "#3FA9F5", Label: "Vector"}
	m.NodeTypes["test.const"] = &config.NodeTypeDefinition{
		Type:     "test.const",
		Category: "test",
		Keywords: []string{"constant", "fixed"},
		Behavior: "test.const",
		Inputs: []*config.PortDefinition{
			{Name: "seed", DataType: "numeric", Default: &one},
			{Name: "items", DataType: "vector", Structure: "array", Options: []string{"allow_multiple_connections"}},
		},
		Outputs: []*config.PortDefinition{
			{Name: "out", DataType: "numeric", Options: []string{"allow_multiple_connections"}},
		},
	}
	return m
}

func TestRegistry_DefineAndCreate(t *testing.T) {
	r := New(nil)
	r.RegisterBehavior("test.const", func() graph.Behavior { return constBehavior{} })
	require.NoError(t, r.PopulateDefinitionsFromModel(testModel()))
	require.NoError(t, r.ValidateRegistry(context.Background()))

	assert.True(t, r.DataTypes().Has("vector"))
	assert.Equal(t, []string{"test.const"}, r.Types())
	def, ok := r.Definition("test.const")
	require.True(t, ok)
	assert.Equal(t, "test", def.Category)

	kind, ok := r.Kind("test.const")
	require.True(t, ok)
	require.Len(t, kind.Inputs, 2)
	assert.Equal(t, graph.Array, kind.Inputs[1].Structure)
	assert.Equal(t, graph.AllowMultipleConnections, kind.Inputs[1].Flags)
	require.NotNil(t, kind.NewBehavior)

	g := graph.New(graph.WithKinds(r), graph.WithDataTypes(r.DataTypes()))
	n, err := g.CreateNode("test.const", nil)
	require.NoError(t, err)
	assert.Equal(t, "const", n.Name())
	assert.True(t, n.Input("seed").Value().RawEquals(cty.NumberIntVal(1)))

	require.NoError(t, n.Evaluate())
	assert.True(t, n.Output("out").Value().RawEquals(cty.NumberIntVal(42)))
}

func TestRegistry_EachNodeGetsItsOwnBehavior(t *testing.T) {
	r := New(nil)
	created := 0
	r.RegisterBehavior("test.const", func() graph.Behavior {
		created++
		return constBehavior{}
	})
	require.NoError(t, r.PopulateDefinitionsFromModel(testModel()))

	g := graph.New(graph.WithKinds(r), graph.WithDataTypes(r.DataTypes()))
	_, err := g.CreateNode("test.const", nil)
	require.NoError(t, err)
	_, err = g.CreateNode("test.const", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestRegistry_DuplicateBehaviorPanics(t *testing.T) {
	r := New(nil)
	r.RegisterBehavior("x", func() graph.Behavior { return constBehavior{} })
	assert.Panics(t, func() {
		r.RegisterBehavior("x", func() graph.Behavior { return constBehavior{} })
	})
}

func TestRegistry_ValidateReportsEverything(t *testing.T) {
	r := New(nil)
	m := config.NewModel()
	m.NodeTypes["test.broken"] = &config.NodeTypeDefinition{
		Type: "test.broken",
		Inputs: []*config.PortDefinition{
			{Name: "a", DataType: "quaternion"},
			{Name: "b", DataType: "any", SupportedTypes: []string{"matrix"}},
		},
	}
	require.NoError(t, r.PopulateDefinitionsFromModel(m))

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "behavior 'test.broken' is not registered")
	assert.Contains(t, err.Error(), "quaternion")
	assert.Contains(t, err.Error(), "matrix")
}

func TestRegistry_DefineRejectsBadPorts(t *testing.T) {
	r := New(nil)
	err := r.Define(&config.NodeTypeDefinition{
		Type:   "test.bad",
		Inputs: []*config.PortDefinition{{Name: "a", DataType: "numeric", Options: []string{"sparkly"}}},
	})
	assert.Error(t, err)

	err = r.Define(&config.NodeTypeDefinition{
		Type:   "test.bad",
		Inputs: []*config.PortDefinition{{Name: "a", DataType: "numeric", Structure: "tree"}},
	})
	assert.Error(t, err)
	_, ok := r.Kind("test.bad")
	assert.False(t, ok)
}

func TestRegistry_DuplicateDataType(t *testing.T) {
	r := New(nil)
	m := config.NewModel()
	m.DataTypes["numeric"] = &config.DataTypeDefinition{Name: "numeric", Type: cty.Number}
	assert.Error(t, r.PopulateDefinitionsFromModel(m))
}

func TestRegistry_Manifests(t *testing.T) {
	r := New(nil)
	r.RegisterManifest("a.hcl", []byte("a"))
	r.RegisterManifest("b.hcl", []byte("b"))
	manifests := r.Manifests()
	require.Len(t, manifests, 2)
	assert.Equal(t, "a.hcl", manifests[0].Filename)
	assert.Equal(t, []byte("b"), manifests[1].Source)
}

func TestRegistry_Categories(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.PopulateDefinitionsFromModel(testModel()))
	require.NoError(t, r.Define(&config.NodeTypeDefinition{Type: "loose"}))
	assert.Equal(t, map[string][]string{"test": {"test.const"}, "other": {"loose"}}, r.Categories())
}
