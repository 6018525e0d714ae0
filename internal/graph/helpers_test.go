package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// passThrough copies its numeric input to its output.
func passThrough(n *Node) error {
	n.Output("out").SetValue(n.Input("in").Value())
	return nil
}

type tickCounter struct {
	ticks float64
}

func (t *tickCounter) Evaluate(*Node) error { return nil }

func (t *tickCounter) Tick(_ *Node, delta float64) error {
	t.ticks += delta
	return nil
}

func testKinds() KindMap {
	return KindMap{
		"test.source": {
			Type: "test.source",
			Outputs: []PortSpec{
				{Name: "out", DataType: "numeric", Default: cty.NumberFloatVal(1), Flags: AllowMultipleConnections},
			},
		},
		"test.pass": {
			Type:        "test.pass",
			Inputs:      []PortSpec{{Name: "in", DataType: "numeric"}},
			Outputs:     []PortSpec{{Name: "out", DataType: "numeric", Flags: AllowMultipleConnections}},
			NewBehavior: func() Behavior { return BehaviorFunc(passThrough) },
		},
		"test.exec": {
			Type:    "test.exec",
			Inputs:  []PortSpec{{Name: "inExec", DataType: "exec"}},
			Outputs: []PortSpec{{Name: DefaultOutExecName, DataType: "exec"}},
		},
		"test.any": {
			Type: "test.any",
			Inputs: []PortSpec{
				{Name: "value", DataType: "any", Flags: ChangeTypeOnConnection},
			},
		},
		"test.ticker": {
			Type:        "test.ticker",
			NewBehavior: func() Behavior { return &tickCounter{} },
		},
	}
}

func newTestGraph(t *testing.T, opts ...GraphOption) *Graph {
	t.Helper()
	return New(append([]GraphOption{WithKinds(testKinds())}, opts...)...)
}

func mustCreate(t *testing.T, g *Graph, typeName, name string) *Node {
	t.Helper()
	n, err := g.CreateNode(typeName, nil, WithNodeName(name))
	require.NoError(t, err)
	return n
}

func mustConnect(t *testing.T, g *Graph, a, b *Port) {
	t.Helper()
	ok, err := g.Connect(a, b)
	require.NoError(t, err)
	require.True(t, ok, "expected %s and %s to connect", a, b)
}

// chain builds source -> pass -> pass and returns the three nodes.
func chain(t *testing.T, g *Graph) (a, b, c *Node) {
	t.Helper()
	a = mustCreate(t, g, "test.source", "a")
	b = mustCreate(t, g, "test.pass", "b")
	c = mustCreate(t, g, "test.pass", "c")
	mustConnect(t, g, a.Output("out"), b.Input("in"))
	mustConnect(t, g, b.Output("out"), c.Input("in"))
	return a, b, c
}

func numberOf(t *testing.T, v cty.Value) float64 {
	t.Helper()
	require.False(t, v.IsNull(), "value is null")
	require.Equal(t, cty.Number, v.Type())
	f, _ := v.AsBigFloat().Float64()
	return f
}
