package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestPort_Defaults(t *testing.T) {
	g := New()
	n, err := g.AddNode(NewNode("n"), nil)
	require.NoError(t, err)

	num := n.AddInputPort("num", "numeric")
	str := n.AddInputPort("str", "String")
	list := n.AddInputPort("items", "numeric", WithStructure(Array))
	custom := n.AddInputPort("custom", "numeric", WithDefault(cty.StringVal("5")))
	exec := n.AddInputPort("inExec", "exec")

	assert.Equal(t, 0.0, numberOf(t, num.Value()))
	assert.Equal(t, "string", str.DataType(), "data type names are case insensitive")
	assert.Equal(t, cty.StringVal(""), str.Value())
	assert.True(t, list.Value().Type().IsListType())
	assert.True(t, list.OptionEnabled(ArraySupported))
	assert.Equal(t, 5.0, numberOf(t, custom.Value()), "a declared default is coerced to the port type")
	assert.True(t, exec.IsExec())
	assert.False(t, exec.IsValuePort())
	assert.True(t, exec.Value().IsNull())

	assert.True(t, num.OptionEnabled(Storable))
}

func TestPort_UniqueNamesAcrossDirections(t *testing.T) {
	n := NewNode("n")
	in := n.AddInputPort("value", "numeric")
	out := n.AddOutputPort("value", "numeric")

	assert.Equal(t, "value", in.Name())
	assert.Equal(t, "value1", out.Name())
	assert.Same(t, in, n.Port("value"))
	assert.Same(t, out, n.Port("value1"))
}

func TestPort_PushFanOut(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "test.source", "src")
	sinks := []*Node{
		mustCreate(t, g, "test.pass", "s1"),
		mustCreate(t, g, "test.pass", "s2"),
		mustCreate(t, g, "test.pass", "s3"),
	}
	for _, s := range sinks {
		mustConnect(t, g, src.Output("out"), s.Input("in"))
	}

	src.Output("out").SetValue(cty.NumberIntVal(7))
	for _, s := range sinks {
		assert.Equal(t, 7.0, numberOf(t, s.Input("in").Value()))
		assert.Equal(t, 7.0, numberOf(t, s.Output("out").RawValue()), "push evaluates the consumer")
	}
}

func TestPort_PullMarksDirty(t *testing.T) {
	g := newTestGraph(t, WithEvaluationModel(Pull))
	a, b, c := chain(t, g)
	g.Pull()
	require.False(t, c.IsDirty())
	before := b.EvalCount()

	a.Output("out").SetValue(cty.NumberIntVal(3))
	b.Input("in").SetValue(cty.NumberIntVal(3))
	assert.True(t, b.IsDirty())
	assert.True(t, c.IsDirty(), "dirty propagates downstream")
	assert.Equal(t, before, b.EvalCount(), "pull defers evaluation")

	assert.Equal(t, 3.0, numberOf(t, c.Output("out").Value()))
	assert.False(t, b.IsDirty())
	assert.False(t, c.IsDirty())
}

func TestPort_DisconnectIdempotent(t *testing.T) {
	g := newTestGraph(t)
	a, b, _ := chain(t, g)
	out, in := a.Output("out"), b.Input("in")

	removed := in.DisconnectFrom(out)
	assert.Equal(t, []*Port{out}, removed)
	assert.False(t, out.IsConnected())
	assert.False(t, in.IsConnected())

	assert.Nil(t, in.DisconnectFrom(out))
	assert.Nil(t, out.DisconnectFrom())
}

func TestPort_DisconnectAll(t *testing.T) {
	g := newTestGraph(t)
	src := mustCreate(t, g, "test.source", "src")
	s1 := mustCreate(t, g, "test.pass", "s1")
	s2 := mustCreate(t, g, "test.pass", "s2")
	mustConnect(t, g, src.Output("out"), s1.Input("in"))
	mustConnect(t, g, src.Output("out"), s2.Input("in"))

	removed := src.Output("out").DisconnectFrom()
	assert.Equal(t, []*Port{s1.Input("in"), s2.Input("in")}, removed, "peers come back in connection order")
	assert.False(t, s1.Input("in").IsConnected())
	assert.False(t, s2.Input("in").IsConnected())
}

func TestPort_ExecCall(t *testing.T) {
	g := newTestGraph(t)
	first := mustCreate(t, g, "test.exec", "first")
	second := mustCreate(t, g, "test.exec", "second")
	mustConnect(t, g, first.Output(DefaultOutExecName), second.Input("inExec"))

	require.NoError(t, first.Output(DefaultOutExecName).Call())
	assert.Equal(t, 1, second.EvalCount())
	assert.Equal(t, 0, first.EvalCount())

	second.SetEnabled(false)
	require.NoError(t, first.Output(DefaultOutExecName).Call())
	assert.Equal(t, 1, second.EvalCount(), "disabled nodes do not evaluate")

	src := mustCreate(t, g, "test.source", "src")
	assert.Error(t, src.Output("out").Call())
}

type recordingCaller struct {
	called []string
}

func (r *recordingCaller) Evaluate(*Node) error { return nil }

func (r *recordingCaller) Call(_ *Node, p *Port) error {
	r.called = append(r.called, p.Name())
	return nil
}

func TestPort_CallUsesCaller(t *testing.T) {
	g := newTestGraph(t)
	caller := &recordingCaller{}
	n, err := g.AddNode(NewNode("n", WithBehavior(caller)), nil)
	require.NoError(t, err)
	in := n.AddInputPort("inExec", "exec")

	require.NoError(t, in.Call())
	assert.Equal(t, []string{"inExec"}, caller.called)
	assert.Equal(t, 0, n.EvalCount())
}

func TestPort_FlagsAndSupportedTypes(t *testing.T) {
	p := NewNode("n").AddInputPort("p", "numeric", WithSupportedTypes("Boolean"))

	assert.Equal(t, []string{"numeric", "boolean"}, p.SupportedDataTypes())
	assert.Equal(t, []string{"numeric", "boolean"}, p.AllowedDataTypes())

	p.EnableOptions(AllowAny, Dynamic)
	assert.True(t, p.OptionEnabled(AllowAny|Dynamic))
	assert.Contains(t, p.AllowedDataTypes(), "any")

	p.DisableOptions(Dynamic)
	assert.False(t, p.OptionEnabled(Dynamic))
	assert.True(t, p.OptionEnabled(AllowAny))
	assert.Equal(t, []string{"numeric", "boolean"}, p.DefaultAllowedDataTypes())
}

func TestPort_InitStructure(t *testing.T) {
	p := NewNode("n").AddInputPort("p", "numeric")

	p.InitAsArray(true)
	assert.Equal(t, Array, p.Structure())
	assert.True(t, p.OptionEnabled(ArraySupported))

	p.InitAsArray(false)
	assert.Equal(t, Single, p.Structure())
	assert.False(t, p.OptionEnabled(ArraySupported))

	p.InitAsDict(true)
	assert.Equal(t, Dict, p.CurrentStructure())
	assert.True(t, p.OptionEnabled(DictSupported))
}

func TestPort_Names(t *testing.T) {
	g := newTestGraph(t)
	n := mustCreate(t, g, "test.pass", "adder")

	assert.Equal(t, "adder.in", n.Input("in").FullName())
	assert.Equal(t, n.ID()+".in", n.Input("in").Ref())
	assert.Contains(t, n.Input("in").String(), "adder.in")
}
