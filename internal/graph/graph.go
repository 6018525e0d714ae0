package graph

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/nodegraph/internal/datatype"
	"github.com/vk/nodegraph/internal/portref"
	"github.com/zclconf/go-cty/cty"
)

// Graph owns a set of nodes in creation order.
type Graph struct {
	id       string
	name     string
	model    EvaluationModel
	acyclic  bool
	editable bool

	nodes []*Node
	index map[string]*Node

	types  *datatype.Registry
	kinds  Kinds
	logger *slog.Logger

	listeners    []subscription
	nextListener uint64
}

// GraphOption configures a graph at construction.
type GraphOption func(*Graph)

// WithName sets the graph's name.
func WithName(name string) GraphOption {
	return func(g *Graph) {
		if name != "" {
			g.name = name
		}
	}
}

// WithID sets the graph's uuid.
func WithID(id string) GraphOption {
	return func(g *Graph) {
		if id != "" {
			g.id = id
		}
	}
}

// WithEvaluationModel sets Push or Pull evaluation.
func WithEvaluationModel(m EvaluationModel) GraphOption {
	return func(g *Graph) { g.model = m }
}

// WithAcyclic toggles the extra cycle check ConnectPorts runs after
// CanConnectPorts. CanConnectPorts refuses cycles on its own, so turning
// the flag off does not make cyclic connections legal through Connect,
// ConnectRefs or ConnectPorts.
func WithAcyclic(acyclic bool) GraphOption {
	return func(g *Graph) { g.acyclic = acyclic }
}

// WithDataTypes sets the data type registry the graph resolves port types against.
func WithDataTypes(r *datatype.Registry) GraphOption {
	return func(g *Graph) {
		if r != nil {
			g.types = r
		}
	}
}

// WithKinds sets the node type registry used by CreateNode and FromData.
func WithKinds(k Kinds) GraphOption {
	return func(g *Graph) { g.kinds = k }
}

// WithLogger sets the graph's logger.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty, editable, acyclic Push graph. Without WithDataTypes
// it gets a private registry holding the built-in data types.
func New(opts ...GraphOption) *Graph {
	g := &Graph{
		id:       uuid.NewString(),
		name:     DefaultName,
		model:    Push,
		acyclic:  true,
		editable: true,
		index:    make(map[string]*Node),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.types == nil {
		g.types = datatype.NewWithBuiltins()
	}
	return g
}

// ID returns the graph's uuid.
func (g *Graph) ID() string { return g.id }

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// SetName renames the graph.
func (g *Graph) SetName(name string) { g.name = name }

// EvaluationModel returns Push or Pull.
func (g *Graph) EvaluationModel() EvaluationModel { return g.model }

// SetEvaluationModel switches the evaluation model. Switching to Pull marks
// every node dirty so the next read recomputes.
func (g *Graph) SetEvaluationModel(m EvaluationModel) {
	g.model = m
	if m == Pull {
		for _, n := range g.nodes {
			n.setDirty(true)
		}
	}
}

// Acyclic reports whether cycles are refused at connection time.
func (g *Graph) Acyclic() bool { return g.acyclic }

// SetAcyclic toggles cycle enforcement.
func (g *Graph) SetAcyclic(acyclic bool) { g.acyclic = acyclic }

// Editable reports whether mutation entry points are open.
func (g *Graph) Editable() bool { return g.editable }

// SetEditable opens or locks the mutation entry points.
func (g *Graph) SetEditable(editable bool) { g.editable = editable }

// DataTypes returns the graph's data type registry.
func (g *Graph) DataTypes() *datatype.Registry { return g.types }

// Kinds returns the node type collaborator, or nil.
func (g *Graph) Kinds() Kinds { return g.kinds }

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// Nodes returns the nodes in creation order.
func (g *Graph) Nodes() []*Node { return append([]*Node(nil), g.nodes...) }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) nodeNames(except *Node) []string {
	names := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != except {
			names = append(names, n.name)
		}
	}
	return names
}

// CreateNode instantiates a node of typeName through the graph's Kinds and
// adds it. values seeds matching input ports.
func (g *Graph) CreateNode(typeName string, values map[string]cty.Value, opts ...NodeOption) (*Node, error) {
	if !g.editable {
		g.logger.Warn("Refusing to create node, graph is not editable.", "node_type", typeName)
		return nil, ErrNotEditable
	}
	if g.kinds == nil {
		return nil, fmt.Errorf("%w: %q (no node type registry)", ErrUnknownNodeType, typeName)
	}
	kind, ok := g.kinds.Kind(typeName)
	if !ok {
		g.logger.Warn("Unknown node type.", "node_type", typeName)
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typeName)
	}
	return g.AddNode(NewNodeFromKind(kind, opts...), values)
}

// AddNode adds n to the graph under a unique name and applies values to
// the inputs they name. Unknown names are ignored.
func (g *Graph) AddNode(n *Node, values map[string]cty.Value) (*Node, error) {
	if !g.editable {
		g.logger.Warn("Refusing to add node, graph is not editable.")
		return nil, ErrNotEditable
	}
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrNodeNotFound)
	}
	if n.graph != nil && n.graph != g {
		return nil, fmt.Errorf("%w: node %s belongs to another graph", ErrDuplicateNode, n.name)
	}
	if _, exists := g.index[n.id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.id)
	}

	n.name = UniqueName(g.nodeNames(n), n.name)
	g.nodes = append(g.nodes, n)
	g.index[n.id] = n
	n.bind(g)

	for _, p := range n.inputs {
		v, ok := values[p.name]
		if !ok {
			continue
		}
		p.SetValue(g.coerce(p, v))
	}

	g.logger.Debug("Node added.", "node", n.name, "node_type", n.typeName, "uuid", n.id)
	g.emit(Event{Kind: NodeAdded, Node: n})
	return n, nil
}

// coerce converts v to p's data type, keeping v when that fails.
func (g *Graph) coerce(p *Port, v cty.Value) cty.Value {
	if p.currentStructure != Single {
		return v
	}
	out, err := g.types.Coerce(p.DataType(), v)
	if err != nil {
		g.logger.Warn("Keeping value that does not convert to the port type.", "port", p.FullName(), "data_type", p.DataType(), "error", err)
		return v
	}
	return out
}

// Node returns the node with the given uuid or, failing that, name.
func (g *Graph) Node(nameOrID string) (*Node, bool) {
	if n, ok := g.index[nameOrID]; ok {
		return n, true
	}
	for _, n := range g.nodes {
		if n.name == nameOrID {
			return n, true
		}
	}
	return nil, false
}

// Port resolves a dotted "<node>.<port>" reference, preferring inputs.
func (g *Graph) Port(ref string) (*Port, error) {
	r, err := portref.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPortNotFound, err)
	}
	n, ok := g.Node(r.Node)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, r.Node)
	}
	p := n.Port(r.Port)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, ref)
	}
	return p, nil
}

// DeleteNode severs every connection of the node and removes it.
func (g *Graph) DeleteNode(nameOrID string) error {
	if !g.editable {
		g.logger.Warn("Refusing to delete node, graph is not editable.", "node", nameOrID)
		return ErrNotEditable
	}
	n, ok := g.Node(nameOrID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, nameOrID)
	}

	for _, p := range n.Ports() {
		p.DisconnectFrom()
	}
	for i, candidate := range g.nodes {
		if candidate == n {
			g.nodes = append(g.nodes[:i:i], g.nodes[i+1:]...)
			break
		}
	}
	delete(g.index, n.id)

	g.logger.Debug("Node deleted.", "node", n.name, "uuid", n.id)
	g.emit(Event{Kind: NodeRemoved, Node: n})
	n.graph = nil
	return nil
}

// Connect validates and connects a and b. The bool is false when the
// connection is illegal; the error is ErrNotEditable when the graph is locked.
func (g *Graph) Connect(a, b *Port) (bool, error) {
	if !g.editable {
		return false, ErrNotEditable
	}
	if a == nil || b == nil || a.graph() != g || b.graph() != g {
		return false, nil
	}
	return ConnectPorts(a, b), nil
}

// ConnectRefs connects two ports named by dotted references.
func (g *Graph) ConnectRefs(from, to string) (bool, error) {
	a, err := g.Port(from)
	if err != nil {
		return false, err
	}
	b, err := g.Port(to)
	if err != nil {
		return false, err
	}
	return g.Connect(a, b)
}

// Disconnect removes connections of a, all of them without peers.
func (g *Graph) Disconnect(a *Port, peers ...*Port) ([]*Port, error) {
	if !g.editable {
		return nil, ErrNotEditable
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil port", ErrPortNotFound)
	}
	return a.DisconnectFrom(peers...), nil
}

// Connectors returns every connection once, ordered by the input side's
// node and port order.
func (g *Graph) Connectors() []Connector {
	var out []Connector
	for _, n := range g.nodes {
		for _, in := range n.inputs {
			for _, src := range in.sources {
				out = append(out, Connector{Source: src, Target: in})
			}
		}
	}
	return out
}

// Tick forwards a frame interval to every node in creation order.
func (g *Graph) Tick(delta float64) error {
	var firstErr error
	for _, n := range g.Nodes() {
		if err := n.Tick(delta); err != nil {
			g.logger.Warn("Node tick failed.", "node", n.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Pull reads every output, which under Pull evaluation brings every dirty
// node up to date.
func (g *Graph) Pull() {
	for _, n := range g.Nodes() {
		for _, out := range n.outputs {
			out.Value()
		}
	}
}
