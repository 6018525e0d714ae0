package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Behavior is the computation a node kind performs when evaluated. It reads
// the node's current input values and writes its outputs.
type Behavior interface {
	Evaluate(n *Node) error
}

// Ticker is implemented by behaviors with time-based logic.
type Ticker interface {
	Tick(n *Node, delta float64) error
}

// Caller is implemented by behaviors that react to individual exec inputs
// differently from a plain evaluation.
type Caller interface {
	Call(n *Node, port *Port) error
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(n *Node) error

// Evaluate calls f(n).
func (f BehaviorFunc) Evaluate(n *Node) error { return f(n) }

// Kind is a constructible node type: its port templates and a factory for
// the per-node behavior.
type Kind struct {
	Type        string
	Category    string
	Description string
	Keywords    []string
	Inputs      []PortSpec
	Outputs     []PortSpec
	NewBehavior func() Behavior
}

// Kinds resolves node type identifiers. It is the seam to whatever node
// type registry the host maintains.
type Kinds interface {
	Kind(typeName string) (Kind, bool)
}

// KindMap is a Kinds backed by a plain map.
type KindMap map[string]Kind

// Kind implements Kinds.
func (m KindMap) Kind(typeName string) (Kind, bool) {
	k, ok := m[typeName]
	return k, ok
}

// NodeOption configures a node at construction.
type NodeOption func(*Node)

// WithNodeName sets the node's requested name.
func WithNodeName(name string) NodeOption {
	return func(n *Node) {
		if name != "" {
			n.name = name
		}
	}
}

// WithNodeID sets the node's uuid. Used when restoring serialized nodes.
func WithNodeID(id string) NodeOption {
	return func(n *Node) {
		if id != "" {
			n.id = id
		}
	}
}

// WithPosition sets the node's canvas position.
func WithPosition(x, y float64) NodeOption {
	return func(n *Node) { n.x, n.y = x, y }
}

// WithEnabled sets whether the node evaluates. Nodes are enabled by default.
func WithEnabled(enabled bool) NodeOption {
	return func(n *Node) { n.enabled = enabled }
}

// WithBehavior sets the node's behavior.
func WithBehavior(b Behavior) NodeOption {
	return func(n *Node) { n.behavior = b }
}

// WithNodeType records the node kind identifier.
func WithNodeType(typeName string) NodeOption {
	return func(n *Node) { n.typeName = typeName }
}

var reservedProperties = map[string]struct{}{
	"uuid": {}, "type": {}, "name": {}, "x": {}, "y": {}, "enabled": {},
}

// Node owns ordered input and output ports plus identity, position and
// custom properties.
type Node struct {
	id       string
	name     string
	typeName string
	enabled  bool
	x, y     float64

	dirty      bool
	evalCount  int
	evaluating bool
	pulling    bool
	lastErr    error

	inputs     []*Port
	outputs    []*Port
	properties map[string]cty.Value

	graph    *Graph
	behavior Behavior
}

// NewNode creates a standalone node with no ports.
func NewNode(name string, opts ...NodeOption) *Node {
	n := &Node{
		id:         uuid.NewString(),
		name:       name,
		enabled:    true,
		dirty:      true,
		properties: make(map[string]cty.Value),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.name == "" {
		n.name = "node"
	}
	return n
}

// NewNodeFromKind creates a node with the ports and behavior of kind. The
// default name is the last dotted segment of the kind's type.
func NewNodeFromKind(kind Kind, opts ...NodeOption) *Node {
	base := kind.Type
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[i+1:]
	}
	all := []NodeOption{WithNodeType(kind.Type)}
	if kind.NewBehavior != nil {
		all = append(all, WithBehavior(kind.NewBehavior()))
	}
	n := NewNode(base, append(all, opts...)...)
	for _, spec := range kind.Inputs {
		n.AddPort(Input, spec)
	}
	for _, spec := range kind.Outputs {
		n.AddPort(Output, spec)
	}
	return n
}

// ID returns the node's uuid.
func (n *Node) ID() string { return n.id }

// Name returns the node's name, unique within its graph.
func (n *Node) Name() string { return n.name }

// Type returns the node kind identifier, empty for hand-built nodes.
func (n *Node) Type() string { return n.typeName }

// Graph returns the owning graph, or nil.
func (n *Node) Graph() *Graph { return n.graph }

// Behavior returns the node's behavior, or nil.
func (n *Node) Behavior() Behavior { return n.behavior }

// EvalCount returns how many times the node has been evaluated.
func (n *Node) EvalCount() int { return n.evalCount }

// LastError returns the error of the most recent evaluation.
func (n *Node) LastError() error { return n.lastErr }

// Logger returns the graph's logger scoped to this node.
func (n *Node) Logger() *slog.Logger {
	if n.graph == nil {
		return slog.New(slog.DiscardHandler)
	}
	return n.graph.logger.With("node", n.name, "node_type", n.typeName)
}

// SetName renames the node. Inside a graph the name is made unique and the
// final name is returned.
func (n *Node) SetName(name string) string {
	if n.graph != nil {
		name = UniqueName(n.graph.nodeNames(n), name)
	}
	if name == n.name {
		return name
	}
	n.name = name
	n.emit(Event{Kind: NameChanged})
	return name
}

// Enabled reports whether the node evaluates.
func (n *Node) Enabled() bool { return n.enabled }

// SetEnabled toggles evaluation of the node.
func (n *Node) SetEnabled(enabled bool) {
	if n.enabled == enabled {
		return
	}
	n.enabled = enabled
	n.emit(Event{Kind: EnabledChanged})
}

// Position returns the canvas position.
func (n *Node) Position() (x, y float64) { return n.x, n.y }

// SetPosition moves the node.
func (n *Node) SetPosition(x, y float64) {
	if n.x == x && n.y == y {
		return
	}
	n.x, n.y = x, y
	n.emit(Event{Kind: PositionChanged})
}

// IsDirty reports whether the node's outputs are stale.
func (n *Node) IsDirty() bool { return n.dirty }

// SetDirty sets the dirty flag. Marking a node dirty also marks every node
// downstream of its connected outputs. Each node is visited at most once,
// so cyclic graphs terminate.
func (n *Node) SetDirty(flag bool) {
	n.setDirty(flag)
	if !flag {
		return
	}

	visited := map[*Node]struct{}{n: {}}
	queue := []*Node{n}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, out := range current.outputs {
			for _, peer := range out.sources {
				next := peer.node
				if next == nil {
					continue
				}
				if _, seen := visited[next]; seen {
					continue
				}
				visited[next] = struct{}{}
				next.setDirty(true)
				queue = append(queue, next)
			}
		}
	}
}

func (n *Node) setDirty(flag bool) {
	if n.dirty == flag {
		return
	}
	n.dirty = flag
	n.emit(Event{Kind: DirtyChanged, Value: cty.BoolVal(flag)})
}

// EvaluationModel returns the owning graph's model; ok is false for
// detached nodes.
func (n *Node) EvaluationModel() (model EvaluationModel, ok bool) {
	if n.graph == nil {
		return Push, false
	}
	return n.graph.model, true
}

// Evaluate runs the node's behavior and bumps its evaluation count.
// Disabled nodes are skipped, as are re-entrant calls on a node that is
// already evaluating.
func (n *Node) Evaluate() error {
	if !n.enabled {
		return nil
	}
	if n.evaluating {
		n.Logger().Warn("Skipping re-entrant evaluation.")
		return nil
	}
	n.evaluating = true
	defer func() { n.evaluating = false }()

	n.evalCount++
	var err error
	if n.behavior != nil {
		err = n.behavior.Evaluate(n)
	}
	n.lastErr = err
	if err != nil {
		n.Logger().Warn("Node evaluation failed.", "error", err)
	}
	n.emit(Event{Kind: NodeEvaluated})
	return err
}

// pull refreshes every input from its sources, evaluates and clears dirty.
func (n *Node) pull() {
	if n.pulling {
		return
	}
	n.pulling = true
	defer func() { n.pulling = false }()

	for _, in := range n.inputs {
		if in.exec {
			continue
		}
		for _, src := range in.Sources() {
			in.SetValue(src.Value())
		}
	}
	_ = n.Evaluate()
	n.SetDirty(false)
}

// Refresh copies the current value of every connected source into the
// node's value inputs without evaluating the node. Under Pull evaluation
// reading the sources first brings them up to date. Exec-driven behaviors
// call it before acting on their inputs.
func (n *Node) Refresh() {
	for _, in := range n.inputs {
		if in.exec {
			continue
		}
		for _, src := range in.Sources() {
			v := src.Value()
			in.value = v
			in.emit(Event{Kind: ValueChanged, Value: v})
		}
	}
}

// Tick forwards a frame interval to time-based behaviors.
func (n *Node) Tick(delta float64) error {
	n.emit(Event{Kind: NodeTicked, Delta: delta})
	if !n.enabled {
		return nil
	}
	if ticker, ok := n.behavior.(Ticker); ok {
		return ticker.Tick(n, delta)
	}
	return nil
}

// Inputs returns the input ports in declaration order.
func (n *Node) Inputs() []*Port { return append([]*Port(nil), n.inputs...) }

// Outputs returns the output ports in declaration order.
func (n *Node) Outputs() []*Port { return append([]*Port(nil), n.outputs...) }

// Ports returns the inputs followed by the outputs.
func (n *Node) Ports() []*Port {
	out := make([]*Port, 0, len(n.inputs)+len(n.outputs))
	out = append(out, n.inputs...)
	return append(out, n.outputs...)
}

func (n *Node) ports(dir Direction) []*Port {
	if dir == Input {
		return n.inputs
	}
	return n.outputs
}

// Input returns the named input port, or nil.
func (n *Node) Input(name string) *Port { return findPort(n.inputs, name) }

// Output returns the named output port, or nil.
func (n *Node) Output(name string) *Port { return findPort(n.outputs, name) }

// Port returns the named input, falling back to the named output.
func (n *Node) Port(name string) *Port {
	if p := n.Input(name); p != nil {
		return p
	}
	return n.Output(name)
}

func findPort(list []*Port, name string) *Port {
	for _, p := range list {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (n *Node) portNames() []string {
	names := make([]string, 0, len(n.inputs)+len(n.outputs))
	for _, p := range n.Ports() {
		names = append(names, p.name)
	}
	return names
}

// AddPort creates a port from spec. The name is made unique across both
// the input and output namespaces.
func (n *Node) AddPort(dir Direction, spec PortSpec) *Port {
	if spec.Name == "" {
		spec.Name = dir.String()
	}
	spec.Name = UniqueName(n.portNames(), spec.Name)
	p := newPort(n, dir, spec)
	if dir == Input {
		n.inputs = append(n.inputs, p)
	} else {
		n.outputs = append(n.outputs, p)
	}
	if n.graph != nil {
		p.applyTypeDefaults(n.graph.types)
	}
	return p
}

// AddInputPort adds an input port of dataType.
func (n *Node) AddInputPort(name, dataType string, opts ...PortOption) *Port {
	return n.AddPort(Input, buildSpec(name, dataType, opts))
}

// AddOutputPort adds an output port of dataType.
func (n *Node) AddOutputPort(name, dataType string, opts ...PortOption) *Port {
	return n.AddPort(Output, buildSpec(name, dataType, opts))
}

func buildSpec(name, dataType string, opts []PortOption) PortSpec {
	spec := PortSpec{Name: name, DataType: dataType}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// RemovePort disconnects and removes a dynamic port.
func (n *Node) RemovePort(name string) error {
	for _, list := range []*[]*Port{&n.inputs, &n.outputs} {
		for i, p := range *list {
			if p.name != name {
				continue
			}
			p.DisconnectFrom()
			*list = append((*list)[:i:i], (*list)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrPortNotFound, n.name, name)
}

// Property returns a custom property.
func (n *Node) Property(name string) (cty.Value, bool) {
	v, ok := n.properties[name]
	return v, ok
}

// Properties returns a copy of the custom properties.
func (n *Node) Properties() map[string]cty.Value {
	out := make(map[string]cty.Value, len(n.properties))
	for k, v := range n.properties {
		out[k] = v
	}
	return out
}

// PropertyNames returns the custom property names, sorted.
func (n *Node) PropertyNames() []string {
	names := make([]string, 0, len(n.properties))
	for k := range n.properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AddProperty declares a new custom property.
func (n *Node) AddProperty(name string, v cty.Value) error {
	if _, reserved := reservedProperties[name]; reserved {
		return fmt.Errorf("%w: %q", ErrReservedProperty, name)
	}
	if _, exists := n.properties[name]; exists {
		return fmt.Errorf("%w: %q", ErrPropertyExists, name)
	}
	n.properties[name] = v
	return nil
}

// SetProperty writes a property. The built-in attributes name, x, y and
// enabled are routed to their setters; anything else is a custom property,
// created on first write.
func (n *Node) SetProperty(name string, v cty.Value) error {
	switch name {
	case "uuid", "type":
		return fmt.Errorf("%w: %q is read-only", ErrReservedProperty, name)
	case "name":
		s, err := convert.Convert(v, cty.String)
		if err != nil || s.IsNull() {
			return fmt.Errorf("property %q must be a string", name)
		}
		n.SetName(s.AsString())
	case "x", "y":
		num, err := convert.Convert(v, cty.Number)
		if err != nil || num.IsNull() {
			return fmt.Errorf("property %q must be a number", name)
		}
		f, _ := num.AsBigFloat().Float64()
		if name == "x" {
			n.SetPosition(f, n.y)
		} else {
			n.SetPosition(n.x, f)
		}
	case "enabled":
		b, err := convert.Convert(v, cty.Bool)
		if err != nil || b.IsNull() {
			return fmt.Errorf("property %q must be a bool", name)
		}
		n.SetEnabled(b.True())
	default:
		n.properties[name] = v
	}
	return nil
}

// Delete removes the node from its graph.
func (n *Node) Delete() error {
	if n.graph == nil {
		return fmt.Errorf("%w: %s is not part of a graph", ErrNodeNotFound, n.name)
	}
	return n.graph.DeleteNode(n.id)
}

func (n *Node) bind(g *Graph) {
	n.graph = g
	for _, p := range n.Ports() {
		p.applyTypeDefaults(g.types)
	}
}

func (n *Node) emit(ev Event) {
	if n.graph == nil {
		return
	}
	ev.Node = n
	n.graph.emit(ev)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.typeName)
}
