package graph

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vk/nodegraph/internal/datatype"
	"github.com/vk/nodegraph/internal/portref"
	"github.com/zclconf/go-cty/cty"
)

const (
	RecordDataType = "Graph"
	RecordVersion  = "1.0.0"
)

// PortRecord is the serialized form of a port. Sources are dotted
// "<node-uuid>.<port-name>" references.
type PortRecord struct {
	UUID    string   `json:"uuid"`
	Name    string   `json:"name"`
	Value   any      `json:"value"`
	Sources []string `json:"sources"`
}

// NodeRecord is the serialized form of a node. Ports are keyed by uuid.
type NodeRecord struct {
	UUID       string                `json:"uuid,omitempty"`
	Type       string                `json:"type"`
	Name       string                `json:"name"`
	Graph      string                `json:"graph,omitempty"`
	Enabled    bool                  `json:"enabled"`
	X          float64               `json:"x"`
	Y          float64               `json:"y"`
	Properties map[string]any        `json:"properties,omitempty"`
	Inputs     map[string]PortRecord `json:"inputs"`
	Outputs    map[string]PortRecord `json:"outputs"`
}

// Record is the serialized form of a graph. Nodes are keyed by uuid and
// their records leave the uuid out.
type Record struct {
	DataType        string                `json:"data_type"`
	Version         string                `json:"version"`
	UUID            string                `json:"uuid,omitempty"`
	Name            string                `json:"name,omitempty"`
	EvaluationModel EvaluationModel       `json:"evaluation_model"`
	Nodes           map[string]NodeRecord `json:"nodes"`
}

// Serialize captures the port's identity, value and peers. Exec ports carry
// no value.
func (p *Port) Serialize() PortRecord {
	rec := PortRecord{UUID: p.id, Name: p.name, Sources: []string{}}
	if !p.exec {
		native, err := datatype.ToNative(p.value)
		if err != nil {
			p.node.Logger().Warn("Dropping value that cannot be serialized.", "port", p.FullName(), "error", err)
		} else {
			rec.Value = native
		}
	}
	for _, peer := range p.sources {
		rec.Sources = append(rec.Sources, peer.Ref())
	}
	return rec
}

// Serialize captures the node with its ports and custom properties.
func (n *Node) Serialize() NodeRecord {
	rec := NodeRecord{
		UUID:    n.id,
		Type:    n.typeName,
		Name:    n.name,
		Enabled: n.enabled,
		X:       n.x,
		Y:       n.y,
		Inputs:  make(map[string]PortRecord, len(n.inputs)),
		Outputs: make(map[string]PortRecord, len(n.outputs)),
	}
	if n.graph != nil {
		rec.Graph = n.graph.id
	}
	if len(n.properties) > 0 {
		rec.Properties = make(map[string]any, len(n.properties))
		for _, k := range n.PropertyNames() {
			native, err := datatype.ToNative(n.properties[k])
			if err != nil {
				n.Logger().Warn("Dropping property that cannot be serialized.", "property", k, "error", err)
				continue
			}
			rec.Properties[k] = native
		}
	}
	for _, p := range n.inputs {
		rec.Inputs[p.id] = p.Serialize()
	}
	for _, p := range n.outputs {
		rec.Outputs[p.id] = p.Serialize()
	}
	return rec
}

// Serialize captures the whole graph.
func (g *Graph) Serialize() *Record {
	rec := &Record{
		DataType:        RecordDataType,
		Version:         RecordVersion,
		UUID:            g.id,
		Name:            g.name,
		EvaluationModel: g.model,
		Nodes:           make(map[string]NodeRecord, len(g.nodes)),
	}
	for _, n := range g.nodes {
		nr := n.Serialize()
		nr.UUID = ""
		rec.Nodes[n.id] = nr
	}
	return rec
}

// Encode renders a record as indented JSON.
func Encode(rec *Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// ParseRecord decodes and validates a serialized graph.
func ParseRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSerialization, err)
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Record) validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil record", ErrMalformedSerialization)
	case r.DataType != RecordDataType:
		return fmt.Errorf("%w: data_type is %q, want %q", ErrMalformedSerialization, r.DataType, RecordDataType)
	case r.Version == "":
		return fmt.Errorf("%w: missing version", ErrMalformedSerialization)
	case r.Nodes == nil:
		return fmt.Errorf("%w: missing nodes", ErrMalformedSerialization)
	}
	for id, nr := range r.Nodes {
		if nr.Type == "" {
			return fmt.Errorf("%w: node %s has no type", ErrMalformedSerialization, id)
		}
	}
	return nil
}

// nodeResolver maps the node part of a source reference, uuid or name, to
// the key of a node in rec.
func nodeResolver(rec *Record) func(ref string) (string, bool) {
	byName := make(map[string]string, len(rec.Nodes))
	for id, nr := range rec.Nodes {
		if nr.Name != "" {
			byName[nr.Name] = id
		}
	}
	return func(ref string) (string, bool) {
		r, err := portref.Parse(ref)
		if err != nil {
			return "", false
		}
		if _, ok := rec.Nodes[r.Node]; ok {
			return r.Node, true
		}
		id, ok := byName[r.Node]
		return id, ok
	}
}

// RefCounts computes the signed reference count of every node in rec.
// Each reference from an input lowers the count of the producer it names;
// each reference from an output raises the count of the consumer it names.
// Pure sources end up lowest.
func RefCounts(rec *Record) map[string]int {
	counts := make(map[string]int, len(rec.Nodes))
	resolve := nodeResolver(rec)
	for id, nr := range rec.Nodes {
		counts[id] += 0
		for _, pr := range nr.Inputs {
			for _, src := range pr.Sources {
				if peer, ok := resolve(src); ok && peer != id {
					counts[peer]--
				}
			}
		}
		for _, pr := range nr.Outputs {
			for _, src := range pr.Sources {
				if peer, ok := resolve(src); ok && peer != id {
					counts[peer]++
				}
			}
		}
	}
	return counts
}

// CreationOrder returns the node keys of rec sorted ascending by RefCounts.
// Ties are broken by key so the order is deterministic.
func CreationOrder(rec *Record) []string {
	counts := RefCounts(rec)
	order := make([]string, 0, len(counts))
	for id := range counts {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] < counts[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}

// FromData rebuilds a graph from rec, keeping every uuid. opts supply the
// collaborators; identity and evaluation model come from the record.
func FromData(rec *Record, opts ...GraphOption) (*Graph, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}
	opts = append(opts, WithID(rec.UUID), WithName(rec.Name), WithEvaluationModel(rec.EvaluationModel))
	g := New(opts...)

	for _, id := range CreationOrder(rec) {
		nr := rec.Nodes[id]
		nr.UUID = id
		nr.Graph = g.id
		if _, err := g.restore(nr, rec); err != nil {
			return nil, fmt.Errorf("restoring node %s: %w", id, err)
		}
	}
	g.logger.Debug("Graph restored.", "graph", g.name, "nodes", len(g.nodes))
	return g, nil
}

// RestoreNode re-creates a node from a record captured by Node.Serialize,
// reconnecting it to the nodes still in the graph. It is the inverse of
// DeleteNode.
func (g *Graph) RestoreNode(nr NodeRecord) (*Node, error) {
	if nr.Graph != g.id {
		return nil, fmt.Errorf("%w: node belongs to graph %q, not %q", ErrMalformedSerialization, nr.Graph, g.id)
	}
	if _, exists := g.index[nr.UUID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, nr.UUID)
	}
	return g.restore(nr, nil)
}

type restoredPort struct {
	port  *Port
	rec   PortRecord
	peers []*Port
	value cty.Value // cty.NilVal when the record stores none
}

func (g *Graph) restore(nr NodeRecord, rec *Record) (*Node, error) {
	if nr.UUID == "" {
		return nil, fmt.Errorf("%w: node record has no uuid", ErrMalformedSerialization)
	}
	if g.kinds == nil {
		return nil, fmt.Errorf("%w: %q (no node type registry)", ErrUnknownNodeType, nr.Type)
	}
	kind, ok := g.kinds.Kind(nr.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nr.Type)
	}

	n := NewNodeFromKind(kind, WithNodeID(nr.UUID), WithNodeName(nr.Name), WithPosition(nr.X, nr.Y))
	n.enabled = nr.Enabled
	for k, v := range nr.Properties {
		val, err := datatype.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %v", ErrMalformedSerialization, k, err)
		}
		n.properties[k] = val
	}

	inputs, err := matchPortRecords(n, Input, nr.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := matchPortRecords(n, Output, nr.Outputs)
	if err != nil {
		return nil, err
	}
	// Everything that can fail is resolved before the node joins the graph,
	// so a failed restore leaves the graph untouched.
	for _, ports := range [][]restoredPort{inputs, outputs} {
		if err := g.prepare(ports, rec); err != nil {
			return nil, err
		}
	}

	if _, err := g.AddNode(n, nil); err != nil {
		return nil, err
	}

	for _, out := range outputs {
		if out.port.exec || out.value == cty.NilVal || !out.port.OptionEnabled(Storable) {
			continue
		}
		out.port.value = g.coerce(out.port, out.value)
	}
	for _, in := range inputs {
		for _, peer := range in.peers {
			if !peer.HasSource(in.port) {
				link(peer, in.port)
			}
		}
		if in.port.IsConnected() || in.port.exec || in.value == cty.NilVal {
			continue
		}
		in.port.SetValue(g.coerce(in.port, in.value))
	}
	for _, out := range outputs {
		for _, peer := range out.peers {
			if !peer.HasSource(out.port) {
				link(out.port, peer)
			}
		}
	}
	return n, nil
}

// prepare resolves the peers and decodes the stored value of each port.
func (g *Graph) prepare(ports []restoredPort, rec *Record) error {
	for i := range ports {
		rp := &ports[i]
		for _, src := range rp.rec.Sources {
			peer, err := g.resolveSource(src, rec)
			if err != nil {
				return fmt.Errorf("%s %s: %w", rp.port.direction, rp.port.FullName(), err)
			}
			if peer != nil {
				rp.peers = append(rp.peers, peer)
			}
		}
		if rp.port.exec || rp.rec.Value == nil {
			continue
		}
		val, err := datatype.FromNative(rp.rec.Value)
		if err != nil {
			return fmt.Errorf("%w: value of %s: %v", ErrMalformedSerialization, rp.port.FullName(), err)
		}
		rp.value = val
	}
	return nil
}

// resolveSource finds the port a serialized reference names. A nil port
// with a nil error means the reference points at a node of rec that has
// not been created yet; the link is made from the other side later.
func (g *Graph) resolveSource(src string, rec *Record) (*Port, error) {
	peer, err := g.Port(src)
	if err == nil {
		return peer, nil
	}
	if rec != nil {
		if id, ok := nodeResolver(rec)(src); ok {
			if _, created := g.index[id]; !created {
				return nil, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: dangling source reference %q: %v", ErrMalformedSerialization, src, err)
}

func matchPortRecords(n *Node, dir Direction, recs map[string]PortRecord) ([]restoredPort, error) {
	byName := make(map[string]restoredPort, len(recs))
	for key, pr := range recs {
		p := findPort(n.ports(dir), pr.Name)
		if p == nil {
			return nil, fmt.Errorf("%w: node %s (%s) has no %s port %q", ErrMalformedSerialization, n.name, n.typeName, dir, pr.Name)
		}
		if pr.UUID != "" {
			p.id = pr.UUID
		} else {
			p.id = key
		}
		byName[pr.Name] = restoredPort{port: p, rec: pr}
	}

	out := make([]restoredPort, 0, len(byName))
	for _, p := range n.ports(dir) {
		if rp, ok := byName[p.name]; ok {
			out = append(out, rp)
		}
	}
	return out, nil
}
