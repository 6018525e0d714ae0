package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// loader found: data types, node type manifests and graph layouts.
type Model struct {
	DataTypes map[string]*DataTypeDefinition
	NodeTypes map[string]*NodeTypeDefinition
	Graphs    []*GraphLayout
}

// NewModel returns an empty model with its maps allocated.
func NewModel() *Model {
	return &Model{
		DataTypes: make(map[string]*DataTypeDefinition),
		NodeTypes: make(map[string]*NodeTypeDefinition),
	}
}

// Merge folds other into m. A data type, node type or graph declared in
// both is an error.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	for name, def := range other.DataTypes {
		if prev, exists := m.DataTypes[name]; exists {
			return fmt.Errorf("data_type %q declared twice (%s and %s)", name, prev.Source, def.Source)
		}
		m.DataTypes[name] = def
	}
	for name, def := range other.NodeTypes {
		if prev, exists := m.NodeTypes[name]; exists {
			return fmt.Errorf("node_type %q declared twice (%s and %s)", name, prev.Source, def.Source)
		}
		m.NodeTypes[name] = def
	}
	for _, g := range other.Graphs {
		if prev := m.Graph(g.Name); prev != nil {
			return fmt.Errorf("graph %q declared twice (%s and %s)", g.Name, prev.Source, g.Source)
		}
		m.Graphs = append(m.Graphs, g)
	}
	return nil
}

// Graph returns the layout with the given name, or nil.
func (m *Model) Graph(name string) *GraphLayout {
	for _, g := range m.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// --- Manifest models ---

// DataTypeDefinition is the format-agnostic representation of a
// `data_type` block.
type DataTypeDefinition struct {
	Name string
	Type cty.Type
	// Default is cty.NilVal when the manifest leaves it out.
	Default cty.Value
	Color   string
	Label   string
	Source  string
}

// NodeTypeDefinition is the format-agnostic representation of a
// `node_type` manifest. Ports keep their declaration order.
type NodeTypeDefinition struct {
	Type        string
	Category    string
	Description string
	Keywords    []string
	// Behavior names the Go behavior registered for this node type. Empty
	// means the type name itself.
	Behavior string
	Inputs   []*PortDefinition
	Outputs  []*PortDefinition
	Source   string
}

// PortDefinition defines a single input or output of a node type.
type PortDefinition struct {
	Name        string
	DataType    string
	Structure   string
	Description string
	// Default is nil when the manifest leaves it out.
	Default        *cty.Value
	Options        []string
	SupportedTypes []string
}

// --- Layout models ---

// GraphLayout is the format-agnostic representation of a `graph` block.
type GraphLayout struct {
	Name       string
	Evaluation string
	Acyclic    bool
	Nodes      []*NodeLayout
	Links      []*LinkLayout
	Source     string
}

// NodeLayout places one node in a graph layout.
type NodeLayout struct {
	Type       string
	Name       string
	X, Y       float64
	Enabled    bool
	Inputs     map[string]cty.Value
	Properties map[string]cty.Value
}

// LinkLayout connects two dotted port references.
type LinkLayout struct {
	From string
	To   string
}
