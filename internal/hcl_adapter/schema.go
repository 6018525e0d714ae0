package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	DataTypes []*DataTypeBlock `hcl:"data_type,block"`
	NodeTypes []*NodeTypeBlock `hcl:"node_type,block"`
	Graphs    []*GraphBlock    `hcl:"graph,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// --- Manifest schemas ---

// DataTypeBlock declares a data type. Type is a cty type expression such
// as `number` or `list(string)`.
type DataTypeBlock struct {
	Name    string         `hcl:"name,label"`
	Type    hcl.Expression `hcl:"type,optional"`
	Color   string         `hcl:"color,optional"`
	Label   string         `hcl:"label,optional"`
	Default hcl.Expression `hcl:"default,optional"`
}

// NodeTypeBlock is the manifest of a node type.
type NodeTypeBlock struct {
	Type        string       `hcl:"type,label"`
	Category    string       `hcl:"category,optional"`
	Description string       `hcl:"description,optional"`
	Keywords    []string     `hcl:"keywords,optional"`
	Behavior    string       `hcl:"behavior,optional"`
	Inputs      []*PortBlock `hcl:"input,block"`
	Outputs     []*PortBlock `hcl:"output,block"`
}

// PortBlock declares one input or output. Type is a data type keyword,
// optionally wrapped in list() or map().
type PortBlock struct {
	Name           string         `hcl:"name,label"`
	Type           hcl.Expression `hcl:"type,optional"`
	Default        hcl.Expression `hcl:"default,optional"`
	Structure      string         `hcl:"structure,optional"`
	Options        []string       `hcl:"options,optional"`
	SupportedTypes []string       `hcl:"supported_types,optional"`
	Description    string         `hcl:"description,optional"`
}

// --- Layout schemas ---

// GraphBlock is a graph layout.
type GraphBlock struct {
	Name       string       `hcl:"name,label"`
	Evaluation string       `hcl:"evaluation,optional"`
	Acyclic    *bool        `hcl:"acyclic,optional"`
	Nodes      []*NodeBlock `hcl:"node,block"`
	Links      []*LinkBlock `hcl:"link,block"`
}

// NodeBlock places a node of a given type in a layout.
type NodeBlock struct {
	Type       string         `hcl:"node_type,label"`
	Name       string         `hcl:"node_name,label"`
	Position   hcl.Expression `hcl:"position,optional"`
	Inputs     hcl.Expression `hcl:"inputs,optional"`
	Enabled    *bool          `hcl:"enabled,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
}

// LinkBlock connects two ports by dotted reference.
type LinkBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}
