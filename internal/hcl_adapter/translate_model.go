// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateDataType converts a data_type block. The default, when given,
// is converted to the declared type.
func translateDataType(ctx context.Context, b *DataTypeBlock, source string) (*config.DataTypeDefinition, error) {
	name := strings.ToLower(strings.TrimSpace(b.Name))
	if name == "" {
		return nil, fmt.Errorf("%s: data_type needs a name", source)
	}
	ty := cty.DynamicPseudoType
	if isExprDefined(ctx, b.Type, "type") {
		var err error
		if ty, err = typeExprToCtyType(ctx, b.Type); err != nil {
			return nil, fmt.Errorf("%s: in data_type '%s': %w", source, name, err)
		}
	}

	def := &config.DataTypeDefinition{
		Name:   name,
		Type:   ty,
		Color:  b.Color,
		Label:  b.Label,
		Source: source,
	}
	val, ok, err := exprValue(ctx, b.Default, "default")
	if err != nil {
		return nil, fmt.Errorf("%s: in data_type '%s': %w", source, name, err)
	}
	if ok {
		if ty != cty.DynamicPseudoType {
			val, err = convert.Convert(val, ty)
			if err != nil {
				return nil, fmt.Errorf("%s: default of data_type '%s' does not match its type: %w", source, name, err)
			}
		}
		def.Default = val
	}
	return def, nil
}

// translateNodeType converts a node_type manifest.
func translateNodeType(ctx context.Context, b *NodeTypeBlock, source string) (*config.NodeTypeDefinition, error) {
	ctx, logger := ctxlog.With(ctx, "node_type", b.Type)
	logger.Debug("Translating HCL node type to internal config model.")

	if strings.TrimSpace(b.Type) == "" {
		return nil, fmt.Errorf("%s: node_type needs a type label", source)
	}
	def := &config.NodeTypeDefinition{
		Type:        b.Type,
		Category:    b.Category,
		Description: b.Description,
		Keywords:    b.Keywords,
		Behavior:    b.Behavior,
		Source:      source,
	}

	seen := make(map[string]struct{})
	for _, group := range []struct {
		kind   string
		blocks []*PortBlock
		into   *[]*config.PortDefinition
	}{
		{"input", b.Inputs, &def.Inputs},
		{"output", b.Outputs, &def.Outputs},
	} {
		for _, pb := range group.blocks {
			if _, dup := seen[pb.Name]; dup {
				return nil, fmt.Errorf("%s: in node_type '%s': port name '%s' is used twice", source, b.Type, pb.Name)
			}
			seen[pb.Name] = struct{}{}
			port, err := translatePort(ctx, pb)
			if err != nil {
				return nil, fmt.Errorf("%s: in node_type '%s', %s '%s': %w", source, b.Type, group.kind, pb.Name, err)
			}
			*group.into = append(*group.into, port)
		}
	}
	return def, nil
}

func translatePort(ctx context.Context, b *PortBlock) (*config.PortDefinition, error) {
	dataType, structure, err := portTypeFromExpr(ctx, b.Type)
	if err != nil {
		return nil, err
	}
	if b.Structure != "" {
		if structure != "" && !strings.EqualFold(structure, b.Structure) {
			return nil, fmt.Errorf("structure %q contradicts the %s() type", b.Structure, structure)
		}
		structure = strings.ToLower(b.Structure)
	}

	port := &config.PortDefinition{
		Name:           b.Name,
		DataType:       dataType,
		Structure:      structure,
		Description:    b.Description,
		Options:        b.Options,
		SupportedTypes: b.SupportedTypes,
	}
	val, ok, err := exprValue(ctx, b.Default, "default")
	if err != nil {
		return nil, err
	}
	if ok && !val.IsNull() {
		port.Default = &val
	}
	return port, nil
}

// translateGraph converts a graph layout.
func translateGraph(ctx context.Context, b *GraphBlock, source string) (*config.GraphLayout, error) {
	layout := &config.GraphLayout{
		Name:       b.Name,
		Evaluation: b.Evaluation,
		Acyclic:    true,
		Source:     source,
	}
	if b.Acyclic != nil {
		layout.Acyclic = *b.Acyclic
	}

	for _, nb := range b.Nodes {
		node, err := translateNode(ctx, nb)
		if err != nil {
			return nil, fmt.Errorf("%s: in graph '%s', node '%s': %w", source, b.Name, nb.Name, err)
		}
		layout.Nodes = append(layout.Nodes, node)
	}
	for _, lb := range b.Links {
		layout.Links = append(layout.Links, &config.LinkLayout{From: lb.From, To: lb.To})
	}
	return layout, nil
}

func translateNode(ctx context.Context, b *NodeBlock) (*config.NodeLayout, error) {
	x, y, err := position(ctx, b.Position)
	if err != nil {
		return nil, err
	}
	inputs, err := valueMap(ctx, b.Inputs, "inputs")
	if err != nil {
		return nil, err
	}
	props, err := valueMap(ctx, b.Properties, "properties")
	if err != nil {
		return nil, err
	}

	node := &config.NodeLayout{
		Type:       b.Type,
		Name:       b.Name,
		X:          x,
		Y:          y,
		Enabled:    true,
		Inputs:     inputs,
		Properties: props,
	}
	if b.Enabled != nil {
		node.Enabled = *b.Enabled
	}
	return node, nil
}
