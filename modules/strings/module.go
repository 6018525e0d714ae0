package strings

import (
	_ "embed"
	"fmt"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the nodetype.Module interface for this package.
type Module struct{}

// Register registers the string behaviors and their manifest.
func (m *Module) Register(r *nodetype.Registry) {
	r.RegisterManifest("strings/manifest.hcl", manifest)
	r.RegisterBehavior("strings.upper", func() graph.Behavior { return graph.BehaviorFunc(upper) })
	r.RegisterBehavior("strings.join", func() graph.Behavior { return graph.BehaviorFunc(join) })
}

func upper(n *graph.Node) error {
	text, err := str(n.Input("text").Value())
	if err != nil {
		return fmt.Errorf("strings.upper: %w", err)
	}
	out, err := stdlib.UpperFunc.Call([]cty.Value{text})
	if err != nil {
		return fmt.Errorf("strings.upper: %w", err)
	}
	n.Output("result").SetValue(out)
	return nil
}

func join(n *graph.Node) error {
	sep, err := str(n.Input("separator").Value())
	if err != nil {
		return fmt.Errorf("strings.join: separator: %w", err)
	}
	items := n.Input("items").Value()
	if items.IsNull() || items.LengthInt() == 0 {
		n.Output("result").SetValue(cty.StringVal(""))
		return nil
	}
	list, err := convert.Convert(items, cty.List(cty.String))
	if err != nil {
		return fmt.Errorf("strings.join: items: %w", err)
	}
	out, err := stdlib.JoinFunc.Call([]cty.Value{sep, list})
	if err != nil {
		return fmt.Errorf("strings.join: %w", err)
	}
	n.Output("result").SetValue(out)
	return nil
}

// str converts v to a string. Null reads as empty.
func str(v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		return cty.StringVal(""), nil
	}
	return convert.Convert(v, cty.String)
}
