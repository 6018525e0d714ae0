package math

import (
	_ "embed"
	"fmt"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the nodetype.Module interface for this package.
type Module struct{}

// Register registers the math behaviors and their manifest.
func (m *Module) Register(r *nodetype.Registry) {
	r.RegisterManifest("math/manifest.hcl", manifest)
	r.RegisterBehavior("math.add", binary(stdlib.AddFunc))
	r.RegisterBehavior("math.multiply", binary(stdlib.MultiplyFunc))
	r.RegisterBehavior("math.is_equal", func() graph.Behavior { return graph.BehaviorFunc(isEqual) })
}

// binary wraps a two-argument numeric cty function as a behavior reading
// inputs a and b and writing result.
func binary(fn function.Function) nodetype.BehaviorFactory {
	return func() graph.Behavior {
		return graph.BehaviorFunc(func(n *graph.Node) error {
			a, err := number(n, "a")
			if err != nil {
				return err
			}
			b, err := number(n, "b")
			if err != nil {
				return err
			}
			out, err := fn.Call([]cty.Value{a, b})
			if err != nil {
				return fmt.Errorf("%s: %w", n.Type(), err)
			}
			n.Output("result").SetValue(out)
			return nil
		})
	}
}

func isEqual(n *graph.Node) error {
	a, b := n.Input("a").Value(), n.Input("b").Value()
	if a.IsNull() || b.IsNull() {
		n.Output("result").SetValue(cty.BoolVal(a.IsNull() && b.IsNull()))
		return nil
	}
	// Compare across types the way a user expects: 1 equals "1".
	if !a.Type().Equals(b.Type()) {
		if converted, err := convert.Convert(b, a.Type()); err == nil {
			b = converted
		}
	}
	eq, err := stdlib.EqualFunc.Call([]cty.Value{a, b})
	if err != nil {
		return fmt.Errorf("math.is_equal: %w", err)
	}
	n.Output("result").SetValue(eq)
	return nil
}

// number reads a numeric input. Null reads as zero.
func number(n *graph.Node, port string) (cty.Value, error) {
	v := n.Input(port).Value()
	if v.IsNull() {
		return cty.Zero, nil
	}
	if !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("input %q is not known", port)
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("input %q: %w", port, err)
	}
	return num, nil
}
