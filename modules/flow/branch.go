package flow

import (
	"fmt"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/zclconf/go-cty/cty/gocty"
)

type brancher struct{}

func (b *brancher) Evaluate(*graph.Node) error { return nil }

func (b *brancher) Call(n *graph.Node, _ *graph.Port) error {
	n.Refresh()
	cond := false
	if v := n.Input("condition").Value(); !v.IsNull() {
		if err := gocty.FromCtyValue(v, &cond); err != nil {
			return fmt.Errorf("flow.branch: condition: %w", err)
		}
	}
	next := "false"
	if cond {
		next = "true"
	}
	n.Logger().Debug("Branch taken.", "output", next, "condition", cond)
	return n.Output(next).Call()
}
