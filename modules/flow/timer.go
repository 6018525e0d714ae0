package flow

import (
	"fmt"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// timer accumulates ticked time and fires outExec once per interval
// crossed. A non-positive interval never fires.
type timer struct {
	elapsed float64
	pending float64
}

func (t *timer) Evaluate(*graph.Node) error { return nil }

func (t *timer) Tick(n *graph.Node, delta float64) error {
	var interval float64
	if v := n.Input("interval").Value(); !v.IsNull() {
		if err := gocty.FromCtyValue(v, &interval); err != nil {
			return fmt.Errorf("flow.timer: interval: %w", err)
		}
	}

	t.elapsed += delta
	t.pending += delta
	n.Output("elapsed").SetValue(cty.NumberFloatVal(t.elapsed))
	if interval <= 0 {
		return nil
	}

	out := n.Output(graph.DefaultOutExecName)
	for t.pending >= interval {
		t.pending -= interval
		if err := out.Call(); err != nil {
			return err
		}
	}
	return nil
}
