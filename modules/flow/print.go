package flow

import (
	"fmt"
	"io"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// printer writes "<node-name>: <value>" lines. Driven by its exec input it
// prints on every call; unconnected, it prints whenever evaluated.
type printer struct {
	out io.Writer
}

func (p *printer) Evaluate(n *graph.Node) error {
	if n.Input("inExec").IsConnected() {
		return nil
	}
	return p.print(n)
}

func (p *printer) Call(n *graph.Node, _ *graph.Port) error {
	n.Refresh()
	if err := p.print(n); err != nil {
		return err
	}
	return n.Output(graph.DefaultOutExecName).Call()
}

func (p *printer) print(n *graph.Node) error {
	text, err := format(n.Input("value").Value())
	if err != nil {
		return fmt.Errorf("flow.print: %w", err)
	}
	_, err = fmt.Fprintf(p.out, "%s: %s\n", n.Name(), text)
	return err
}

// format renders strings bare and everything else as JSON.
func format(v cty.Value) (string, error) {
	if v.IsNull() {
		return "null", nil
	}
	if v.Type() == cty.String && v.IsKnown() {
		return v.AsString(), nil
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
