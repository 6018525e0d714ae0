package value

import (
	_ "embed"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the nodetype.Module interface for this package.
type Module struct{}

// Register registers the constant behaviors and their manifest.
func (m *Module) Register(r *nodetype.Registry) {
	r.RegisterManifest("value/manifest.hcl", manifest)
	for _, name := range []string{"value.numeric", "value.string", "value.boolean"} {
		r.RegisterBehavior(name, func() graph.Behavior { return graph.BehaviorFunc(forward) })
	}
}

// forward publishes the stored value.
func forward(n *graph.Node) error {
	n.Output("out").SetValue(n.Input("value").Value())
	return nil
}
