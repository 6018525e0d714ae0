package flow

import (
	_ "embed"
	"io"
	"os"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the nodetype.Module interface for this package.
type Module struct {
	// Out receives flow.print output. Defaults to os.Stdout.
	Out io.Writer
}

// Register registers the flow behaviors and their manifest.
func (m *Module) Register(r *nodetype.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.RegisterManifest("flow/manifest.hcl", manifest)
	r.RegisterBehavior("flow.print", func() graph.Behavior { return &printer{out: out} })
	r.RegisterBehavior("flow.branch", func() graph.Behavior { return &brancher{} })
	r.RegisterBehavior("flow.timer", func() graph.Behavior { return &timer{} })
}
