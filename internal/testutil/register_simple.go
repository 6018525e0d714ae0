package testutil

import (
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single behavior, optionally with an embedded manifest.
type SimpleModule struct {
	BehaviorName string
	Behavior     func(n *graph.Node) error

	// Manifest, when set, is registered as "<BehaviorName>.hcl".
	Manifest string
}

// Register implements the nodetype.Module interface.
func (m *SimpleModule) Register(r *nodetype.Registry) {
	if m.Manifest != "" {
		r.RegisterManifest(m.BehaviorName+".hcl", []byte(m.Manifest))
	}
	if m.BehaviorName != "" && m.Behavior != nil {
		fn := m.Behavior
		r.RegisterBehavior(m.BehaviorName, func() graph.Behavior { return graph.BehaviorFunc(fn) })
	}
}
