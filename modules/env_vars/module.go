package env_vars

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the nodetype.Module interface for this package.
// Lookup and Environ default to the process environment.
type Module struct {
	Lookup  func(key string) (string, bool)
	Environ func() []string
}

// Register registers the env behaviors and their manifest.
func (m *Module) Register(r *nodetype.Registry) {
	lookup, environ := m.Lookup, m.Environ
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if environ == nil {
		environ = os.Environ
	}

	r.RegisterManifest("env_vars/manifest.hcl", manifest)
	r.RegisterBehavior("env.var", func() graph.Behavior {
		return graph.BehaviorFunc(func(n *graph.Node) error { return readVar(n, lookup) })
	})
	r.RegisterBehavior("env.all", func() graph.Behavior {
		return graph.BehaviorFunc(func(n *graph.Node) error { return readAll(n, environ) })
	})
}

func readVar(n *graph.Node, lookup func(string) (string, bool)) error {
	var name, fallback string
	if v := n.Input("name").Value(); !v.IsNull() {
		if err := gocty.FromCtyValue(v, &name); err != nil {
			return fmt.Errorf("env.var: name: %w", err)
		}
	}
	if v := n.Input("fallback").Value(); !v.IsNull() {
		if err := gocty.FromCtyValue(v, &fallback); err != nil {
			return fmt.Errorf("env.var: fallback: %w", err)
		}
	}

	value, found := "", false
	if name != "" {
		value, found = lookup(name)
	}
	if !found {
		value = fallback
	}
	n.Output("value").SetValue(cty.StringVal(value))
	n.Output("found").SetValue(cty.BoolVal(found))
	return nil
}

func readAll(n *graph.Node, environ func() []string) error {
	vars := make(map[string]cty.Value)
	for _, e := range environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			vars[pair[0]] = cty.StringVal(pair[1])
		}
	}
	if len(vars) == 0 {
		n.Output("vars").SetValue(cty.MapValEmpty(cty.String))
		return nil
	}
	n.Output("vars").SetValue(cty.MapVal(vars))
	return nil
}
