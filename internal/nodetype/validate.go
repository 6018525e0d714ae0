package nodetype

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/datatype"
)

// ValidateRegistry performs a parity check between manifests and Go code.
// Every node type must name a registered behavior and every port must use a
// registered data type. All problems are reported together.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var result *multierror.Error

	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		types = append(types, name)
	}
	sort.Strings(types)

	used := make(map[string]struct{})
	for _, typeName := range types {
		def := r.definitions[typeName]
		behavior := behaviorName(def)
		used[behavior] = struct{}{}
		if _, ok := r.behaviors[behavior]; !ok {
			result = multierror.Append(result, fmt.Errorf("node type '%s': behavior '%s' is not registered", typeName, behavior))
		}

		all := append(append([]*config.PortDefinition(nil), def.Inputs...), def.Outputs...)
		for _, pd := range all {
			if pd.DataType != datatype.Any && !r.types.Has(pd.DataType) {
				result = multierror.Append(result, fmt.Errorf("node type '%s', port '%s': data type '%s' is not registered", typeName, pd.Name, pd.DataType))
			}
			for _, st := range pd.SupportedTypes {
				if !r.types.Has(st) {
					result = multierror.Append(result, fmt.Errorf("node type '%s', port '%s': supported type '%s' is not registered", typeName, pd.Name, st))
				}
			}
			if pd.DataType == datatype.Any && len(pd.SupportedTypes) == 0 {
				logger.Warn("Port accepts any data type, which disables static type checking.", "node_type", typeName, "port", pd.Name)
			}
		}
	}

	for name := range r.behaviors {
		if _, ok := used[name]; !ok {
			logger.Warn("Behavior is registered but no manifest uses it.", "behavior", name)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	return nil
}
