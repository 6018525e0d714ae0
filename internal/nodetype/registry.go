package nodetype

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/datatype"
	"github.com/vk/nodegraph/internal/graph"
)

// Module is the interface that all node modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// BehaviorFactory creates a fresh behavior for every node instance.
type BehaviorFactory func() graph.Behavior

// Manifest is an HCL manifest a module ships with its Go code.
type Manifest struct {
	Filename string
	Source   []byte
}

// Registry holds the registered behaviors, manifests and node type
// definitions for a single application instance.
type Registry struct {
	mu          sync.RWMutex
	behaviors   map[string]BehaviorFactory
	manifests   []Manifest
	definitions map[string]*config.NodeTypeDefinition
	kinds       map[string]graph.Kind
	types       *datatype.Registry
	logger      *slog.Logger
}

var _ graph.Kinds = (*Registry)(nil)

// New creates an empty registry whose port types resolve against types.
// A nil types gets the built-in data types.
func New(types *datatype.Registry) *Registry {
	if types == nil {
		types = datatype.NewWithBuiltins()
	}
	return &Registry{
		behaviors:   make(map[string]BehaviorFactory),
		definitions: make(map[string]*config.NodeTypeDefinition),
		kinds:       make(map[string]graph.Kind),
		types:       types,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// SetLogger replaces the registry's logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// DataTypes returns the data type registry port types resolve against.
func (r *Registry) DataTypes() *datatype.Registry { return r.types }

// RegisterModules lets every module register itself.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// RegisterBehavior registers the Go behavior a manifest refers to by name.
func (r *Registry) RegisterBehavior(name string, factory BehaviorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.behaviors[name]; exists {
		panic(fmt.Sprintf("behavior with name '%s' already registered", name))
	}
	r.logger.Debug("Registering behavior.", "name", name)
	r.behaviors[name] = factory
}

// RegisterManifest records an HCL manifest to be loaded with the rest of
// the configuration.
func (r *Registry) RegisterManifest(filename string, src []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("Registering manifest.", "file", filename)
	r.manifests = append(r.manifests, Manifest{Filename: filename, Source: src})
}

// Manifests returns the registered manifests in registration order.
func (r *Registry) Manifests() []Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Manifest(nil), r.manifests...)
}

// LoadManifests parses every registered manifest with loader and merges
// them into one model.
func (r *Registry) LoadManifests(ctx context.Context, loader config.Loader) (*config.Model, error) {
	model := config.NewModel()
	for _, m := range r.Manifests() {
		part, err := loader.LoadSource(ctx, m.Filename, m.Source)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(part); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// HasBehavior reports whether a behavior is registered under name.
func (r *Registry) HasBehavior(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.behaviors[name]
	return ok
}

// PopulateDefinitionsFromModel registers the model's data types and defines
// its node types. Data types come first so node types can use them.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) error {
	names := make([]string, 0, len(model.DataTypes))
	for name := range model.DataTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := model.DataTypes[name]
		if err := r.types.Register(def.Name, def.Type, def.Color, def.Label, def.Default); err != nil {
			return fmt.Errorf("%s: %w", def.Source, err)
		}
	}

	types := make([]string, 0, len(model.NodeTypes))
	for name := range model.NodeTypes {
		types = append(types, name)
	}
	sort.Strings(types)
	for _, name := range types {
		if err := r.Define(model.NodeTypes[name]); err != nil {
			return err
		}
	}
	return nil
}

// Define turns a node type definition into a constructible kind. A later
// definition of the same type replaces the earlier one.
func (r *Registry) Define(def *config.NodeTypeDefinition) error {
	kind := graph.Kind{
		Type:        def.Type,
		Category:    def.Category,
		Description: def.Description,
		Keywords:    append([]string(nil), def.Keywords...),
	}
	for _, group := range []struct {
		defs []*config.PortDefinition
		into *[]graph.PortSpec
	}{
		{def.Inputs, &kind.Inputs},
		{def.Outputs, &kind.Outputs},
	} {
		for _, pd := range group.defs {
			spec, err := portSpec(pd)
			if err != nil {
				return fmt.Errorf("node type %q, port %q: %w", def.Type, pd.Name, err)
			}
			*group.into = append(*group.into, spec)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if factory, ok := r.behaviors[behaviorName(def)]; ok {
		kind.NewBehavior = func() graph.Behavior { return factory() }
	}
	if _, exists := r.definitions[def.Type]; exists {
		r.logger.Warn("Redefining node type.", "node_type", def.Type, "source", def.Source)
	}
	r.definitions[def.Type] = def
	r.kinds[def.Type] = kind
	r.logger.Debug("Defined node type.", "node_type", def.Type, "inputs", len(kind.Inputs), "outputs", len(kind.Outputs))
	return nil
}

func behaviorName(def *config.NodeTypeDefinition) string {
	if def.Behavior != "" {
		return def.Behavior
	}
	return def.Type
}

func portSpec(pd *config.PortDefinition) (graph.PortSpec, error) {
	structure, err := graph.ParseStructure(pd.Structure)
	if err != nil {
		return graph.PortSpec{}, err
	}
	flags, err := graph.ParseFlags(pd.Options)
	if err != nil {
		return graph.PortSpec{}, err
	}
	spec := graph.PortSpec{
		Name:           pd.Name,
		DataType:       pd.DataType,
		Structure:      structure,
		Flags:          flags,
		SupportedTypes: append([]string(nil), pd.SupportedTypes...),
		Description:    pd.Description,
	}
	if pd.Default != nil {
		spec.Default = *pd.Default
	}
	return spec, nil
}

// Kind implements graph.Kinds.
func (r *Registry) Kind(typeName string) (graph.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[typeName]
	return k, ok
}

// Definition returns the manifest a node type was defined from.
func (r *Registry) Definition(typeName string) (*config.NodeTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.definitions[typeName]
	return d, ok
}

// Types returns the defined node type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Categories groups the defined node types by category. Types without a
// category are listed under "other".
func (r *Registry) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, name := range r.Types() {
		k, _ := r.Kind(name)
		category := k.Category
		if category == "" {
			category = "other"
		}
		out[category] = append(out[category], name)
	}
	return out
}
