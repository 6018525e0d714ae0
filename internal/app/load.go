package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/nodetype"
)

// LoadRegistry builds a validated node type registry from modules, their
// embedded manifests and every .hcl file under paths. Paths that do not
// exist are skipped by the loader.
func LoadRegistry(ctx context.Context, loader config.Loader, modules []nodetype.Module, paths ...string) (*nodetype.Registry, *config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	reg := nodetype.New(nil)
	reg.SetLogger(logger)
	reg.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	model, err := reg.LoadManifests(ctx, loader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load module manifests: %w", err)
	}
	if len(paths) > 0 {
		user, err := loader.Load(ctx, paths...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := model.Merge(user); err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		slog.Int("data_types", len(model.DataTypes)),
		slog.Int("node_types", len(model.NodeTypes)),
		slog.Int("graphs", len(model.Graphs)))

	if err := reg.PopulateDefinitionsFromModel(model); err != nil {
		return nil, nil, fmt.Errorf("failed to populate registry: %w", err)
	}
	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, nil, err
	}
	logger.Debug("Registry validation passed.", "node_types", len(reg.Types()))
	return reg, model, nil
}

// load rebuilds the App's registry and model. They are replaced only on
// success, so a watch-mode reload with a broken file keeps the previous
// state.
func (a *App) load(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Loading modules...", "modules_path", a.config.ModulesPath)

	var paths []string
	if a.config.ModulesPath != "" {
		paths = append(paths, a.config.ModulesPath)
	}
	if !a.config.IsRecord() {
		paths = append(paths, a.config.Path)
	}
	reg, model, err := LoadRegistry(ctx, a.loader, a.modules, paths...)
	if err != nil {
		return err
	}
	a.registry = reg
	a.model = model
	return nil
}
