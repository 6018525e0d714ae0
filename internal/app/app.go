package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/nodetype"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx     context.Context
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	modules []nodetype.Module

	registry *nodetype.Registry
	model    *config.Model

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without modules it registers CoreModules. Log output and flow.print output
// both go to outW.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...nodetype.Module) (*App, error) {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = CoreModules(outW)
	}
	a := &App{
		ctx:     ctxlog.WithLogger(context.Background(), logger),
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		modules: modules,
	}
	if err := a.load(a.ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry returns the application's node type registry.
func (a *App) Registry() *nodetype.Registry {
	return a.registry
}

// Model returns the loaded configuration model.
func (a *App) Model() *config.Model {
	return a.model
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
