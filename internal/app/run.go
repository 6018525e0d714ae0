package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/nodegraph/internal/badgerstore"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/eventbridge"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/graphstore"
	"github.com/vk/nodegraph/internal/inmemorystore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GraphSummary describes one graph after a run.
type GraphSummary struct {
	Name        string
	Evaluation  graph.EvaluationModel
	Nodes       int
	Connectors  int
	Evaluations int
	// Failed lists "<node>: <error>" for nodes whose last evaluation failed.
	Failed []string
}

// Report is the outcome of one run.
type Report struct {
	Frames int
	Graphs []GraphSummary
	// StoreKeys lists the records held by the store after the run.
	StoreKeys []string
}

// Run executes the main application logic based on the provided
// configuration. In watch mode it blocks until ctx is done, re-running
// whenever a watched file changes, and returns the last report.
func (a *App) Run(ctx context.Context) (*Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer()
		defer func() { _ = a.closeHealthCheckServer() }()
	}

	store, closeStore, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	var bridge *eventbridge.Bridge
	if a.config.BridgeURL != "" {
		bridge, err = eventbridge.Connect(ctx, a.config.BridgeURL, eventbridge.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect event bridge: %w", err)
		}
		defer bridge.Close()
	}

	if a.config.Watch {
		return a.watch(ctx, store, bridge)
	}
	return a.runOnce(ctx, store, bridge)
}

func (a *App) openStore() (graphstore.Store, func(), error) {
	if a.config.StoreDir == "" {
		return inmemorystore.New(), func() {}, nil
	}
	s, err := badgerstore.Open(a.config.StoreDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, func() {
		if err := s.Close(); err != nil {
			a.logger.Error("Failed to close store.", "error", err)
		}
	}, nil
}

// runOnce builds, drives, persists and reports every graph once.
func (a *App) runOnce(ctx context.Context, store graphstore.Store, bridge *eventbridge.Bridge) (*Report, error) {
	ctx, span := tracer.Start(ctx, "app.Run",
		trace.WithAttributes(
			attribute.String("run.path", a.config.Path),
			attribute.Int("run.frames", a.config.Frames),
		),
	)
	defer span.End()

	report, err := a.drive(ctx, store, bridge)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return report, nil
}

func (a *App) drive(ctx context.Context, store graphstore.Store, bridge *eventbridge.Bridge) (*Report, error) {
	graphs, err := a.graphs(ctx)
	if err != nil {
		return nil, err
	}
	if a.config.OutPath != "" && len(graphs) > 1 {
		return nil, errors.New("--out needs a single graph; select one with --graph")
	}

	report := &Report{Frames: a.config.Frames}
	for _, g := range graphs {
		if err := a.driveGraph(ctx, g, store, bridge); err != nil {
			return nil, err
		}
		report.Graphs = append(report.Graphs, summarize(g))
	}

	keys, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored graphs: %w", err)
	}
	report.StoreKeys = keys
	return report, nil
}

// driveGraph ticks g, then stores and optionally writes its record. The
// event listeners are removed however the frames end.
func (a *App) driveGraph(ctx context.Context, g *graph.Graph, store graphstore.Store, bridge *eventbridge.Bridge) error {
	ctx, logger := ctxlog.With(ctx, "graph", g.Name())
	defer instrument(ctx, g)()
	if bridge != nil {
		defer bridge.Attach(g)()
	}

	logger.Info("🚀 Driving graph.", "nodes", g.Len(), "frames", a.config.Frames, "evaluation", g.EvaluationModel())
	if err := a.frames(ctx, g); err != nil {
		return err
	}

	rec := g.Serialize()
	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to store graph %q: %w", g.Name(), err)
	}
	if a.config.OutPath != "" {
		if err := writeRecord(a.config.OutPath, rec); err != nil {
			return err
		}
		logger.Info("Graph written.", "path", a.config.OutPath)
	}
	logger.Info("🏁 Graph finished.")
	return nil
}

// frames ticks g Config.Frames times. Pull graphs are brought up to date
// before the first frame and after each one.
func (a *App) frames(ctx context.Context, g *graph.Graph) error {
	pull := g.EvaluationModel() == graph.Pull
	if pull {
		g.Pull()
	}
	for i := 0; i < a.config.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Tick(a.config.Delta); err != nil {
			a.logger.Warn("Frame reported an error.", "graph", g.Name(), "frame", i, "error", err)
		}
		if pull {
			g.Pull()
		}
		recordFrame(ctx, g)
	}
	return nil
}

func summarize(g *graph.Graph) GraphSummary {
	s := GraphSummary{
		Name:       g.Name(),
		Evaluation: g.EvaluationModel(),
		Nodes:      g.Len(),
		Connectors: len(g.Connectors()),
	}
	for _, n := range g.Nodes() {
		s.Evaluations += n.EvalCount()
		if err := n.LastError(); err != nil {
			s.Failed = append(s.Failed, fmt.Sprintf("%s: %v", n.Name(), err))
		}
	}
	return s
}

func writeRecord(path string, rec *graph.Record) error {
	data, err := graph.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}
