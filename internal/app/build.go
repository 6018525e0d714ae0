package app

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (a *App) graphOptions(extra ...graph.GraphOption) []graph.GraphOption {
	return append([]graph.GraphOption{
		graph.WithKinds(a.registry),
		graph.WithDataTypes(a.registry.DataTypes()),
		graph.WithLogger(a.logger),
	}, extra...)
}

// BuildLayout instantiates a graph from a layout: every node first, then
// every link. All link failures are reported together.
func (a *App) BuildLayout(ctx context.Context, layout *config.GraphLayout) (*graph.Graph, error) {
	ctx, span := tracer.Start(ctx, "app.BuildLayout",
		trace.WithAttributes(
			attribute.String("graph.name", layout.Name),
			attribute.Int("graph.node_count", len(layout.Nodes)),
			attribute.Int("graph.link_count", len(layout.Links)),
		),
	)
	defer span.End()
	logger := ctxlog.FromContext(ctx).With("graph", layout.Name)

	g, err := a.buildLayout(layout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	logger.Debug("Graph built from layout.", "nodes", g.Len(), "connectors", len(g.Connectors()), "source", layout.Source)
	span.SetStatus(codes.Ok, "")
	return g, nil
}

func (a *App) buildLayout(layout *config.GraphLayout) (*graph.Graph, error) {
	model, err := graph.ParseEvaluationModel(layout.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", layout.Name, err)
	}
	g := graph.New(a.graphOptions(
		graph.WithName(layout.Name),
		graph.WithEvaluationModel(model),
		graph.WithAcyclic(layout.Acyclic),
	)...)

	for _, nl := range layout.Nodes {
		n, err := g.CreateNode(nl.Type, nl.Inputs,
			graph.WithNodeName(nl.Name),
			graph.WithPosition(nl.X, nl.Y),
			graph.WithEnabled(nl.Enabled),
		)
		if err != nil {
			return nil, fmt.Errorf("graph %q, node %q: %w", layout.Name, nl.Name, err)
		}
		if n.Name() != nl.Name && nl.Name != "" {
			return nil, fmt.Errorf("graph %q: node name %q is used twice", layout.Name, nl.Name)
		}
		for key, v := range nl.Properties {
			if err := n.AddProperty(key, v); err != nil {
				return nil, fmt.Errorf("graph %q, node %q: %w", layout.Name, nl.Name, err)
			}
		}
	}

	var result *multierror.Error
	for _, link := range layout.Links {
		ok, err := g.ConnectRefs(link.From, link.To)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("link %s -> %s: %w", link.From, link.To, err))
		case !ok:
			result = multierror.Append(result, fmt.Errorf("link %s -> %s: connection is not allowed", link.From, link.To))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("graph %q: %w", layout.Name, err)
	}
	return g, nil
}

// LoadRecord reads a serialized graph from path and restores it.
func (a *App) LoadRecord(ctx context.Context, path string) (*graph.Graph, error) {
	_, span := tracer.Start(ctx, "app.LoadRecord", trace.WithAttributes(attribute.String("graph.path", path)))
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	rec, err := graph.ParseRecord(data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse graph %s: %w", path, err)
	}
	g, err := graph.FromData(rec, a.graphOptions()...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to restore graph %s: %w", path, err)
	}
	return g, nil
}

// graphs builds every graph this run drives, honoring Config.Graph.
func (a *App) graphs(ctx context.Context) ([]*graph.Graph, error) {
	if a.config.IsRecord() {
		g, err := a.LoadRecord(ctx, a.config.Path)
		if err != nil {
			return nil, err
		}
		return []*graph.Graph{g}, nil
	}

	layouts := a.model.Graphs
	if a.config.Graph != "" {
		layout := a.model.Graph(a.config.Graph)
		if layout == nil {
			return nil, fmt.Errorf("graph %q not found in %s", a.config.Graph, a.config.Path)
		}
		layouts = []*config.GraphLayout{layout}
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no graph layouts found in %s", a.config.Path)
	}

	out := make([]*graph.Graph, 0, len(layouts))
	for _, layout := range layouts {
		g, err := a.BuildLayout(ctx, layout)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
