package app

import (
	"context"
	"sync"

	"github.com/vk/nodegraph/internal/graph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter. Without an installed SDK they are no-ops.
var (
	tracer = otel.Tracer("nodegraph.app")
	meter  = otel.Meter("nodegraph.app")
)

var (
	evaluations metric.Int64Counter
	ticks       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		evaluations, err = meter.Int64Counter(
			"nodegraph_node_evaluations_total",
			metric.WithDescription("Total number of node evaluations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		ticks, err = meter.Int64Counter(
			"nodegraph_frames_total",
			metric.WithDescription("Total number of frames driven"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// instrument records graph events on the metrics and returns the
// unsubscribe function.
func instrument(ctx context.Context, g *graph.Graph) func() {
	if err := initMetrics(); err != nil {
		return func() {}
	}
	graphAttr := attribute.String("graph", g.Name())
	return g.Subscribe(func(ev graph.Event) {
		if ev.Kind != graph.NodeEvaluated {
			return
		}
		evaluations.Add(ctx, 1, metric.WithAttributes(graphAttr, attribute.String("node_type", ev.Node.Type())))
	})
}

func recordFrame(ctx context.Context, g *graph.Graph) {
	if err := initMetrics(); err != nil {
		return
	}
	ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("graph", g.Name())))
}
