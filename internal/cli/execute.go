package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/vk/nodegraph/internal/app"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/hcl_adapter"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	titleColor = color.New(color.FgCyan, color.Bold)
)

// Execute runs a parsed command, writing logs and summaries to outW.
func Execute(ctx context.Context, cmd *Command, outW io.Writer) error {
	switch cmd.Name {
	case "run":
		return runGraphs(ctx, cmd.Config, outW)
	case "validate":
		return validate(ctx, cmd.Config, outW)
	case "types":
		return listTypes(ctx, cmd, outW)
	}
	return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cmd.Name)}
}

func runGraphs(ctx context.Context, cfg *app.Config, outW io.Writer) error {
	a, err := app.NewApp(outW, cfg, hcl_adapter.NewLoader())
	if err != nil {
		return err
	}
	report, err := a.Run(ctx)
	if err != nil {
		return err
	}
	printReport(outW, report)
	return nil
}

func printReport(w io.Writer, report *app.Report) {
	if report == nil {
		return
	}
	for _, g := range report.Graphs {
		titleColor.Fprintf(w, "%s", g.Name)
		fmt.Fprintf(w, " (%s): %d nodes, %d connectors, %d evaluations over %d frames\n",
			g.Evaluation, g.Nodes, g.Connectors, g.Evaluations, report.Frames)
		if len(g.Failed) == 0 {
			okColor.Fprintln(w, "  ✓ all nodes evaluated cleanly")
			continue
		}
		for _, f := range g.Failed {
			errColor.Fprintf(w, "  ✗ %s\n", f)
		}
	}
	if len(report.StoreKeys) > 0 {
		fmt.Fprintf(w, "stored: %s\n", strings.Join(report.StoreKeys, ", "))
	}
}

func validate(ctx context.Context, cfg *app.Config, outW io.Writer) error {
	a, err := app.NewApp(outW, cfg, hcl_adapter.NewLoader())
	if err != nil {
		errColor.Fprintf(outW, "✗ %v\n", err)
		return err
	}
	ctx = ctxlog.WithLogger(ctx, a.Logger())

	model := a.Model()
	failed := 0
	if cfg.IsRecord() {
		if _, err := a.LoadRecord(ctx, cfg.Path); err != nil {
			errColor.Fprintf(outW, "✗ %v\n", err)
			return err
		}
	}
	for _, layout := range model.Graphs {
		if _, err := a.BuildLayout(ctx, layout); err != nil {
			errColor.Fprintf(outW, "✗ %v\n", err)
			failed++
			continue
		}
		okColor.Fprintf(outW, "✓ graph %s\n", layout.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d graphs failed to build", failed, len(model.Graphs))
	}
	if len(model.Graphs) == 0 && !cfg.IsRecord() {
		warnColor.Fprintln(outW, "! no graph layouts found")
	}
	okColor.Fprintf(outW, "✓ valid: %d data types, %d node types, %d graphs\n",
		len(a.Registry().DataTypes().Names()), len(a.Registry().Types()), len(model.Graphs))
	return nil
}

func listTypes(ctx context.Context, cmd *Command, outW io.Writer) error {
	logger := app.NewLogger(cmd.Config.LogLevel, cmd.Config.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	reg, _, err := app.LoadRegistry(ctx, hcl_adapter.NewLoader(), app.CoreModules(outW), cmd.Paths...)
	if err != nil {
		return err
	}

	titleColor.Fprintln(outW, "Data types")
	for _, e := range reg.DataTypes().Entries() {
		fmt.Fprintf(outW, "  %-10s %-8s %s\n", e.Name, e.Color, e.Type.FriendlyName())
	}

	titleColor.Fprintln(outW, "Node types")
	categories := reg.Categories()
	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, c := range names {
		warnColor.Fprintf(outW, "  %s\n", c)
		for _, typeName := range categories[c] {
			def, _ := reg.Definition(typeName)
			fmt.Fprintf(outW, "    %-16s %s\n", typeName, def.Description)
		}
	}
	return nil
}
