package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/vk/nodegraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Globals are the flags shared by every command.
type Globals struct {
	LogFormat string `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text or json)."`
	LogLevel  string `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Logging level (debug, info, warn or error)."`
}

// RunCmd builds and drives graphs.
type RunCmd struct {
	Path            string  `arg:"" help:"An .hcl layout file or directory, or a serialized .json graph."`
	ModulesPath     string  `name:"modules-path" help:"Directory with additional .hcl manifests."`
	Graph           string  `help:"Run only the graph layout with this name."`
	Frames          int     `default:"0" help:"Number of frames to tick after building."`
	Delta           float64 `default:"0" help:"Seconds per frame (0 means 1/60)."`
	Out             string  `help:"Write the serialized graph to this file."`
	Store           string  `help:"Persist graph records in a badger database in this directory."`
	Bridge          string  `help:"Forward graph events to this socket.io server URL."`
	Watch           bool    `help:"Re-run whenever an .hcl file changes."`
	HealthcheckPort int     `name:"healthcheck-port" default:"0" help:"Port for the HTTP health check server. 0 is disabled."`
}

// ValidateCmd loads everything and reports registry and layout problems.
type ValidateCmd struct {
	Path        string `arg:"" help:"An .hcl layout file or directory, or a serialized .json graph."`
	ModulesPath string `name:"modules-path" help:"Directory with additional .hcl manifests."`
}

// TypesCmd lists the registered data types and node types.
type TypesCmd struct {
	Path        string `arg:"" optional:"" help:"Optional .hcl file or directory with extra declarations."`
	ModulesPath string `name:"modules-path" help:"Directory with additional .hcl manifests."`
}

// CLI is the root kong command structure.
type CLI struct {
	Globals

	Run      RunCmd      `cmd:"" help:"Build graphs from layouts and drive them."`
	Validate ValidateCmd `cmd:"" help:"Load manifests and layouts and report problems."`
	Types    TypesCmd    `cmd:"" help:"List data types and node types."`
}

// Command is a parsed invocation.
type Command struct {
	// Name is "run", "validate" or "types".
	Name   string
	Config *app.Config
	// Paths lists the extra declaration paths of the types command.
	Paths []string
}

// Parse processes command-line arguments. It returns the parsed command, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	var c CLI
	exited := false
	parser, err := kong.New(&c,
		kong.Name("nodegraph"),
		kong.Description("nodegraph - builds, evaluates and persists node graphs declared in HCL."),
		kong.Writers(output, output),
		kong.Exit(func(int) { exited = true }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
	)
	if err != nil {
		// The command structure is static; a failure is a programming error.
		panic(err)
	}

	if len(args) == 0 {
		args = []string{"--help"}
	}
	kctx, err := parser.Parse(args)
	if exited {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	name := strings.Fields(kctx.Command())[0]
	cmd := &Command{Name: name}
	cfg := app.Config{LogFormat: c.LogFormat, LogLevel: c.LogLevel}
	switch name {
	case "run":
		cfg.Path = c.Run.Path
		cfg.ModulesPath = c.Run.ModulesPath
		cfg.Graph = c.Run.Graph
		cfg.Frames = c.Run.Frames
		cfg.Delta = c.Run.Delta
		cfg.OutPath = c.Run.Out
		cfg.StoreDir = c.Run.Store
		cfg.BridgeURL = c.Run.Bridge
		cfg.Watch = c.Run.Watch
		cfg.HealthcheckPort = c.Run.HealthcheckPort
	case "validate":
		cfg.Path = c.Validate.Path
		cfg.ModulesPath = c.Validate.ModulesPath
	case "types":
		for _, p := range []string{c.Types.ModulesPath, c.Types.Path} {
			if p != "" {
				cmd.Paths = append(cmd.Paths, p)
			}
		}
		// types builds no graph, so there is no layout path to validate.
		cmd.Config = &cfg
		return cmd, false, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", name)}
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	cmd.Config = config
	return cmd, false, nil
}
