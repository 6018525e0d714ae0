package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/nodegraph/internal/config"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/vk/nodegraph/internal/fsutil"
)

const hclExtension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load orchestrates the entire HCL configuration loading process. It is
// agnostic to the origin of the paths and parses any valid block from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	parser := hclparse.NewParser()
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileModel, err := l.translateFile(ctx, hclFile, file)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "data_types", len(model.DataTypes), "node_types", len(model.NodeTypes), "graphs", len(model.Graphs))
	return model, nil
}

// LoadSource parses a single in-memory HCL document.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	return l.translateFile(ctx, hclFile, filename)
}

// translateFile decodes every top-level block of one file into a model.
func (l *Loader) translateFile(ctx context.Context, file *hcl.File, filename string) (*config.Model, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if root.Remain == nil {
		root.Remain = hcl.EmptyBody()
	}
	if attrs, _ := root.Remain.JustAttributes(); len(attrs) > 0 {
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		ctxlog.FromContext(ctx).Warn("Ignoring unexpected top-level attributes.", "file", filename, "attributes", names)
	}

	model := config.NewModel()
	for _, block := range root.DataTypes {
		def, err := translateDataType(ctx, block, filename)
		if err != nil {
			return nil, err
		}
		if _, exists := model.DataTypes[def.Name]; exists {
			return nil, fmt.Errorf("data_type %q declared twice in %s", def.Name, filename)
		}
		model.DataTypes[def.Name] = def
	}
	for _, block := range root.NodeTypes {
		def, err := translateNodeType(ctx, block, filename)
		if err != nil {
			return nil, err
		}
		if _, exists := model.NodeTypes[def.Type]; exists {
			return nil, fmt.Errorf("node_type %q declared twice in %s", def.Type, filename)
		}
		model.NodeTypes[def.Type] = def
	}
	for _, block := range root.Graphs {
		layout, err := translateGraph(ctx, block, filename)
		if err != nil {
			return nil, err
		}
		if model.Graph(layout.Name) != nil {
			return nil, fmt.Errorf("graph %q declared twice in %s", layout.Name, filename)
		}
		model.Graphs = append(model.Graphs, layout)
	}
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == hclExtension {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, hclExtension)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
