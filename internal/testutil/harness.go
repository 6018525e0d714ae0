// Package testutil holds the shared harness for integration tests: a
// thread-safe output buffer, an app runner over HCL files written to a temp
// directory, and registry helpers.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/app"
	"github.com/vk/nodegraph/internal/hcl_adapter"
	"github.com/vk/nodegraph/internal/nodetype"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output holds the log lines and flow.print output of the run.
	Output string
	Err    error
	App    *app.App
	Report *app.Report
}

// Options adjusts a harness run.
type Options struct {
	// Configure edits the app configuration before it is validated.
	Configure func(cfg *app.Config)
	// Modules are registered after the core modules.
	Modules []nodetype.Module
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts)
}

// RunIntegrationTestWithContext writes files below a temp root and runs the
// app with Path at "<root>/grid" and ModulesPath at "<root>/modules". File
// names are relative to the root, e.g. "grid/main.hcl" or
// "modules/custom/manifest.hcl".
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory for the test.
	tmpDir := t.TempDir()
	gridDir := filepath.Join(tmpDir, "grid")
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.Mkdir(gridDir, 0o755))
	require.NoError(t, os.Mkdir(modulesDir, 0o755))

	// 2. Write all HCL files to the temporary directory.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	// 3. Configure the app to use the dedicated, non-overlapping subdirectories.
	cfg := app.Config{
		Path:        gridDir,
		ModulesPath: modulesDir,
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	if opts.Configure != nil {
		opts.Configure(&cfg)
	}

	output := &SafeBuffer{}
	result := &HarnessResult{}
	defer func() {
		result.Output = output.String()
		if os.Getenv("NODEGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.Output)
		}
	}()

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	modules := append(app.CoreModules(output), opts.Modules...)
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App, result.Err = app.NewApp(output, appConfig, hcl_adapter.NewLoader(), modules...)
	}()
	if result.Err != nil {
		return result
	}

	result.Report, result.Err = result.App.Run(ctx)
	return result
}
