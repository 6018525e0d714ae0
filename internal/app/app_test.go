package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/eventbridge"
	"github.com/vk/nodegraph/internal/graph"
	"github.com/vk/nodegraph/internal/hcl_adapter"
	"github.com/vk/nodegraph/internal/inmemorystore"
)

const demoLayout = `
graph "demo" {
  node "value.numeric" "one" {
    position = [0, 0]
    inputs   = { value = 1 }
  }
  node "value.numeric" "two" {
    inputs = { value = %d }
  }
  node "math.add" "sum" {}
  node "flow.print" "show" {}

  link {
    from = "one.out"
    to   = "sum.a"
  }
  link {
    from = "two.out"
    to   = "sum.b"
  }
  link {
    from = "sum.result"
    to   = "show.value"
  }
}
`

const clockLayout = `
graph "clock" {
  evaluation = "pull"
  node "flow.timer" "tick" {
    inputs = { interval = 0.5 }
  }
  node "flow.print" "log" {}

  link {
    from = "tick.outExec"
    to   = "log.inExec"
  }
  link {
    from = "tick.elapsed"
    to   = "log.value"
  }
}
`

// syncBuffer is a bytes.Buffer safe for the watch goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestApp(t *testing.T, cfg Config) (*App, *syncBuffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &syncBuffer{}
	a, err := NewApp(out, c, hcl_adapter.NewLoader())
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("NODEGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Config{Path: "grid.hcl"}},
		{name: "missing path", cfg: Config{}, wantErr: "Path is a required"},
		{name: "negative frames", cfg: Config{Path: "g.hcl", Frames: -1}, wantErr: "frames"},
		{name: "negative delta", cfg: Config{Path: "g.hcl", Delta: -1}, wantErr: "delta"},
		{name: "bad format", cfg: Config{Path: "g.hcl", LogFormat: "xml"}, wantErr: "log-format"},
		{name: "bad level", cfg: Config{Path: "g.hcl", LogLevel: "loud"}, wantErr: "log-level"},
		{name: "bad port", cfg: Config{Path: "g.hcl", HealthcheckPort: 70000}, wantErr: "out of range"},
		{name: "watch json", cfg: Config{Path: "g.json", Watch: true}, wantErr: "watch mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultDelta, got.Delta)
			assert.Equal(t, "text", got.LogFormat)
			assert.Equal(t, "info", got.LogLevel)
		})
	}
}

func TestApp_RunLayout(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "demo.hcl", fmt.Sprintf(demoLayout, 2))
	outPath := filepath.Join(dir, "demo.json")

	a, out := newTestApp(t, Config{Path: path, OutPath: outPath})
	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "show: 3\n")
	require.Len(t, report.Graphs, 1)
	summary := report.Graphs[0]
	assert.Equal(t, "demo", summary.Name)
	assert.Equal(t, 4, summary.Nodes)
	assert.Equal(t, 3, summary.Connectors)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, []string{"demo"}, report.StoreKeys)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	rec, err := graph.ParseRecord(data)
	require.NoError(t, err)
	assert.Len(t, rec.Nodes, 4)
	assert.Equal(t, graph.Push, rec.EvaluationModel)
}

func TestApp_RunRecord(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "demo.hcl", fmt.Sprintf(demoLayout, 5))
	outPath := filepath.Join(dir, "demo.json")

	first, _ := newTestApp(t, Config{Path: path, OutPath: outPath})
	_, err := first.Run(context.Background())
	require.NoError(t, err)

	second, _ := newTestApp(t, Config{Path: outPath, StoreDir: filepath.Join(dir, "store")})
	report, err := second.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Graphs, 1)
	assert.Equal(t, 4, report.Graphs[0].Nodes)
	assert.Equal(t, 3, report.Graphs[0].Connectors)
	assert.Equal(t, []string{"demo"}, report.StoreKeys)
}

func TestApp_PullTimer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clock.hcl", clockLayout)

	a, out := newTestApp(t, Config{Path: path, Frames: 4, Delta: 0.25})
	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "log: 0.5\n")
	assert.Contains(t, out.String(), "log: 1\n")
	assert.Equal(t, graph.Pull, report.Graphs[0].Evaluation)
	assert.Equal(t, 4, report.Frames)
}

func TestApp_DriveGraphDetachesOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clock.hcl", clockLayout)
	a, _ := newTestApp(t, Config{Path: path, Frames: 3})

	graphs, err := a.graphs(context.Background())
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	g := graphs[0]

	var emitted int
	bridge := eventbridge.New(func(string, map[string]any) { emitted++ }, a.Logger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = a.driveGraph(ctx, g, inmemorystore.New(), bridge)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, g.ListenerCount(), "listeners are removed when the frames stop early")

	before := emitted
	g.Pull()
	_, err = g.CreateNode("value.numeric", nil)
	require.NoError(t, err)
	assert.Equal(t, before, emitted)
}

func TestApp_GraphSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "demo.hcl", fmt.Sprintf(demoLayout, 2))
	writeFile(t, dir, "clock.hcl", clockLayout)

	t.Run("all graphs", func(t *testing.T) {
		a, _ := newTestApp(t, Config{Path: dir})
		report, err := a.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, report.Graphs, 2)
		assert.Equal(t, []string{"clock", "demo"}, report.StoreKeys)
	})

	t.Run("one graph", func(t *testing.T) {
		a, _ := newTestApp(t, Config{Path: dir, Graph: "clock"})
		report, err := a.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, report.Graphs, 1)
		assert.Equal(t, "clock", report.Graphs[0].Name)
	})

	t.Run("unknown graph", func(t *testing.T) {
		a, _ := newTestApp(t, Config{Path: dir, Graph: "nope"})
		_, err := a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `graph "nope" not found`)
	})

	t.Run("out needs one graph", func(t *testing.T) {
		a, _ := newTestApp(t, Config{Path: dir, OutPath: filepath.Join(t.TempDir(), "x.json")})
		_, err := a.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single graph")
	})
}

func TestApp_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		layout  string
		wantErr string
	}{
		{
			name: "illegal link",
			layout: `
graph "bad" {
  node "value.string" "s" {}
  node "flow.timer" "t" {}
  link {
    from = "t.outExec"
    to   = "s.value"
  }
}`,
			wantErr: "connection is not allowed",
		},
		{
			name: "unknown port",
			layout: `
graph "bad" {
  node "value.string" "s" {}
  node "value.string" "u" {}
  link {
    from = "s.nope"
    to   = "u.value"
  }
}`,
			wantErr: "s.nope",
		},
		{
			name: "unknown node type",
			layout: `
graph "bad" {
  node "math.divide" "d" {}
}`,
			wantErr: "unknown node type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.hcl", tt.layout)
			a, _ := newTestApp(t, Config{Path: path})
			_, err := a.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewApp_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "demo.hcl", fmt.Sprintf(demoLayout, 2))
	modules := t.TempDir()
	writeFile(t, modules, "extra.hcl", `
node_type "custom.thing" {
  input "x" { type = vector }
}
`)

	cfg, err := NewConfig(Config{Path: path, ModulesPath: modules})
	require.NoError(t, err)
	_, err = NewApp(&bytes.Buffer{}, cfg, hcl_adapter.NewLoader())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "behavior 'custom.thing' is not registered")
	assert.Contains(t, err.Error(), "data type 'vector' is not registered")
}

func TestApp_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "demo.hcl", fmt.Sprintf(demoLayout, 2))

	a, out := newTestApp(t, Config{Path: dir, Watch: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Watching for changes"))
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(demoLayout, 6)), 0o600))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("show: 7\n"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestHealthHandler(t *testing.T) {
	path := writeFile(t, t.TempDir(), "demo.hcl", fmt.Sprintf(demoLayout, 2))
	a, _ := newTestApp(t, Config{Path: path})

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

