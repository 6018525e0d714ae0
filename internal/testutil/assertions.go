package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/app"
)

// AssertPrinted checks that a flow.print node named node wrote value.
func AssertPrinted(t *testing.T, result *HarnessResult, node, value string) {
	t.Helper()

	line := fmt.Sprintf("%s: %s\n", node, value)
	require.True(t,
		strings.Contains(result.Output, line),
		"expected print output %q was not found in output:\n%s", strings.TrimSpace(line), result.Output,
	)
}

// GraphSummary returns the summary of the named graph from the run report.
func GraphSummary(t *testing.T, result *HarnessResult, name string) app.GraphSummary {
	t.Helper()

	require.NotNil(t, result.Report, "run produced no report")
	for _, g := range result.Report.Graphs {
		if g.Name == name {
			return g
		}
	}
	require.FailNow(t, "graph not in report", "graph %q", name)
	return app.GraphSummary{}
}
