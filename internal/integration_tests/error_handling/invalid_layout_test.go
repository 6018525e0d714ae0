package error_handling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/testutil"
)

// TestErrorHandling_InvalidHCLIsRejected ensures that a syntactically broken
// layout stops the app before any graph is built.
func TestErrorHandling_InvalidHCLIsRejected(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"grid/main.hcl": `graph "broken" { node "value.numeric" "a" {`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to load configuration")
	assert.Nil(t, result.App)
}

// TestErrorHandling_LayoutProblems covers layouts that parse but cannot be
// built into a graph.
func TestErrorHandling_LayoutProblems(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		layout string
		errMsg string
	}{
		{
			name:   "unknown node type",
			layout: `graph "g" { node "math.modulo" "m" {} }`,
			errMsg: `unknown node type: "math.modulo"`,
		},
		{
			name: "duplicate node name",
			layout: `graph "g" {
				node "value.numeric" "a" {}
				node "value.numeric" "a" {}
			}`,
			errMsg: `node name "a" is used twice`,
		},
		{
			name: "link to missing port",
			layout: `graph "g" {
				node "value.numeric" "a" {}
				node "math.add" "sum" {}
				link {
					from = "a.out"
					to   = "sum.c"
				}
			}`,
			errMsg: `port not found: "sum.c"`,
		},
		{
			name: "link to missing node",
			layout: `graph "g" {
				node "value.numeric" "a" {}
				link {
					from = "a.out"
					to   = "ghost.in"
				}
			}`,
			errMsg: `node not found: "ghost"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			files := map[string]string{"grid/main.hcl": tc.layout}

			// --- Act ---
			result := testutil.RunIntegrationTest(t, files, testutil.Options{})

			// --- Assert ---
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.errMsg)
		})
	}
}

// TestErrorHandling_AllLinkErrorsReported ensures that every rejected link is
// reported in one error rather than stopping at the first.
func TestErrorHandling_AllLinkErrorsReported(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		graph "g" {
			node "value.string" "s" {}
			node "math.add" "sum" {}
			link {
				from = "s.out"
				to   = "sum.a"
			}
			link {
				from = "s.out"
				to   = "sum.b"
			}
		}
	`
	files := map[string]string{"grid/main.hcl": gridHCL}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "link s.out -> sum.a: connection is not allowed")
	assert.Contains(t, result.Err.Error(), "link s.out -> sum.b: connection is not allowed")
}
