package core_execution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/nodegraph/internal/testutil"
)

// TestCoreExecution_PushChain verifies that constants propagate through a
// chain of nodes as soon as the links are made.
func TestCoreExecution_PushChain(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		graph "chain" {
			node "value.numeric" "three" {
				inputs = { value = 3 }
			}
			node "math.multiply" "scale" {}
			node "flow.print" "show" {}

			link {
				from = "three.out"
				to   = "scale.a"
			}
			link {
				from = "scale.result"
				to   = "show.value"
			}
		}
	`
	files := map[string]string{"grid/main.hcl": gridHCL}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertPrinted(t, result, "show", "3")
	summary := testutil.GraphSummary(t, result, "chain")
	assert.Equal(t, 3, summary.Nodes)
	assert.Equal(t, 2, summary.Connectors)
	assert.Empty(t, summary.Failed)
}

// TestCoreExecution_FanOut verifies that a multi-connection output feeds
// every connected input.
func TestCoreExecution_FanOut(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	gridHCL := `
		graph "fan" {
			node "value.numeric" "src" {
				inputs = { value = 3 }
			}
			node "math.add" "double" {}
			node "flow.print" "show" {}

			link {
				from = "src.out"
				to   = "double.a"
			}
			link {
				from = "src.out"
				to   = "double.b"
			}
			link {
				from = "double.result"
				to   = "show.value"
			}
		}
	`
	files := map[string]string{"grid/main.hcl": gridHCL}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, testutil.Options{})

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertPrinted(t, result, "show", "6")
}
