// internal/portref/ref_test.go
package portref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Ref
		expectError bool
	}{
		{name: "node name and port", input: "add.a", expected: Ref{Node: "add", Port: "a"}},
		{name: "uuid and port", input: "5d9b4f6e-2a31-4c1f-9d0e-7a8b9c0d1e2f.result", expected: Ref{Node: "5d9b4f6e-2a31-4c1f-9d0e-7a8b9c0d1e2f", Port: "result"}},
		{name: "dotted node name", input: "math.add.result", expected: Ref{Node: "math.add", Port: "result"}},
		{name: "port with punctuation", input: "timer.delta(s)", expected: Ref{Node: "timer", Port: "delta(s)"}},
		{name: "surrounding whitespace", input: "  a.b ", expected: Ref{Node: "a", Port: "b"}},
		{name: "empty", input: "", expectError: true},
		{name: "no dot", input: "node", expectError: true},
		{name: "empty node", input: ".port", expectError: true},
		{name: "empty port", input: "node.", expectError: true},
		{name: "double dot", input: "node..port", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := Parse(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref)
		})
	}
}

func TestRef_RoundTrip(t *testing.T) {
	for _, raw := range []string{"a.b", "math.add.result", "n1.outExec"} {
		t.Run(raw, func(t *testing.T) {
			ref, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, ref.String())
		})
	}
}

func TestRef_IsZero(t *testing.T) {
	assert.True(t, Ref{}.IsZero())
	assert.False(t, New("a", "b").IsZero())
}
