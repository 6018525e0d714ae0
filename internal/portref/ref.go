// internal/portref/ref.go
package portref

import (
	"fmt"
	"strings"
)

// Ref points at a single port of a single node.
type Ref struct {
	Node string
	Port string
}

// New builds a Ref from its parts.
func New(node, port string) Ref {
	return Ref{Node: node, Port: port}
}

// Parse splits a dotted reference into its node and port parts.
func Parse(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, fmt.Errorf("port reference cannot be empty")
	}

	idx := strings.LastIndex(raw, ".")
	if idx < 0 {
		return Ref{}, fmt.Errorf("port reference %q must have the form <node>.<port>", raw)
	}

	ref := Ref{Node: raw[:idx], Port: raw[idx+1:]}
	if ref.Node == "" {
		return Ref{}, fmt.Errorf("port reference %q has an empty node part", raw)
	}
	if ref.Port == "" {
		return Ref{}, fmt.Errorf("port reference %q has an empty port part", raw)
	}
	if !isValidNodePart(ref.Node) {
		return Ref{}, fmt.Errorf("invalid node part in port reference: %q", ref.Node)
	}
	return ref, nil
}

// isValidNodePart rejects names that are syntactically fine but would be
// ambiguous as references.
func isValidNodePart(name string) bool {
	if name == "." || name == ".." || strings.HasSuffix(name, ".") {
		return false
	}
	return true
}

// String serializes the Ref into its canonical dotted form.
func (r Ref) String() string {
	return r.Node + "." + r.Port
}

// IsZero reports whether r is the empty reference.
func (r Ref) IsZero() bool {
	return r.Node == "" && r.Port == ""
}
