package graph

// normalize orders a pair so the output-side port comes first.
func normalize(a, b *Port) (source, target *Port) {
	if a.direction == Input {
		return b, a
	}
	return a, b
}

// CycleCheck reports whether connecting a and b would close a cycle at node
// granularity. It walks breadth-first from the input side's node, away from
// the new edge, and reports a cycle if it reaches the output side's node.
// Two ports on the same node always form a cycle.
func CycleCheck(a, b *Port) bool {
	if a == nil || b == nil || a.node == nil || b.node == nil {
		return false
	}
	source, target := normalize(a, b)
	start := source.node
	if target.node == start {
		return true
	}

	walk := target.direction.Opposite()
	visited := map[*Node]struct{}{target.node: {}}
	queue := []*Node{target.node}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, p := range current.ports(walk) {
			for _, peer := range p.sources {
				next := peer.node
				if next == nil {
					continue
				}
				if next == start {
					return true
				}
				if _, seen := visited[next]; seen {
					continue
				}
				visited[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}
	return false
}

// ArePortsConnected reports whether a and b face opposite directions, sit
// on different nodes and list each other as peers.
func ArePortsConnected(a, b *Port) bool {
	if a == nil || b == nil {
		return false
	}
	if a.direction == b.direction || a.node == b.node {
		return false
	}
	return a.HasSource(b) && b.HasSource(a)
}

// CanConnectPorts is the connection legality predicate. The checks run in
// a fixed order and stop at the first failure.
func CanConnectPorts(a, b *Port) bool {
	if a == nil || b == nil {
		return false
	}
	if a.direction == b.direction {
		return false
	}
	if ArePortsConnected(a, b) {
		return false
	}
	if a.node == b.node {
		return false
	}
	if CycleCheck(a, b) {
		return false
	}

	source, target := normalize(a, b)

	// Exec ports only ever talk to each other, one link per side.
	if source.exec && target.exec {
		return source.isFree() && target.isFree()
	}
	if source.exec != target.exec {
		return false
	}

	if !target.isFree() {
		return false
	}
	if !source.isFree() {
		return false
	}

	sg, tg := source.graph(), target.graph()
	if sg == nil || tg == nil || sg != tg {
		return false
	}

	if !typesCompatible(source, target) {
		return false
	}
	return structuresCompatible(source, target)
}

// isFree reports whether the port can take another connection.
func (p *Port) isFree() bool {
	return len(p.sources) == 0 || p.OptionEnabled(AllowMultipleConnections)
}

func typesCompatible(source, target *Port) bool {
	sourceType, targetType := source.DataType(), target.DataType()

	if containsString(target.AllowedDataTypes(), sourceType) || containsString(source.AllowedDataTypes(), targetType) {
		// A polymorphic source that cannot adopt a type only feeds ports
		// that accept anything.
		if source.IsAny() && !source.CanChangeTypeOnConnection() && !target.OptionEnabled(AllowAny) {
			return false
		}
		return true
	}

	if !source.IsAny() && !containsString(source.SupportedDataTypes(), sourceType) {
		return false
	}

	// Fall back to the declared type sets. The target qualifies while it can
	// still take a connection, the source only while it has none.
	if containsString(append(target.DefaultAllowedDataTypes(), anyType), sourceType) && target.isFree() {
		return true
	}
	if containsString(append(source.DefaultAllowedDataTypes(), anyType), targetType) && len(source.sources) == 0 {
		return true
	}
	return false
}

func structuresCompatible(source, target *Port) bool {
	s, t := source.currentStructure, target.currentStructure
	if s == Multi || t == Multi {
		return true
	}
	if target.OptionEnabled(SupportsOnlyArrays) && s != Array {
		return false
	}
	if source.OptionEnabled(SupportsOnlyArrays) && t != Array {
		return false
	}
	if s == t {
		return true
	}
	switch {
	case s == Array && t == Single:
		return target.OptionEnabled(ArraySupported)
	case s == Dict && t == Single:
		return target.OptionEnabled(DictSupported)
	case s == Single && t == Dict:
		return target.OptionEnabled(DictElementSupported)
	}
	return false
}

// ConnectPorts validates and connects a and b. It returns false, without
// mutating anything, when the connection is illegal.
func ConnectPorts(a, b *Port) bool {
	if !CanConnectPorts(a, b) {
		return false
	}
	if g := a.graph(); g != nil && g.acyclic && CycleCheck(a, b) {
		return false
	}
	link(a, b)
	return true
}

// link connects two ports without validation, resolving pending types and
// Multi structures on both ends first.
func link(a, b *Port) {
	source, target := normalize(a, b)
	source.adoptFrom(target)
	target.adoptFrom(source)
	target.ConnectTo(source)
}
