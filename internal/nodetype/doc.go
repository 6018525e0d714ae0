// Package nodetype provides the central "glue" for the node module system.
//
// The Registry is responsible for storing mappings between the behavior
// names used in manifests (e.g., "math.add") and the compiled Go behaviors
// that implement them. It also holds the parsed, format-agnostic node type
// definitions from the manifests themselves and turns each into a
// constructible graph.Kind.
//
// During application startup, the registry is populated and then validated to
// ensure that the Go code and the public-facing manifests are in sync.
package nodetype
