// internal/portref/doc.go

/*
Package portref provides the structured form of the dotted port references
used throughout serialized graphs and layouts.

The canonical format is `<node>.<port>`, where `<node>` is either the node's
uuid or its name, e.g. `3f2a...-9c.result` or `add1.a`. The port part is
everything after the last dot, so node names may themselves contain dots.
*/
package portref
