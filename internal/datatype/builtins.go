package datatype

import "github.com/zclconf/go-cty/cty"

// Built-in data type names.
const (
	Exec    = "exec"
	String  = "string"
	Numeric = "numeric"
	Boolean = "boolean"
	List    = "list"

	// Any is the pseudo type carried by polymorphic ports until their first
	// connection. It is never registered.
	Any = "any"
)

var builtins = []Entry{
	{Name: Exec, Type: cty.DynamicPseudoType, Default: cty.NullVal(cty.DynamicPseudoType), Color: "#FFFFFF", Label: ""},
	{Name: String, Type: cty.String, Default: cty.StringVal(""), Color: "#A203F2", Label: "Name"},
	{Name: Numeric, Type: cty.Number, Default: cty.Zero, Color: "#DEC017", Label: "Number"},
	{Name: Boolean, Type: cty.Bool, Default: cty.False, Color: "#C40000", Label: "Condition"},
	{Name: List, Type: cty.List(cty.DynamicPseudoType), Default: cty.ListValEmpty(cty.DynamicPseudoType), Color: "#0BC8F1", Label: "List"},
}

// NewWithBuiltins creates a registry holding the built-in data types.
func NewWithBuiltins() *Registry {
	r := New()
	for _, e := range builtins {
		if err := r.Register(e.Name, e.Type, e.Color, e.Label, e.Default); err != nil {
			// The built-in table is static; a clash is a programming error.
			panic(err)
		}
	}
	return r
}
