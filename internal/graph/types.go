package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// DefaultName is the name given to graphs created without one.
const DefaultName = "root"

// DefaultOutExecName is the conventional name of a node's outgoing exec port.
const DefaultOutExecName = "outExec"

// Direction tells whether a port receives or produces values.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Input {
		return Output
	}
	return Input
}

// Structure is the shape of the value a port holds.
type Structure int

const (
	Single Structure = iota
	Array
	Dict
	// Multi resolves to the peer's structure on connection.
	Multi
)

var structureNames = map[Structure]string{
	Single: "single",
	Array:  "array",
	Dict:   "dict",
	Multi:  "multi",
}

func (s Structure) String() string {
	if name, ok := structureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("structure(%d)", int(s))
}

// ParseStructure maps a structure name to its value. The empty string is Single.
func ParseStructure(name string) (Structure, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Single, nil
	}
	for s, sn := range structureNames {
		if sn == n {
			return s, nil
		}
	}
	return Single, fmt.Errorf("unknown port structure %q", name)
}

// StructureOf infers the structure a value has.
func StructureOf(v cty.Value) Structure {
	if v == cty.NilVal {
		return Single
	}
	ty := v.Type()
	switch {
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		return Array
	case ty.IsMapType() || ty.IsObjectType():
		return Dict
	default:
		return Single
	}
}

// EvaluationModel selects how value writes propagate.
type EvaluationModel int

const (
	Push EvaluationModel = iota
	Pull
)

func (m EvaluationModel) String() string {
	switch m {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return fmt.Sprintf("evaluation(%d)", int(m))
	}
}

// ParseEvaluationModel maps "push" or "pull" to a model. The empty string is Push.
func ParseEvaluationModel(name string) (EvaluationModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "push":
		return Push, nil
	case "pull":
		return Pull, nil
	default:
		return Push, fmt.Errorf("unknown evaluation model %q", name)
	}
}

// MarshalText renders the model as "push" or "pull".
func (m EvaluationModel) MarshalText() ([]byte, error) {
	if m != Push && m != Pull {
		return nil, fmt.Errorf("unknown evaluation model %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText parses "push" or "pull".
func (m *EvaluationModel) UnmarshalText(text []byte) error {
	parsed, err := ParseEvaluationModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON writes the model as its integer value, 0 for Push and 1 for
// Pull, which is the serialized graph format.
func (m EvaluationModel) MarshalJSON() ([]byte, error) {
	if m != Push && m != Pull {
		return nil, fmt.Errorf("unknown evaluation model %d", int(m))
	}
	return []byte(strconv.Itoa(int(m))), nil
}

// UnmarshalJSON reads either the integer form or the "push"/"pull" text.
func (m *EvaluationModel) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return fmt.Errorf("evaluation model: %w", err)
		}
		return m.UnmarshalText([]byte(unquoted))
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("evaluation model %s: %w", text, err)
	}
	if model := EvaluationModel(n); model == Push || model == Pull {
		*m = model
		return nil
	}
	return fmt.Errorf("unknown evaluation model %d", n)
}

// Flag is a port option bit.
type Flag uint32

const (
	ArraySupported Flag = 1 << iota
	DictSupported
	// SupportsOnlyArrays restricts peers to ports holding arrays.
	SupportsOnlyArrays
	AllowMultipleConnections
	// ChangeTypeOnConnection lets a pending port adopt its peer's type.
	ChangeTypeOnConnection
	RenamingEnabled
	Dynamic
	AlwaysPushDirty
	// Storable ports keep their value across serialization.
	Storable
	AllowAny
	DictElementSupported
)

// DefaultFlags is the flag set of a port declared without options.
const DefaultFlags = Storable

var flagNames = map[string]Flag{
	"array_supported":            ArraySupported,
	"dict_supported":             DictSupported,
	"supports_only_arrays":       SupportsOnlyArrays,
	"allow_multiple_connections": AllowMultipleConnections,
	"change_type_on_connection":  ChangeTypeOnConnection,
	"renaming_enabled":           RenamingEnabled,
	"dynamic":                    Dynamic,
	"always_push_dirty":          AlwaysPushDirty,
	"storable":                   Storable,
	"allow_any":                  AllowAny,
	"dict_element_supported":     DictElementSupported,
}

// ParseFlag maps a snake_case option name to its flag.
func ParseFlag(name string) (Flag, error) {
	f, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown port option %q", name)
	}
	return f, nil
}

// ParseFlags combines several option names.
func ParseFlags(names []string) (Flag, error) {
	var out Flag
	for _, n := range names {
		f, err := ParseFlag(n)
		if err != nil {
			return 0, err
		}
		out |= f
	}
	return out, nil
}

// Has reports whether every bit of other is set in f.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Names lists the option names set in f, sorted.
func (f Flag) Names() []string {
	var out []string
	for name, bit := range flagNames {
		if f&bit != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (f Flag) String() string {
	return strings.Join(f.Names(), "|")
}

// PortType is the type state of a port. A fixed port carries one data
// type name; a pending port is polymorphic until its first connection and
// may list candidate types it is willing to become.
type PortType struct {
	name       string
	candidates []string
	pending    bool
}

// FixedType returns a resolved type state.
func FixedType(name string) PortType {
	return PortType{name: strings.ToLower(name)}
}

// PendingType returns an unresolved type state. With no candidates any
// registered type is acceptable.
func PendingType(candidates ...string) PortType {
	c := make([]string, 0, len(candidates))
	for _, name := range candidates {
		c = appendUnique(c, strings.ToLower(name))
	}
	return PortType{candidates: c, pending: true}
}

// Pending reports whether the type is still unresolved.
func (t PortType) Pending() bool {
	return t.pending
}

// Name returns the data type name, or "any" while pending.
func (t PortType) Name() string {
	if t.pending {
		return anyType
	}
	return t.name
}

// Candidates returns the types a pending port may resolve to.
func (t PortType) Candidates() []string {
	return append([]string(nil), t.candidates...)
}

func (t PortType) String() string {
	if t.pending && len(t.candidates) > 0 {
		return anyType + "(" + strings.Join(t.candidates, ",") + ")"
	}
	return t.Name()
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

func containsString(list []string, name string) bool {
	for _, existing := range list {
		if existing == name {
			return true
		}
	}
	return false
}
