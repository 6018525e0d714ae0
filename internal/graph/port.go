package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/vk/nodegraph/internal/datatype"
	"github.com/vk/nodegraph/internal/portref"
	"github.com/zclconf/go-cty/cty"
)

const (
	anyType  = datatype.Any
	execType = datatype.Exec
)

// PortSpec declares a port. Node kinds carry one per port; AddInputPort and
// AddOutputPort build one from options.
type PortSpec struct {
	Name     string
	DataType string
	// Default is cty.NilVal when the data type's registered default applies.
	Default        cty.Value
	Structure      Structure
	Flags          Flag
	SupportedTypes []string
	Description    string
}

// PortOption adjusts a PortSpec.
type PortOption func(*PortSpec)

// WithDefault sets the port's default value.
func WithDefault(v cty.Value) PortOption {
	return func(s *PortSpec) { s.Default = v }
}

// WithStructure sets the port's declared structure.
func WithStructure(st Structure) PortOption {
	return func(s *PortSpec) { s.Structure = st }
}

// WithFlags enables option flags in addition to the defaults.
func WithFlags(flags ...Flag) PortOption {
	return func(s *PortSpec) {
		for _, f := range flags {
			s.Flags |= f
		}
	}
}

// WithSupportedTypes lists extra data types the port interoperates with. On
// a polymorphic port they are the candidates it may resolve to.
func WithSupportedTypes(names ...string) PortOption {
	return func(s *PortSpec) { s.SupportedTypes = append(s.SupportedTypes, names...) }
}

// WithDescription documents the port.
func WithDescription(d string) PortOption {
	return func(s *PortSpec) { s.Description = d }
}

// Port is a typed connection point owned by a Node. It stores a value and
// the set of ports it is connected to, and triggers evaluation when its
// value changes. It never checks whether a connection is legal.
type Port struct {
	id          string
	name        string
	description string
	node        *Node
	direction   Direction
	exec        bool

	declared PortType
	dataType PortType

	value        cty.Value
	defaultValue cty.Value

	structure        Structure
	currentStructure Structure

	sources          []*Port
	supported        []string
	defaultSupported []string
	flags            Flag
}

func newPort(node *Node, dir Direction, spec PortSpec) *Port {
	dataType := strings.ToLower(strings.TrimSpace(spec.DataType))
	if dataType == "" {
		dataType = anyType
	}

	p := &Port{
		id:               uuid.NewString(),
		name:             spec.Name,
		description:      spec.Description,
		node:             node,
		direction:        dir,
		exec:             dataType == execType,
		structure:        spec.Structure,
		currentStructure: spec.Structure,
		flags:            DefaultFlags | spec.Flags,
		defaultValue:     spec.Default,
		value:            spec.Default,
	}

	if dataType == anyType {
		p.declared = PendingType(spec.SupportedTypes...)
		p.supported = p.declared.Candidates()
	} else {
		p.declared = FixedType(dataType)
		p.supported = []string{dataType}
		for _, name := range spec.SupportedTypes {
			p.supported = appendUnique(p.supported, strings.ToLower(name))
		}
	}
	p.dataType = p.declared
	p.defaultSupported = append([]string(nil), p.supported...)

	if p.value == cty.NilVal {
		p.value = cty.NullVal(cty.DynamicPseudoType)
	}

	switch spec.Structure {
	case Array:
		p.InitAsArray(true)
	case Dict:
		p.InitAsDict(true)
	}
	return p
}

// applyTypeDefaults fills in the registered default once the port's node
// joins a graph and the data type registry becomes reachable.
func (p *Port) applyTypeDefaults(types *datatype.Registry) {
	if types == nil || p.exec || p.dataType.Pending() {
		return
	}
	name := p.dataType.Name()
	declared := p.defaultValue
	if p.defaultValue == cty.NilVal {
		entry := types.Get(name)
		if entry.IsZero() {
			return
		}
		switch p.currentStructure {
		case Array:
			p.defaultValue = cty.ListValEmpty(entry.Type)
		case Dict:
			p.defaultValue = cty.MapValEmpty(entry.Type)
		default:
			p.defaultValue = entry.Default
		}
	} else if p.currentStructure == Single {
		if coerced, err := types.Coerce(name, p.defaultValue); err == nil {
			p.defaultValue = coerced
		}
	}
	if p.IsConnected() {
		return
	}
	if p.value.IsNull() || (declared != cty.NilVal && p.value.RawEquals(declared)) {
		p.value = p.defaultValue
	}
}

// ID returns the port's uuid.
func (p *Port) ID() string { return p.id }

// Name returns the port's name, unique across its node's inputs and outputs.
func (p *Port) Name() string { return p.name }

// Description returns the documentation the port was declared with.
func (p *Port) Description() string { return p.description }

// Node returns the owning node.
func (p *Port) Node() *Node { return p.node }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() Direction { return p.direction }

// IsExec reports whether the port sequences evaluation instead of carrying data.
func (p *Port) IsExec() bool { return p.exec }

// IsValuePort reports whether the port carries data.
func (p *Port) IsValuePort() bool { return !p.exec }

// DataType returns the current data type name; "any" while unresolved.
func (p *Port) DataType() string { return p.dataType.Name() }

// Type returns the current type state.
func (p *Port) Type() PortType { return p.dataType }

// DeclaredType returns the type state the port was created with.
func (p *Port) DeclaredType() PortType { return p.declared }

// IsAny reports whether the port's type is still unresolved.
func (p *Port) IsAny() bool { return p.dataType.Pending() }

// Structure returns the declared structure.
func (p *Port) Structure() Structure { return p.structure }

// CurrentStructure returns the structure in effect, which differs from the
// declared one only for Multi ports resolved by a connection.
func (p *Port) CurrentStructure() Structure { return p.currentStructure }

// DefaultValue returns the value the port falls back to.
func (p *Port) DefaultValue() cty.Value { return p.defaultValue }

// SetDefaultValue replaces the fallback value.
func (p *Port) SetDefaultValue(v cty.Value) { p.defaultValue = v }

// Value returns the port's value. An output port of a dirty node under
// Pull evaluation first pulls its node's inputs and evaluates it.
func (p *Port) Value() cty.Value {
	if p.direction == Output && p.node != nil && p.node.IsDirty() {
		if model, ok := p.node.EvaluationModel(); ok && model == Pull {
			p.node.pull()
		}
	}
	return p.value
}

// RawValue returns the stored value without triggering evaluation.
func (p *Port) RawValue() cty.Value { return p.value }

// SetValue stores v and reacts according to the graph's evaluation model.
// Outputs fan the value out to every peer under Push. Inputs evaluate their
// node under Push and mark it dirty under Pull.
func (p *Port) SetValue(v cty.Value) {
	if v == cty.NilVal {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	p.value = v
	p.emit(Event{Kind: ValueChanged, Value: v})

	model, ok := p.evaluationModel()
	if !ok {
		return
	}
	switch p.direction {
	case Output:
		if model == Push {
			for _, peer := range p.Sources() {
				if !peer.exec {
					peer.SetValue(v)
				}
			}
		}
	case Input:
		if model == Push {
			_ = p.node.Evaluate()
		} else {
			p.node.SetDirty(true)
		}
	}
}

// Sources returns the connected peers in connection order.
func (p *Port) Sources() []*Port {
	return append([]*Port(nil), p.sources...)
}

// IsConnected reports whether the port has any peer.
func (p *Port) IsConnected() bool { return len(p.sources) > 0 }

// HasSource reports whether other is among the port's peers.
func (p *Port) HasSource(other *Port) bool {
	return p.indexOf(other) >= 0
}

func (p *Port) indexOf(other *Port) int {
	for i, s := range p.sources {
		if s == other {
			return i
		}
	}
	return -1
}

func (p *Port) addSource(other *Port) {
	if p.indexOf(other) < 0 {
		p.sources = append(p.sources, other)
	}
}

func (p *Port) removeSource(other *Port) bool {
	i := p.indexOf(other)
	if i < 0 {
		return false
	}
	p.sources = append(p.sources[:i:i], p.sources[i+1:]...)
	return true
}

// ConnectTo records other as a peer on both ends and copies the output
// side's value into the input side. Exec ports transfer nothing.
func (p *Port) ConnectTo(other *Port) {
	if other == nil || other == p {
		return
	}
	p.addSource(other)
	other.addSource(p)
	p.emit(Event{Kind: PortConnected, Peers: []*Port{other}})

	if p.exec || other.exec {
		return
	}
	switch {
	case p.direction == Input && other.direction == Output:
		p.SetValue(other.Value())
	case p.direction == Output && other.direction == Input:
		other.SetValue(p.Value())
	}
}

// DisconnectFrom removes the given peers, or every peer when called without
// arguments, and returns the peers actually removed. Ports that lose their
// last connection return to their declared type and structure.
func (p *Port) DisconnectFrom(others ...*Port) []*Port {
	targets := others
	if len(targets) == 0 {
		targets = p.Sources()
	}

	var removed []*Port
	for _, other := range targets {
		if other == nil {
			continue
		}
		mine := p.removeSource(other)
		theirs := other.removeSource(p)
		if !mine && !theirs {
			continue
		}
		other.resetIfDisconnected()
		removed = append(removed, other)
	}
	if len(removed) == 0 {
		return nil
	}
	p.resetIfDisconnected()
	p.emit(Event{Kind: PortsDisconnected, Peers: removed})
	return removed
}

func (p *Port) resetIfDisconnected() {
	if len(p.sources) > 0 {
		return
	}
	if p.declared.Pending() && !p.dataType.Pending() {
		p.dataType = p.declared
		p.supported = append([]string(nil), p.defaultSupported...)
	}
	p.currentStructure = p.structure
}

// adoptFrom resolves a pending type or a Multi structure from peer.
func (p *Port) adoptFrom(peer *Port) {
	if p.dataType.Pending() && !peer.dataType.Pending() && p.CanChangeTypeOnConnection() {
		name := peer.dataType.Name()
		p.dataType = FixedType(name)
		p.supported = []string{name}
	}
	if p.currentStructure == Multi && peer.currentStructure != Multi {
		p.currentStructure = peer.currentStructure
	}
}

// Flags returns the option bitset.
func (p *Port) Flags() Flag { return p.flags }

// EnableOptions sets flags.
func (p *Port) EnableOptions(flags ...Flag) {
	for _, f := range flags {
		p.flags |= f
	}
}

// DisableOptions clears flags.
func (p *Port) DisableOptions(flags ...Flag) {
	for _, f := range flags {
		p.flags &^= f
	}
}

// OptionEnabled reports whether every bit of flag is set.
func (p *Port) OptionEnabled(flag Flag) bool {
	return p.flags.Has(flag)
}

// SupportedDataTypes returns the types the port currently interoperates with.
func (p *Port) SupportedDataTypes() []string {
	return append([]string(nil), p.supported...)
}

// DefaultSupportedDataTypes returns the supported types as declared, before
// any connection narrowed them.
func (p *Port) DefaultSupportedDataTypes() []string {
	return append([]string(nil), p.defaultSupported...)
}

// CanChangeTypeOnConnection reports whether the port is unresolved and
// allowed to adopt a peer's type.
func (p *Port) CanChangeTypeOnConnection() bool {
	return p.dataType.Pending() && p.OptionEnabled(ChangeTypeOnConnection)
}

// AllowedDataTypes returns the types this port can legally interoperate
// with right now. An unresolved port accepts its candidates, or every
// registered value type when it has none.
func (p *Port) AllowedDataTypes() []string {
	if p.dataType.Pending() {
		if candidates := p.dataType.Candidates(); len(candidates) > 0 && !p.OptionEnabled(AllowAny) {
			return candidates
		}
		return p.registeredValueTypes()
	}
	out := append([]string(nil), p.supported...)
	if p.OptionEnabled(AllowAny) {
		out = appendUnique(out, anyType)
	}
	return out
}

// DefaultAllowedDataTypes is AllowedDataTypes evaluated against the
// declared type state.
func (p *Port) DefaultAllowedDataTypes() []string {
	if p.declared.Pending() {
		if candidates := p.declared.Candidates(); len(candidates) > 0 {
			return candidates
		}
		return p.registeredValueTypes()
	}
	return append([]string(nil), p.defaultSupported...)
}

func (p *Port) registeredValueTypes() []string {
	g := p.graph()
	if g == nil || g.types == nil {
		return append([]string(nil), p.supported...)
	}
	var out []string
	for _, name := range g.types.Names() {
		if name != execType {
			out = append(out, name)
		}
	}
	return out
}

// InitAsArray switches the port to hold an array, or back to a single value.
func (p *Port) InitAsArray(enable bool) {
	if enable {
		p.structure, p.currentStructure = Array, Array
		p.EnableOptions(ArraySupported)
		return
	}
	p.structure, p.currentStructure = Single, Single
	p.DisableOptions(ArraySupported)
}

// InitAsDict switches the port to hold a dictionary, or back to a single value.
func (p *Port) InitAsDict(enable bool) {
	if enable {
		p.structure, p.currentStructure = Dict, Dict
		p.EnableOptions(DictSupported)
		return
	}
	p.structure, p.currentStructure = Single, Single
	p.DisableOptions(DictSupported)
}

// Call fires an exec port. An output calls every connected exec input; an
// input hands control to its node's behavior.
func (p *Port) Call() error {
	if !p.exec {
		return fmt.Errorf("port %s is not an exec port", p.FullName())
	}
	p.emit(Event{Kind: PortExecuted})

	if p.direction == Output {
		var result *multierror.Error
		for _, peer := range p.Sources() {
			if err := peer.Call(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	if p.node == nil {
		return nil
	}
	if caller, ok := p.node.behavior.(Caller); ok && p.node.enabled {
		return caller.Call(p.node, p)
	}
	return p.node.Evaluate()
}

// FullName returns the dotted "<node-name>.<port-name>" reference.
func (p *Port) FullName() string {
	if p.node == nil {
		return p.name
	}
	return portref.New(p.node.name, p.name).String()
}

// Ref returns the uuid-based reference used in serialized graphs.
func (p *Port) Ref() string {
	if p.node == nil {
		return p.name
	}
	return portref.New(p.node.id, p.name).String()
}

func (p *Port) String() string {
	return fmt.Sprintf("%s[%s %s]", p.FullName(), p.direction, p.dataType)
}

func (p *Port) graph() *Graph {
	if p.node == nil {
		return nil
	}
	return p.node.graph
}

func (p *Port) evaluationModel() (EvaluationModel, bool) {
	if p.node == nil {
		return Push, false
	}
	return p.node.EvaluationModel()
}

func (p *Port) emit(ev Event) {
	if p.node == nil {
		return
	}
	if ev.Port == nil {
		ev.Port = p
	}
	p.node.emit(ev)
}
