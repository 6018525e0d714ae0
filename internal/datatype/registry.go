package datatype

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	// ErrUnregisteredDataType is returned by lookups for a name nobody registered.
	ErrUnregisteredDataType = errors.New("unregistered data type")
	// ErrDuplicateDataType is returned when a name is registered twice.
	ErrDuplicateDataType = errors.New("duplicate data type")
)

// Entry describes a single registered data type.
type Entry struct {
	Name    string
	Type    cty.Type
	Default cty.Value
	Color   string
	Label   string
}

// IsZero reports whether e is the empty entry returned for unknown names.
func (e Entry) IsZero() bool {
	return e.Name == ""
}

// Registry maps data type names to entries. It is safe for concurrent use,
// although in practice it is populated once at startup and only read after.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	logger  *slog.Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger replaces the logger used to report misses on query paths.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a data type. Names are compared case-insensitively and the
// stored name is the lower-cased form.
func (r *Registry) Register(name string, ty cty.Type, color, label string, def cty.Value) error {
	k := key(name)
	if k == "" {
		return errors.New("data type name cannot be empty")
	}
	if k == Any {
		return fmt.Errorf("%w: %q is reserved for polymorphic ports", ErrDuplicateDataType, name)
	}
	if ty == cty.NilType {
		ty = cty.DynamicPseudoType
	}
	if def == cty.NilVal {
		def = cty.NullVal(ty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[k]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDataType, name)
	}
	r.entries[k] = Entry{Name: k, Type: ty, Default: def, Color: color, Label: label}
	r.order = append(r.order, k)
	return nil
}

// Get returns the entry for name, or the zero Entry when nothing is
// registered under it. Misses are logged but never fatal.
func (r *Registry) Get(name string) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key(name)]
	if !ok {
		r.logger.Warn("Data type is not registered.", "data_type", name)
		return Entry{}
	}
	return entry
}

// Lookup returns the entry for name or ErrUnregisteredDataType.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key(name)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnregisteredDataType, name)
	}
	return entry, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key(name)]
	return ok
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns every registered entry in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// Coerce converts v to the cty type registered under name. Null values,
// the polymorphic pseudo type and exec pass through untouched.
func (r *Registry) Coerce(name string, v cty.Value) (cty.Value, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return v, nil
	}
	k := key(name)
	if k == Any || k == Exec {
		return v, nil
	}
	entry, err := r.Lookup(k)
	if err != nil {
		return v, err
	}
	out, err := convert.Convert(v, entry.Type)
	if err != nil {
		return v, fmt.Errorf("value is not a valid %s: %w", entry.Name, err)
	}
	return out, nil
}
