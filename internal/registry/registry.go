// Package registry holds externally registered custom aggregate functions.
//
// Lookup is exact on (label, input type): the input type's kind and name
// must match a registration. Nullability is not part of the identity, so a
// function registered for decimal also serves decimal? paths. There is no
// numeric widening and no fallback to another type.
//
// Registration happens before compilation starts. After that the registry
// is read-only and Lookup is safe from concurrent compile calls.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/aggc/internal/ir"
)

// Func reduces the projected values of one partition. Nulls are passed
// through; the function decides how to treat them.
type Func func(values []ir.Value) (ir.Value, error)

// Handle is a resolved custom aggregate.
type Handle struct {
	Label  string
	Input  ir.Type
	Result ir.Type
	Fn     Func
}

// key is the registry identity of a registration.
type key struct {
	label string
	kind  ir.Kind
	name  string
}

func keyFor(label string, t ir.Type) key {
	return key{label: label, kind: t.Kind, name: t.Name}
}

// Registry maps (label, input type) to custom aggregate functions.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*Handle
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[key]*Handle)}
}

// Register adds a function. Registering the same (label, input) twice is an
// error so lookups stay deterministic.
func (r *Registry) Register(label string, input, result ir.Type, fn Func) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("custom aggregate label is required")
	}
	if fn == nil {
		return fmt.Errorf("custom aggregate %q: nil function", label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyFor(label, input)
	if _, dup := r.entries[k]; dup {
		return fmt.Errorf("custom aggregate %q already registered for %s", label, input.AsNonNullable())
	}
	r.entries[k] = &Handle{
		Label:  label,
		Input:  input.AsNonNullable(),
		Result: result,
		Fn:     fn,
	}
	return nil
}

// Lookup resolves a function by exact (label, input type). The returned
// handle is shared; repeated lookups return the same pointer.
func (r *Registry) Lookup(label string, input ir.Type) (*Handle, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[keyFor(label, input)]
	return h, ok
}

// Labels lists registered labels with their input types, sorted, for
// diagnostics.
func (r *Registry) Labels() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for _, h := range r.entries {
		out = append(out, fmt.Sprintf("%s(%s)", h.Label, h.Input))
	}
	sort.Strings(out)
	return out
}
