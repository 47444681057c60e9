// Package config holds the options recognized by the aggregation compiler
// and the execution-mode hint carried by a queryable source.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NullPropagation controls whether path resolution inserts null guards.
type NullPropagation int

const (
	// NullPropagationDefault picks guards from the execution mode.
	NullPropagationDefault NullPropagation = iota
	// NullPropagationTrue always inserts guards.
	NullPropagationTrue
	// NullPropagationFalse never inserts guards.
	NullPropagationFalse
)

func (n NullPropagation) String() string {
	switch n {
	case NullPropagationTrue:
		return "true"
	case NullPropagationFalse:
		return "false"
	default:
		return "default"
	}
}

// ParseNullPropagation parses "true", "false" or "default".
func ParseNullPropagation(s string) (NullPropagation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return NullPropagationDefault, nil
	case "true":
		return NullPropagationTrue, nil
	case "false":
		return NullPropagationFalse, nil
	default:
		return 0, fmt.Errorf("invalid null propagation %q: must be true, false or default", s)
	}
}

// UnmarshalYAML accepts booleans and the strings true, false and default.
func (n *NullPropagation) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseNullPropagation(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = parsed
	return nil
}

// MarshalYAML renders the option as a string.
func (n NullPropagation) MarshalYAML() (any, error) {
	return n.String(), nil
}

// Mode is the execution-mode hint of a queryable source.
type Mode int

const (
	// ModeInMemory means the plan runs in the host process, which has no
	// null-safe member access.
	ModeInMemory Mode = iota
	// ModeTranslated means the plan is translated for a remote backend
	// that applies its own null semantics.
	ModeTranslated
)

func (m Mode) String() string {
	if m == ModeTranslated {
		return "translated"
	}
	return "in-memory"
}

// ParseMode parses "in-memory" or "translated".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in-memory", "memory", "inmemory":
		return ModeInMemory, nil
	case "translated":
		return ModeTranslated, nil
	default:
		return 0, fmt.Errorf("invalid execution mode %q: must be in-memory or translated", s)
	}
}

// UnmarshalYAML parses a mode string.
func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseMode(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

// Options are the compiler options.
type Options struct {
	NullPropagation NullPropagation `yaml:"null_propagation"`
}

// Guards reports whether path resolution inserts explicit null guards
// for a source executed in the given mode.
//
// Default resolves to guards for in-memory execution, since the host has
// no null-safe navigation, and to no guards for translated execution,
// since the backend applies its own null semantics.
func (o Options) Guards(mode Mode) bool {
	switch o.NullPropagation {
	case NullPropagationTrue:
		return true
	case NullPropagationFalse:
		return false
	default:
		return mode == ModeInMemory
	}
}

// Load reads options from a YAML file.
// Unknown fields are rejected so typos surface immediately.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes options from YAML bytes. Empty input yields defaults.
func Parse(data []byte) (Options, error) {
	var opts Options
	if len(bytes.TrimSpace(data)) == 0 {
		return opts, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return opts, nil
}
