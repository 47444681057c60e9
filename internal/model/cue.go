package model

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/aggc/internal/ir"
)

// LoadError represents a model loading error with source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads a CUE model file.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return ParseString(path, string(data))
}

// ParseString compiles CUE source into a Model.
//
// The source declares structured types under a top-level "types" struct:
//
//	types: {
//		Product: {
//			open: false
//			properties: {
//				ProductID:   "int32"
//				ProductName: "string?"
//				Category:    {navigation: "Category", nullable: true}
//				Address:     {complex: "Address"}
//			}
//		}
//		Address: {
//			kind: "complex"
//			properties: City: "string?"
//		}
//	}
//
// Property declaration order is preserved.
func ParseString(filename, src string) (*Model, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return Compile(v)
}

// Compile converts a CUE value with a "types" struct into a Model.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func Compile(v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, &LoadError{Field: "types", Message: "types is required", Pos: v.Pos()}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []*StructuredType
	for iter.Next() {
		t, err := parseStructuredType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	m, err := New(types...)
	if err != nil {
		return nil, &LoadError{Field: "types", Message: err.Error(), Pos: typesVal.Pos()}
	}
	return m, nil
}

// parseStructuredType parses one entry of the types struct.
func parseStructuredType(name string, v cue.Value) (*StructuredType, error) {
	t := &StructuredType{Name: name, Kind: ir.KindEntity}

	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		kind, err := kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch kind {
		case "entity":
		case "complex":
			t.Kind = ir.KindComplex
		default:
			return nil, &LoadError{
				Field:   fmt.Sprintf("types.%s.kind", name),
				Message: fmt.Sprintf("kind must be \"entity\" or \"complex\", got %q", kind),
				Pos:     kindVal.Pos(),
			}
		}
	}

	if openVal := v.LookupPath(cue.ParsePath("open")); openVal.Exists() {
		open, err := openVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		t.Open = open
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return t, nil // properties are optional for open types
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		p, err := parseProperty(name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		t.Properties = append(t.Properties, p)
	}
	return t, nil
}

// parseProperty parses a property declaration. Supports:
//   - "int32", "string?" ... for primitives
//   - {navigation: "Category", nullable: true}
//   - {complex: "Address", nullable: false}
func parseProperty(owner, name string, v cue.Value) (Property, error) {
	field := fmt.Sprintf("types.%s.properties.%s", owner, name)

	if s, err := v.String(); err == nil {
		typ, err := ir.ParseType(s)
		if err != nil {
			return Property{}, &LoadError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return Prim(name, typ), nil
	}

	if v.IncompleteKind() != cue.StructKind {
		return Property{}, &LoadError{
			Field:   field,
			Message: fmt.Sprintf("must be a type string or struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	nullable := false
	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		b, err := nv.Bool()
		if err != nil {
			return Property{}, formatCUEError(err)
		}
		nullable = b
	}

	if nav := v.LookupPath(cue.ParsePath("navigation")); nav.Exists() {
		target, err := nav.String()
		if err != nil {
			return Property{}, formatCUEError(err)
		}
		return Nav(name, target, nullable), nil
	}
	if cplx := v.LookupPath(cue.ParsePath("complex")); cplx.Exists() {
		target, err := cplx.String()
		if err != nil {
			return Property{}, formatCUEError(err)
		}
		return ComplexProp(name, target, nullable), nil
	}

	return Property{}, &LoadError{
		Field:   field,
		Message: "struct property needs a navigation or complex target",
		Pos:     v.Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
