package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes compile failures.
type ErrorCode string

const (
	// ErrCodeUnsupportedTransformationKind indicates a request kind other
	// than Aggregate or GroupBy.
	ErrCodeUnsupportedTransformationKind ErrorCode = "UNSUPPORTED_TRANSFORMATION_KIND"

	// ErrCodeUnsupportedPathKind indicates a path node the resolver does
	// not recognize.
	ErrCodeUnsupportedPathKind ErrorCode = "UNSUPPORTED_PATH_KIND"

	// ErrCodeUnsupportedAggregationType indicates a built-in method applied
	// to a type it has no reduction for.
	ErrCodeUnsupportedAggregationType ErrorCode = "UNSUPPORTED_AGGREGATION_TYPE"

	// ErrCodeAggregationNotSupportedForType indicates a custom method with
	// no registration for the resolved input type.
	ErrCodeAggregationNotSupportedForType ErrorCode = "AGGREGATION_NOT_SUPPORTED_FOR_TYPE"

	// ErrCodeInvalidGroupingPropertyShape indicates a grouping property with
	// both or neither of a path and nested properties.
	ErrCodeInvalidGroupingPropertyShape ErrorCode = "INVALID_GROUPING_PROPERTY_SHAPE"

	// ErrCodeUnknownProperty indicates a property the metadata model does
	// not declare on a closed type.
	ErrCodeUnknownProperty ErrorCode = "UNKNOWN_PROPERTY"

	// ErrCodeUnsupportedConversion indicates a cast or comparison between
	// types with no conversion.
	ErrCodeUnsupportedConversion ErrorCode = "UNSUPPORTED_CONVERSION"

	// ErrCodeDuplicateAlias indicates an empty or repeated aggregate alias.
	ErrCodeDuplicateAlias ErrorCode = "DUPLICATE_ALIAS"
)

// CompileError is a compile failure. Compilation is all-or-nothing: a
// CompileError means no plan was produced.
//
// Method, Path and Type carry the offending aggregate method, path (slash
// notation) and resolved type when they apply.
type CompileError struct {
	Code    ErrorCode
	Message string
	Method  string
	Path    string
	Type    string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var details []string
	if e.Method != "" {
		details = append(details, "method="+e.Method)
	}
	if e.Path != "" {
		details = append(details, "path="+e.Path)
	}
	if e.Type != "" {
		details = append(details, "type="+e.Type)
	}
	if len(details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(details, ", "))
}

// IsCode reports whether err is a CompileError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf returns the code of a CompileError, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
