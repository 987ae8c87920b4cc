package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// ERRORS — Proposal and rendering failure taxonomy
// ============================================================================
// Sentinels are matched with errors.Is; the typed errors carry the context a
// user needs to fix the proposal and unwrap to their sentinel.
// ============================================================================

var (
	// ErrValidation marks a proposal record that violates the schema.
	ErrValidation = errors.New("validation error")

	// ErrReference marks a proposal that names a column the table lacks.
	ErrReference = errors.New("reference error")

	// ErrPrecondition marks a chart whose required bindings are missing.
	ErrPrecondition = errors.New("precondition error")

	// ErrUnsupportedChart marks a chart type outside the supported set.
	ErrUnsupportedChart = errors.New("unsupported chart type")

	// ErrTypeMismatch marks a comparison or reduction the column's values cannot support.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ValidationError describes one schema violation in a proposal record.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid proposal field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid proposal field %q (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ReferenceError reports a column named by a proposal that is absent from the table.
type ReferenceError struct {
	Role   string // "x", "y", "color"
	Column string
	Known  []string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s column %q not found (available: %s)", e.Role, e.Column, strings.Join(e.Known, ", "))
}

func (e *ReferenceError) Unwrap() error { return ErrReference }

// TypeMismatchError reports an operation the values of a column cannot support.
type TypeMismatchError struct {
	Column string
	Op     string
	Value  any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot apply %s to column %q with value %v", e.Op, e.Column, FormatValue(e.Value))
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// RenderError names the proposal whose filter, aggregation or chart step failed.
type RenderError struct {
	ProposalID int
	Title      string
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("proposal %d (%q) failed: %v", e.ProposalID, e.Title, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
