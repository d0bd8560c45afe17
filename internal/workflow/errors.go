package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and the HTTP layer. Handlers map
// these onto structured error responses; everything else is internal_error.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("version conflict")
	ErrTimeout      = errors.New("step timed out")
)

// ProviderError wraps a model-capability transport or quota failure. It
// bubbles up as a step failure and then as a run failure.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (model %s): %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GraphError reports a structural problem in the workflow graph: a cycle or
// an edge referencing a node that does not exist.
type GraphError struct {
	Reason string
}

func (e *GraphError) Error() string { return "graph error: " + e.Reason }

// Unwrap lets graph errors match ErrValidation so handlers need only one check.
func (e *GraphError) Unwrap() error { return ErrValidation }
