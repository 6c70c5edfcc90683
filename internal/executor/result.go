package executor

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlexec/internal/value"
)

// ExecutionResult represents the result of executing a GraphQL query.
// Data is undefined when the request failed before execution began, and
// null when a failure propagated up to the root.
type ExecutionResult struct {
	Data       value.Value
	Errors     gqlerror.List
	Extensions map[string]any
}

// HasData reports whether execution started.
func (r *ExecutionResult) HasData() bool { return !r.Data.IsUndefined() }

// MarshalJSON writes the response map. The data entry is omitted entirely
// when execution never started.
func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		Errors     gqlerror.List  `json:"errors,omitempty"`
		Data       *value.Value   `json:"data,omitempty"`
		Extensions map[string]any `json:"extensions,omitempty"`
	}
	w := wire{Errors: r.Errors, Extensions: r.Extensions}
	if r.HasData() {
		w.Data = &r.Data
	}
	return json.Marshal(w)
}
