// Package events defines the payloads published on an eventbus.Bus by the
// engine and the transports.
package events

import (
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// RequestStart is emitted with the raw request before parsing.
type RequestStart struct {
	Query         string
	OperationName string
}

// RequestFinish is emitted once the result of a request is known.
// OperationType is empty when the request failed before an operation was
// selected.
type RequestFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        gqlerror.List
	// Executed is false for syntax, validation and variable failures.
	Executed bool
	Duration time.Duration
}

// FieldResolved is emitted after a resolver settles, before its value is
// completed.
type FieldResolved struct {
	ParentType string
	Field      string
	Path       ast.Path
	Duration   time.Duration
	Err        error
}
