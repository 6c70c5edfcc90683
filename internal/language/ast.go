package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Documents are gqlparser's AST; the rest of the module works on these types
// directly.
type (
	QueryDocument  = ast.QueryDocument
	SchemaDocument = ast.SchemaDocument
)

// Error is the error type shared by every stage of the request pipeline.
type (
	Error     = gqlerror.Error
	ErrorList = gqlerror.List
	Location  = gqlerror.Location
)

// LocationOf converts an AST position into an error location. A nil position
// yields no locations.
func LocationOf(pos *ast.Position) []Location {
	if pos == nil {
		return nil
	}
	return []Location{{Line: pos.Line, Column: pos.Column}}
}
