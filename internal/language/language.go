// Package language parses GraphQL documents. The grammar lives in gqlparser;
// this package pins down the error contract: parsing either yields a complete
// document or exactly one located syntax error.
package language

import (
	"errors"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document. It fails fast on the first
// malformed token and never returns a partial document.
func ParseQuery(source string) (*QueryDocument, *Error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: source})
	if err != nil {
		return nil, syntaxError(err)
	}
	if len(doc.Operations) == 0 && len(doc.Fragments) == 0 {
		line, col := endOfInput(source)
		return nil, &Error{
			Message:   "Syntax Error: Unexpected <EOF>.",
			Locations: []Location{{Line: line, Column: col}},
		}
	}
	return doc, nil
}

// ParseSchema parses a schema definition document.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func syntaxError(err error) *Error {
	var gerr *gqlerror.Error
	if !errors.As(err, &gerr) {
		return &Error{Message: "Syntax Error: " + err.Error()}
	}
	out := &Error{Message: "Syntax Error: " + gerr.Message}
	if len(gerr.Locations) > 0 {
		out.Locations = []Location{gerr.Locations[0]}
	}
	return out
}

func endOfInput(source string) (line, column int) {
	line = strings.Count(source, "\n") + 1
	last := source
	if i := strings.LastIndexByte(source, '\n'); i >= 0 {
		last = source[i+1:]
	}
	return line, len([]rune(last)) + 1
}
