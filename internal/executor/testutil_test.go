package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/async"
	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *ast.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func mustSchema(t *testing.T, sdl string, bind schema.Bindings) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl, bind)
	require.NoError(t, err)
	return s
}

func resolvers(fns map[string]schema.ResolveFn) schema.Bindings {
	return schema.Bindings{Resolvers: fns}
}

func execute(t *testing.T, s *schema.Schema, query string, opts ...Option) *ExecutionResult {
	t.Helper()
	return NewExecutor(s, opts...).ExecuteRequest(context.Background(), Request{Document: mustParseQuery(t, query)})
}

// resultView is a plain projection of an ExecutionResult for cmp.Diff.
type resultView struct {
	HasData bool
	Data    any
	Errors  []errorView
}

type errorView struct {
	Message string
	Path    string
}

func view(res *ExecutionResult) resultView {
	v := resultView{HasData: res.HasData(), Data: res.Data.Interface()}
	for _, err := range res.Errors {
		v.Errors = append(v.Errors, errorView{Message: err.Message, Path: err.Path.String()})
	}
	return v
}

func fixed(v any) schema.ResolveFn {
	return func(schema.ResolveParams) (any, error) { return v, nil }
}

func failing(msg string) schema.ResolveFn {
	return func(schema.ResolveParams) (any, error) { return nil, errors.New(msg) }
}

// later settles with v after d on another goroutine.
func later(d time.Duration, v any) schema.ResolveFn {
	return func(schema.ResolveParams) (any, error) {
		return async.Go(func() (any, error) {
			time.Sleep(d)
			return v, nil
		}), nil
	}
}

// callLog records resolver invocations in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// record wraps fn so every call is logged as "Type.field".
func (l *callLog) record(fn schema.ResolveFn) schema.ResolveFn {
	return func(p schema.ResolveParams) (any, error) {
		l.add(p.ParentType.Name + "." + p.FieldName)
		return fn(p)
	}
}

// inflight tracks the peak number of concurrently running resolvers.
type inflight struct {
	mu       sync.Mutex
	cur, max int
}

func (f *inflight) resolver(d time.Duration, v any) schema.ResolveFn {
	return func(schema.ResolveParams) (any, error) {
		return async.Go(func() (any, error) {
			f.mu.Lock()
			f.cur++
			if f.cur > f.max {
				f.max = f.cur
			}
			f.mu.Unlock()
			time.Sleep(d)
			f.mu.Lock()
			f.cur--
			f.mu.Unlock()
			return v, nil
		}), nil
	}
}

func (f *inflight) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.max
}
