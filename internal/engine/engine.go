// Package engine is the request pipeline: it parses the request text,
// validates the document against the schema and executes it, publishing
// request events on an optional bus.
package engine

import (
	"context"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/executor"
	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/validator"
)

// Request is one GraphQL request as received from a caller.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	// Context is handed to every resolver as ResolveParams.Request.
	Context any
	// RootValue is the source of the root fields.
	RootValue any
}

type options struct {
	strategy       executor.Strategy
	maxConcurrency int
	bus            *eventbus.Bus
	rules          []validator.Rule
}

type Option func(*options)

// WithStrategy sets the execution strategy for query operations.
func WithStrategy(s executor.Strategy) Option { return func(o *options) { o.strategy = s } }

// WithMaxConcurrency caps the parallel fan-out of each selection set and list.
func WithMaxConcurrency(n int) Option { return func(o *options) { o.maxConcurrency = n } }

// WithBus publishes request and field events on b.
func WithBus(b *eventbus.Bus) Option { return func(o *options) { o.bus = b } }

// WithRules replaces the validation rule set.
func WithRules(rules ...validator.Rule) Option {
	return func(o *options) { o.rules = rules }
}

// Engine runs requests against one schema. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	schema *schema.Schema
	exec   *executor.Executor
	bus    *eventbus.Bus
	rules  []validator.Rule
}

func New(s *schema.Schema, opts ...Option) *Engine {
	var o options
	for _, f := range opts {
		f(&o)
	}
	return &Engine{
		schema: s,
		exec: executor.NewExecutor(s,
			executor.WithStrategy(o.strategy),
			executor.WithMaxConcurrency(o.maxConcurrency),
			executor.WithBus(o.bus),
		),
		bus:   o.bus,
		rules: o.rules,
	}
}

func (e *Engine) Schema() *schema.Schema { return e.schema }

// Bus returns the event bus the engine publishes on, or nil.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Prepare parses and validates query. A syntax error is returned alone;
// otherwise every validation error is returned.
func (e *Engine) Prepare(query string) (*ast.QueryDocument, gqlerror.List) {
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, gqlerror.List{err}
	}
	var errs gqlerror.List
	if e.rules != nil {
		errs = validator.ValidateWithRules(e.schema, doc, e.rules)
	} else {
		errs = validator.Validate(e.schema, doc)
	}
	if len(errs) > 0 {
		return doc, errs
	}
	return doc, nil
}

// Execute runs req to completion. Syntax and validation failures produce a
// result without data and no resolver is invoked.
func (e *Engine) Execute(ctx context.Context, req Request) *executor.ExecutionResult {
	start := time.Now()
	eventbus.Publish(ctx, e.bus, events.RequestStart{Query: req.Query, OperationName: req.OperationName})

	finish := events.RequestFinish{Query: req.Query, OperationName: req.OperationName}
	res := e.execute(ctx, req, &finish)

	finish.Errors = res.Errors
	finish.Executed = res.HasData()
	finish.Duration = time.Since(start)
	eventbus.Publish(ctx, e.bus, finish)
	return res
}

func (e *Engine) execute(ctx context.Context, req Request, finish *events.RequestFinish) *executor.ExecutionResult {
	doc, errs := e.Prepare(req.Query)
	if doc != nil {
		if op, err := executor.GetOperation(doc, req.OperationName); err == nil {
			finish.OperationType = string(op.Operation)
		}
	}
	if len(errs) > 0 {
		return &executor.ExecutionResult{Errors: errs}
	}
	return e.exec.ExecuteRequest(ctx, executor.Request{
		Document:      doc,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		RootValue:     req.RootValue,
		Context:       req.Context,
	})
}

// ExecuteAsync runs req on its own goroutine. The channel receives exactly
// one result and is then closed.
func (e *Engine) ExecuteAsync(ctx context.Context, req Request) <-chan *executor.ExecutionResult {
	out := make(chan *executor.ExecutionResult, 1)
	go func() {
		defer close(out)
		out <- e.Execute(ctx, req)
	}()
	return out
}
