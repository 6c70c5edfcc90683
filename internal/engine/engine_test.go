package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlexec/internal/async"
	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/executor"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/validator"
)

type resultView struct {
	HasData bool
	Data    any
	Errors  []errorView
}

type errorView struct {
	Rule    string
	Message string
	Path    string
}

func view(res *executor.ExecutionResult) resultView {
	v := resultView{HasData: res.HasData(), Data: res.Data.Interface()}
	for _, err := range res.Errors {
		v.Errors = append(v.Errors, errorView{Rule: err.Rule, Message: err.Message, Path: err.Path.String()})
	}
	return v
}

func mustEngine(t *testing.T, sdl string, bind schema.Bindings, opts ...Option) *Engine {
	t.Helper()
	s, err := schema.BuildFromSDL(sdl, bind)
	require.NoError(t, err)
	return New(s, opts...)
}

func run(t *testing.T, e *Engine, query string) resultView {
	t.Helper()
	return view(e.Execute(context.Background(), Request{Query: query}))
}

const basicSDL = `
	type Query {
		a: Int!
		b: B
		hello(name: String): String
		strict: [Int!]
		loose: [Int]!
	}
	type B { c: Int! }
`

// countingResolvers counts every resolver call.
func countingResolvers(calls *atomic.Int32, fns map[string]schema.ResolveFn) schema.Bindings {
	out := make(map[string]schema.ResolveFn, len(fns))
	for k, fn := range fns {
		out[k] = func(p schema.ResolveParams) (any, error) {
			calls.Add(1)
			return fn(p)
		}
	}
	return schema.Bindings{Resolvers: out}
}

func basicEngine(t *testing.T, calls *atomic.Int32, opts ...Option) *Engine {
	return mustEngine(t, basicSDL, countingResolvers(calls, map[string]schema.ResolveFn{
		"Query.a":      func(schema.ResolveParams) (any, error) { return 1, nil },
		"Query.b":      func(schema.ResolveParams) (any, error) { return map[string]any{}, nil },
		"B.c":          func(schema.ResolveParams) (any, error) { return nil, nil },
		"Query.hello":  func(p schema.ResolveParams) (any, error) { return "hi " + p.Arg("name").Str(), nil },
		"Query.strict": func(schema.ResolveParams) (any, error) { return []any{1, nil, 3}, nil },
		"Query.loose":  func(schema.ResolveParams) (any, error) { return []any{1, "x", 3}, nil },
	}), opts...)
}

// Pattern: Result comparison
func TestExecute_SyntaxError_Result(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls)

	for _, query := range []string{"{ a", "query {", "{ a } }", "", "mutation ( { a }"} {
		res := e.Execute(context.Background(), Request{Query: query})
		require.False(t, res.HasData(), query)
		require.Len(t, res.Errors, 1, query)
		require.True(t, strings.HasPrefix(res.Errors[0].Message, "Syntax Error: "), res.Errors[0].Message)
		require.Len(t, res.Errors[0].Locations, 1, query)
	}
	require.Zero(t, calls.Load())
}

// Pattern: Result comparison
func TestExecute_ValidationErrors_Result(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls)

	got := run(t, e, `{ a nope hello(x: 1) }`)
	want := resultView{Errors: []errorView{
		{Rule: "FieldsOnCorrectType", Message: `Cannot query field "nope" on type "Query".`},
		{Rule: "KnownArgumentNames", Message: `Unknown argument "x" on field "Query.hello".`},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	require.Zero(t, calls.Load(), "no resolver runs when validation fails")
}

func TestExecute_WithRules(t *testing.T) {
	var calls atomic.Int32
	rules := []validator.Rule{}
	for _, r := range validator.Rules {
		if r.Name != "FieldsOnCorrectType" {
			rules = append(rules, r)
		}
	}
	e := basicEngine(t, &calls, WithRules(rules...))

	// The unknown field passes validation and is left out of the result.
	got := run(t, e, `{ a nope }`)
	want := resultView{HasData: true, Data: map[string]any{"a": int64(1)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_NullPropagation_Result(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls)

	got := run(t, e, `{ a b { c } }`)
	want := resultView{
		HasData: true,
		Data:    map[string]any{"a": int64(1), "b": nil},
		Errors:  []errorView{{Message: "Cannot return null for non-nullable field B.c.", Path: "b.c"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_ListElementIsolation_Result(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls)

	got := run(t, e, `{ strict }`)
	want := resultView{
		HasData: true,
		Data:    map[string]any{"strict": nil},
		Errors:  []errorView{{Message: "Cannot return null for non-nullable field Query.strict.", Path: "strict[1]"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	got = run(t, e, `{ loose }`)
	want = resultView{
		HasData: true,
		Data:    map[string]any{"loose": []any{int64(1), nil, int64(3)}},
		Errors:  []errorView{{Message: `Int cannot represent non-integer value: "x"`, Path: "loose[1]"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_SyncAsyncEquivalence_Result(t *testing.T) {
	const sdl = `type Query { field: String }`
	syncEngine := mustEngine(t, sdl, schema.Bindings{Resolvers: map[string]schema.ResolveFn{
		"Query.field": func(schema.ResolveParams) (any, error) { return "V", nil },
	}})
	asyncEngine := mustEngine(t, sdl, schema.Bindings{Resolvers: map[string]schema.ResolveFn{
		"Query.field": func(schema.ResolveParams) (any, error) {
			return async.Go(func() (any, error) {
				time.Sleep(time.Millisecond)
				return "V", nil
			}), nil
		},
	}})

	want := resultView{HasData: true, Data: map[string]any{"field": "V"}}
	if diff := cmp.Diff(want, run(t, syncEngine, "{ field }")); diff != "" {
		t.Fatalf("sync mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, run(t, asyncEngine, "{ field }")); diff != "" {
		t.Fatalf("async mismatch (-want +got):\n%s", diff)
	}
}

type human struct{ Name, HomePlanet string }

type droid struct{ Name, PrimaryFunction string }

// Pattern: Result comparison
func TestExecute_AbstractDispatch_Result(t *testing.T) {
	var n atomic.Int32
	e := mustEngine(t, `
		interface Character { name: String }
		type Human implements Character { name: String homePlanet: String }
		type Droid implements Character { name: String primaryFunction: String }
		type Query { hero: Character }
	`, schema.Bindings{
		Resolvers: map[string]schema.ResolveFn{
			"Query.hero": func(schema.ResolveParams) (any, error) {
				if n.Add(1) == 1 {
					return human{Name: "Luke", HomePlanet: "Tatooine"}, nil
				}
				return droid{Name: "R2-D2", PrimaryFunction: "Astromech"}, nil
			},
		},
		TypeResolvers: map[string]schema.ResolveTypeFn{
			"Character": func(p schema.ResolveTypeParams) string {
				if _, ok := p.Value.(droid); ok {
					return "Droid"
				}
				return "Human"
			},
		},
	})
	const query = `{ hero { name ... on Droid { primaryFunction } } }`

	first := run(t, e, query)
	want := resultView{HasData: true, Data: map[string]any{"hero": map[string]any{"name": "Luke"}}}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("first call mismatch (-want +got):\n%s", diff)
	}

	second := run(t, e, query)
	want = resultView{HasData: true, Data: map[string]any{"hero": map[string]any{"name": "R2-D2", "primaryFunction": "Astromech"}}}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Fatalf("second call mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_OrderIndependentOfLatency(t *testing.T) {
	delayed := func(d time.Duration, v string) schema.ResolveFn {
		return func(schema.ResolveParams) (any, error) {
			return async.Go(func() (any, error) {
				time.Sleep(d)
				return v, nil
			}), nil
		}
	}
	e := mustEngine(t, `type Query { a: String b: String c: String }`, schema.Bindings{Resolvers: map[string]schema.ResolveFn{
		"Query.a": delayed(30*time.Millisecond, "A"),
		"Query.b": delayed(15*time.Millisecond, "B"),
		"Query.c": delayed(0, "C"),
	}})

	out, err := e.Execute(context.Background(), Request{Query: "{ a b c }"}).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"data":{"a":"A","b":"B","c":"C"}}`, string(out))
}

func TestExecute_PublishesRequestEvents(t *testing.T) {
	bus := eventbus.New()
	var (
		mu       sync.Mutex
		starts   []events.RequestStart
		finishes []events.RequestFinish
	)
	eventbus.Subscribe(bus, func(_ context.Context, e events.RequestStart) {
		mu.Lock()
		defer mu.Unlock()
		starts = append(starts, e)
	})
	eventbus.Subscribe(bus, func(_ context.Context, e events.RequestFinish) {
		mu.Lock()
		defer mu.Unlock()
		finishes = append(finishes, e)
	})

	var calls atomic.Int32
	e := basicEngine(t, &calls, WithBus(bus))
	e.Execute(context.Background(), Request{Query: "query Q { a }", OperationName: "Q"})
	e.Execute(context.Background(), Request{Query: "{ nope }"})
	e.Execute(context.Background(), Request{Query: "{"})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []events.RequestStart{
		{Query: "query Q { a }", OperationName: "Q"},
		{Query: "{ nope }"},
		{Query: "{"},
	}, starts)
	require.Len(t, finishes, 3)

	require.Equal(t, "query", finishes[0].OperationType)
	require.True(t, finishes[0].Executed)
	require.Empty(t, finishes[0].Errors)

	require.Equal(t, "query", finishes[1].OperationType)
	require.False(t, finishes[1].Executed)
	require.Len(t, finishes[1].Errors, 1)

	require.Equal(t, "", finishes[2].OperationType)
	require.False(t, finishes[2].Executed)
	require.Len(t, finishes[2].Errors, 1)
}

func TestExecuteAsync(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls, WithStrategy(executor.Serial), WithMaxConcurrency(1))

	ch := e.ExecuteAsync(context.Background(), Request{Query: `query ($n: String) { hello(name: $n) }`, Variables: map[string]any{"n": "there"}})
	res, ok := <-ch
	require.True(t, ok)
	want := resultView{HasData: true, Data: map[string]any{"hello": "hi there"}}
	if diff := cmp.Diff(want, view(res)); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	_, ok = <-ch
	require.False(t, ok, "channel is closed after the result")
}

func TestPrepare(t *testing.T) {
	var calls atomic.Int32
	e := basicEngine(t, &calls)

	doc, errs := e.Prepare("{ a }")
	require.Empty(t, errs)
	require.Len(t, doc.Operations, 1)

	doc, errs = e.Prepare("{ nope }")
	require.NotNil(t, doc)
	require.Len(t, errs, 1)

	doc, errs = e.Prepare("{")
	require.Nil(t, doc)
	require.Len(t, errs, 1)
}
