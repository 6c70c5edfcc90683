package executor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hanpama/gqlexec/internal/schema"
)

// Pattern: Result comparison
func TestCompleteValue_NonNull_Propagation_Result(t *testing.T) {
	const sdl = `
		type Query { obj: Obj! }
		type Obj { a: String! b: String! }
	`

	t.Run("Resolver error", func(t *testing.T) {
		log := &callLog{}
		sch := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
			"Query.obj": log.record(fixed(map[string]any{})),
			"Obj.a":     log.record(failing("boom")),
			"Obj.b":     log.record(fixed("B")),
		}))

		got := view(execute(t, sch, "{ obj { a b } }", WithStrategy(Serial)))
		want := resultView{
			HasData: true,
			Data:    nil,
			Errors:  []errorView{{Message: "boom", Path: "obj.a"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		// Serial stops at the first non-null failure of a selection set.
		if diff := cmp.Diff([]string{"Query.obj", "Obj.a"}, log.list()); diff != "" {
			t.Fatalf("resolver calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Resolver returns null", func(t *testing.T) {
		sch := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
			"Query.obj": fixed(map[string]any{}),
			"Obj.a":     fixed(nil),
			"Obj.b":     fixed("B"),
		}))

		got := view(execute(t, sch, "{ obj { a b } }"))
		want := resultView{
			HasData: true,
			Data:    nil,
			Errors:  []errorView{{Message: "Cannot return null for non-nullable field Obj.a.", Path: "obj.a"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Stops at nearest nullable ancestor", func(t *testing.T) {
		sch := mustSchema(t, `
			type Query { a: Int! b: B }
			type B { c: Int! d: Int }
		`, resolvers(map[string]schema.ResolveFn{
			"Query.a": fixed(1),
			"Query.b": fixed(map[string]any{"d": 4}),
			"B.c":     fixed(nil),
		}))

		got := view(execute(t, sch, "{ a b { c d } }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"a": int64(1), "b": nil},
			Errors:  []errorView{{Message: "Cannot return null for non-nullable field B.c.", Path: "b.c"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Chain of non-null parents", func(t *testing.T) {
		sch := mustSchema(t, `
			type Query { top: Mid other: String }
			type Mid { mid: Leaf! }
			type Leaf { leaf: String! }
		`, resolvers(map[string]schema.ResolveFn{
			"Query.top":   fixed(map[string]any{"mid": map[string]any{}}),
			"Query.other": fixed("ok"),
		}))

		got := view(execute(t, sch, "{ top { mid { leaf } } other }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"top": nil, "other": "ok"},
			Errors:  []errorView{{Message: "Cannot return null for non-nullable field Leaf.leaf.", Path: "top.mid.leaf"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestCompleteValue_List_Nullability_Result(t *testing.T) {
	const sdl = `
		type Query {
			strict: [Int!]
			loose: [Int]!
			items: [Item!]
			maybeItems: [Item]
			notAList: [Int]
		}
		type Item { v: Int! }
	`
	itemV := func(p schema.ResolveParams) (any, error) {
		n := p.Source.(int)
		if n == 1 {
			return nil, nil
		}
		return n * 10, nil
	}
	sch := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
		"Query.strict":     fixed([]any{1, "x", 3}),
		"Query.loose":      fixed([]int{1, 2, 3}),
		"Query.items":      fixed([]int{0, 1, 2}),
		"Query.maybeItems": fixed([]int{0, 1, 2}),
		"Query.notAList":   fixed(7),
		"Item.v":           itemV,
	}))

	t.Run("List contains values", func(t *testing.T) {
		got := view(execute(t, sch, "{ loose }"))
		want := resultView{HasData: true, Data: map[string]any{"loose": []any{int64(1), int64(2), int64(3)}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Non-null item failure nulls the list", func(t *testing.T) {
		got := view(execute(t, sch, "{ strict }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"strict": nil},
			Errors:  []errorView{{Message: `Int cannot represent non-integer value: "x"`, Path: "strict[1]"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nullable item failure is isolated", func(t *testing.T) {
		s := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
			"Query.loose": fixed([]any{1, "x", 3}),
		}))
		got := view(execute(t, s, "{ loose }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"loose": []any{int64(1), nil, int64(3)}},
			Errors:  []errorView{{Message: `Int cannot represent non-integer value: "x"`, Path: "loose[1]"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Item non-null violation", func(t *testing.T) {
		got := view(execute(t, sch, "{ items { v } }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"items": nil},
			Errors:  []errorView{{Message: "Cannot return null for non-nullable field Item.v.", Path: "items[1].v"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nullable item violation", func(t *testing.T) {
		got := view(execute(t, sch, "{ maybeItems { v } }"))
		want := resultView{
			HasData: true,
			Data: map[string]any{"maybeItems": []any{
				map[string]any{"v": int64(0)},
				nil,
				map[string]any{"v": int64(20)},
			}},
			Errors: []errorView{{Message: "Cannot return null for non-nullable field Item.v.", Path: "maybeItems[1].v"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Not a list", func(t *testing.T) {
		got := view(execute(t, sch, "{ notAList }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"notAList": nil},
			Errors:  []errorView{{Message: `Expected Iterable, but did not find one for field "Query.notAList".`, Path: "notAList"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Serial strategy completes lists the same way", func(t *testing.T) {
		got := view(execute(t, sch, "{ maybeItems { v } }", WithStrategy(Serial)))
		if len(got.Errors) != 1 || got.Errors[0].Path != "maybeItems[1].v" {
			t.Fatalf("unexpected errors: %+v", got.Errors)
		}
	})
}

// Pattern: Result comparison
func TestCompleteValue_Leaf_Serialization_Result(t *testing.T) {
	const sdl = `
		enum Episode { NEWHOPE EMPIRE JEDI }
		type Query { count: Int ratio: Float ep: Episode badEp: Episode name: String id: ID }
	`
	sch := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
		"Query.count": fixed(int32(5)),
		"Query.ratio": fixed(2),
		"Query.ep":    fixed("JEDI"),
		"Query.badEp": fixed("SITH"),
		"Query.name":  fixed(42),
		"Query.id":    fixed(1000),
	}))

	t.Run("Serialize success", func(t *testing.T) {
		got := view(execute(t, sch, "{ count ratio ep name id }"))
		want := resultView{HasData: true, Data: map[string]any{
			"count": int64(5),
			"ratio": float64(2),
			"ep":    "JEDI",
			"name":  "42",
			"id":    "1000",
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Serialize error", func(t *testing.T) {
		got := view(execute(t, sch, "{ ep badEp }"))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"ep": "JEDI", "badEp": nil},
			Errors:  []errorView{{Message: `Enum "Episode" cannot represent value: "SITH"`, Path: "badEp"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Pointer leaves", func(t *testing.T) {
		str, n, ep := "Tatooine", 7, "EMPIRE"
		var missing *string
		inner := &missing
		psch := mustSchema(t, `
			enum Episode { NEWHOPE EMPIRE JEDI }
			type Query { ptr: String pint: Int! pep: Episode nilPtr: String nested: String }
		`, resolvers(map[string]schema.ResolveFn{
			"Query.ptr":    fixed(&str),
			"Query.pint":   fixed(&n),
			"Query.pep":    fixed(&ep),
			"Query.nilPtr": fixed(missing),
			"Query.nested": fixed(inner),
		}))
		got := view(execute(t, psch, "{ ptr pint pep nilPtr nested }"))
		want := resultView{HasData: true, Data: map[string]any{
			"ptr":    "Tatooine",
			"pint":   int64(7),
			"pep":    "EMPIRE",
			"nilPtr": nil,
			"nested": nil,
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestCompleteValue_Object_And_MixedSyncAsync_Result(t *testing.T) {
	const sdl = `
		type Query { syncObj: Obj asyncObj: Obj }
		type Obj { a: String b: String }
	`
	sch := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{
		"Query.syncObj":  fixed(map[string]any{"a": "A"}),
		"Query.asyncObj": later(5*time.Millisecond, map[string]any{"a": "A"}),
		"Obj.b":          later(time.Millisecond, "B"),
	}))

	got := view(execute(t, sch, "{ syncObj { a b } asyncObj { a b } }"))
	want := resultView{HasData: true, Data: map[string]any{
		"syncObj":  map[string]any{"a": "A", "b": "B"},
		"asyncObj": map[string]any{"a": "A", "b": "B"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestCompleteValue_SyncAndAsyncAgree_Result(t *testing.T) {
	const sdl = `type Query { field: String }`
	syncSchema := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{"Query.field": fixed("V")}))
	asyncSchema := mustSchema(t, sdl, resolvers(map[string]schema.ResolveFn{"Query.field": later(time.Millisecond, "V")}))

	for _, strategy := range []Strategy{Parallel, Serial} {
		syncRes := view(execute(t, syncSchema, "{ field }", WithStrategy(strategy)))
		asyncRes := view(execute(t, asyncSchema, "{ field }", WithStrategy(strategy)))
		if diff := cmp.Diff(syncRes, asyncRes); diff != "" {
			t.Fatalf("%s: sync and async results differ (-sync +async):\n%s", strategy, diff)
		}
		want := resultView{HasData: true, Data: map[string]any{"field": "V"}}
		if diff := cmp.Diff(want, syncRes); diff != "" {
			t.Fatalf("%s: ExecutionResult mismatch (-want +got):\n%s", strategy, diff)
		}
	}
}

type droid struct{ Name, PrimaryFunction string }

type human struct{ Name, HomePlanet string }

// Pattern: Result comparison
func TestCompleteValue_Abstract_ResolveType_Result(t *testing.T) {
	const sdl = `
		interface Character { name: String }
		type Human implements Character { name: String homePlanet: String }
		type Droid implements Character { name: String primaryFunction: String }
		type Starship { name: String }
		union Thing = Human | Droid
		type Query { hero: Character thing: Thing ship: Starship }
	`
	byGoType := func(p schema.ResolveTypeParams) string {
		switch p.Value.(type) {
		case droid:
			return "Droid"
		case human:
			return "Human"
		case string:
			return p.Value.(string)
		}
		return ""
	}
	build := func(t *testing.T, hero any) *schema.Schema {
		return mustSchema(t, sdl, schema.Bindings{
			Resolvers: map[string]schema.ResolveFn{
				"Query.hero":  fixed(hero),
				"Query.thing": fixed(hero),
			},
			TypeResolvers: map[string]schema.ResolveTypeFn{
				"Character": byGoType,
				"Thing":     byGoType,
			},
		})
	}
	const query = `{ hero { name ... on Droid { primaryFunction } __typename } }`

	t.Run("ResolveType returns concrete subtype", func(t *testing.T) {
		got := view(execute(t, build(t, droid{Name: "R2-D2", PrimaryFunction: "Astromech"}), query))
		want := resultView{HasData: true, Data: map[string]any{"hero": map[string]any{
			"name": "R2-D2", "primaryFunction": "Astromech", "__typename": "Droid",
		}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}

		got = view(execute(t, build(t, human{Name: "Luke", HomePlanet: "Tatooine"}), query))
		want = resultView{HasData: true, Data: map[string]any{"hero": map[string]any{
			"name": "Luke", "__typename": "Human",
		}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Union member", func(t *testing.T) {
		got := view(execute(t, build(t, human{Name: "Leia", HomePlanet: "Alderaan"}),
			`{ thing { ... on Human { homePlanet } ... on Droid { primaryFunction } } }`))
		want := resultView{HasData: true, Data: map[string]any{"thing": map[string]any{"homePlanet": "Alderaan"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResolveType unresolved", func(t *testing.T) {
		got := view(execute(t, build(t, 42), query))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"hero": nil},
			Errors:  []errorView{{Message: `Abstract type "Character" must resolve to an Object type at runtime for field "Query.hero".`, Path: "hero"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResolveType invalid type name", func(t *testing.T) {
		got := view(execute(t, build(t, "Starship"), query))
		want := resultView{
			HasData: true,
			Data:    map[string]any{"hero": nil},
			Errors:  []errorView{{Message: `Runtime Object type "Starship" is not a possible type for "Character".`, Path: "hero"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}

		got = view(execute(t, build(t, "Wookiee"), query))
		want.Errors = []errorView{{Message: `Abstract type "Character" was resolved to a type "Wookiee" that does not exist inside the schema.`, Path: "hero"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}
