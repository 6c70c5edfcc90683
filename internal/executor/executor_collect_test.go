package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/value"
)

const collectSDL = `
interface Named { name: String }
type Query implements Named { a: String b: String c: String name: String pet: Pet }
type Dog implements Named { name: String barks: Boolean }
type Cat implements Named { name: String meows: Boolean }
union Pet = Dog | Cat
`

func newCollectState(t *testing.T, query string, vars map[string]value.Value) (*execution, *ast.QueryDocument) {
	t.Helper()
	s := mustSchema(t, collectSDL, schema.Bindings{})
	doc := mustParseQuery(t, query)
	if vars == nil {
		vars = map[string]value.Value{}
	}
	return &execution{schema: s, doc: doc, vars: vars}, doc
}

// Pattern: Result comparison
func TestCollectFields_And_Directives_Result(t *testing.T) {
	t.Run("Fragment merging and typename", func(t *testing.T) {
		ex, doc := newCollectState(t, `{
			a
			...F1
			...F2
		}
		fragment F1 on Query { a __typename }
		fragment F2 on Query { __typename }
		`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		frag1 := doc.Fragments.ForName("F1").SelectionSet
		frag2 := doc.Fragments.ForName("F2").SelectionSet
		want := []*collectedField{
			{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field), frag1[0].(*ast.Field)}},
			{ResponseName: "__typename", Fields: []*ast.Field{frag1[1].(*ast.Field), frag2[0].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on scalar", func(t *testing.T) {
		ex, doc := newCollectState(t, `{ a b @skip(if: true) c @include(if: false) }`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		want := []*collectedField{{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field)}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives with variables", func(t *testing.T) {
		ex, doc := newCollectState(t, `query Q($yes: Boolean!, $no: Boolean!) { a @include(if: $yes) b @include(if: $no) c @skip(if: $no) }`,
			map[string]value.Value{"yes": value.NewBoolean(true), "no": value.NewBoolean(false)})
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		want := []*collectedField{
			{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field)}},
			{ResponseName: "c", Fields: []*ast.Field{opSel[2].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on fragment spread", func(t *testing.T) {
		ex, doc := newCollectState(t, `{
			a
			...Frag1 @include(if: true)
			...Frag2 @skip(if: true)
		}
		fragment Frag1 on Query { b }
		fragment Frag2 on Query { c }
		`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		frag1 := doc.Fragments.ForName("Frag1").SelectionSet
		want := []*collectedField{
			{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field)}},
			{ResponseName: "b", Fields: []*ast.Field{frag1[0].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on inline fragment", func(t *testing.T) {
		ex, doc := newCollectState(t, `{
			a
			... on Query @include(if: true) { b }
			... on Query @skip(if: true) { c }
		}`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		inline1 := opSel[1].(*ast.InlineFragment)
		want := []*collectedField{
			{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field)}},
			{ResponseName: "b", Fields: []*ast.Field{inline1.SelectionSet[0].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Directives on anonymous inline fragment", func(t *testing.T) {
		ex, doc := newCollectState(t, `{
			a
			... @include(if: true) { b }
			... @skip(if: true) { c }
		}`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		inline1 := opSel[1].(*ast.InlineFragment)
		want := []*collectedField{
			{ResponseName: "a", Fields: []*ast.Field{opSel[0].(*ast.Field)}},
			{ResponseName: "b", Fields: []*ast.Field{inline1.SelectionSet[0].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Aliases keep separate keys", func(t *testing.T) {
		ex, doc := newCollectState(t, `{ x: a y: a x: a }`, nil)
		got := ex.collectFields(ex.schema.GetQueryType(), doc.Operations[0].SelectionSet)

		opSel := doc.Operations[0].SelectionSet
		want := []*collectedField{
			{ResponseName: "x", Fields: []*ast.Field{opSel[0].(*ast.Field), opSel[2].(*ast.Field)}},
			{ResponseName: "y", Fields: []*ast.Field{opSel[1].(*ast.Field)}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("collected fields mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestCollectFields_TypeConditions_Result(t *testing.T) {
	ex, doc := newCollectState(t, `{
		pet {
			... on Named { name }
			... on Dog { barks }
			... on Cat { meows }
			...DogOnly
		}
	}
	fragment DogOnly on Dog { name }
	`, nil)
	pet := doc.Operations[0].SelectionSet[0].(*ast.Field)
	sel := pet.SelectionSet
	named := sel[0].(*ast.InlineFragment).SelectionSet[0].(*ast.Field)
	barks := sel[1].(*ast.InlineFragment).SelectionSet[0].(*ast.Field)
	meows := sel[2].(*ast.InlineFragment).SelectionSet[0].(*ast.Field)
	dogName := doc.Fragments.ForName("DogOnly").SelectionSet[0].(*ast.Field)

	gotDog := ex.collectSubfields(ex.schema.Type("Dog"), []*ast.Field{pet})
	wantDog := []*collectedField{
		{ResponseName: "name", Fields: []*ast.Field{named, dogName}},
		{ResponseName: "barks", Fields: []*ast.Field{barks}},
	}
	if diff := cmp.Diff(wantDog, gotDog); diff != "" {
		t.Fatalf("Dog fields mismatch (-want +got):\n%s", diff)
	}

	gotCat := ex.collectSubfields(ex.schema.Type("Cat"), []*ast.Field{pet})
	wantCat := []*collectedField{
		{ResponseName: "name", Fields: []*ast.Field{named}},
		{ResponseName: "meows", Fields: []*ast.Field{meows}},
	}
	if diff := cmp.Diff(wantCat, gotCat); diff != "" {
		t.Fatalf("Cat fields mismatch (-want +got):\n%s", diff)
	}
}
