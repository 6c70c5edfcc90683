package starwars

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlexec/internal/engine"
	"github.com/hanpama/gqlexec/internal/executor"
)

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	s, err := Schema(NewStore())
	require.NoError(t, err)
	return engine.New(s, opts...)
}

func execJSON(t *testing.T, e *engine.Engine, query string, vars map[string]any) string {
	t.Helper()
	res := e.Execute(context.Background(), engine.Request{Query: query, Variables: vars})
	out, err := json.Marshal(res)
	require.NoError(t, err)
	return string(out)
}

func TestStarWars_Queries(t *testing.T) {
	cases := []struct {
		name  string
		query string
		vars  map[string]any
		want  string
	}{
		{
			name:  "hero name",
			query: `query HeroNameQuery { hero { name } }`,
			want:  `{"data":{"hero":{"name":"R2-D2"}}}`,
		},
		{
			name:  "hero with friends",
			query: `{ hero { id name friends { name } } }`,
			want: `{"data":{"hero":{"id":"2001","name":"R2-D2","friends":[` +
				`{"name":"Luke Skywalker"},{"name":"Han Solo"},{"name":"Leia Organa"}]}}}`,
		},
		{
			name: "nested friends and enums",
			query: `{ hero { name friends { name appearsIn friends { name } } } }`,
			want: `{"data":{"hero":{"name":"R2-D2","friends":[` +
				`{"name":"Luke Skywalker","appearsIn":["NEWHOPE","EMPIRE","JEDI"],"friends":[{"name":"Han Solo"},{"name":"Leia Organa"},{"name":"C-3PO"},{"name":"R2-D2"}]},` +
				`{"name":"Han Solo","appearsIn":["NEWHOPE","EMPIRE","JEDI"],"friends":[{"name":"Luke Skywalker"},{"name":"Leia Organa"},{"name":"R2-D2"}]},` +
				`{"name":"Leia Organa","appearsIn":["NEWHOPE","EMPIRE","JEDI"],"friends":[{"name":"Luke Skywalker"},{"name":"Han Solo"},{"name":"C-3PO"},{"name":"R2-D2"}]}]}}}`,
		},
		{
			name:  "hero of the empire",
			query: `{ hero(episode: EMPIRE) { name } }`,
			want:  `{"data":{"hero":{"name":"Luke Skywalker"}}}`,
		},
		{
			name:  "human by variable",
			query: `query FetchSomeID($someId: String!) { human(id: $someId) { name homePlanet } }`,
			vars:  map[string]any{"someId": "1000"},
			want:  `{"data":{"human":{"name":"Luke Skywalker","homePlanet":"Tatooine"}}}`,
		},
		{
			name:  "unknown human is null",
			query: `query FetchSomeID($id: String!) { human(id: $id) { name } }`,
			vars:  map[string]any{"id": "not a valid id"},
			want:  `{"data":{"human":null}}`,
		},
		{
			name:  "human without home planet",
			query: `{ human(id: "1002") { name homePlanet } }`,
			want:  `{"data":{"human":{"name":"Han Solo","homePlanet":null}}}`,
		},
		{
			name:  "aliases",
			query: `{ luke: human(id: "1000") { name } leia: human(id: "1003") { name } }`,
			want:  `{"data":{"luke":{"name":"Luke Skywalker"},"leia":{"name":"Leia Organa"}}}`,
		},
		{
			name: "fragments",
			query: `{ luke: human(id: "1000") { ...HumanFragment } leia: human(id: "1003") { ...HumanFragment } }
				fragment HumanFragment on Human { name homePlanet }`,
			want: `{"data":{"luke":{"name":"Luke Skywalker","homePlanet":"Tatooine"},"leia":{"name":"Leia Organa","homePlanet":"Alderaan"}}}`,
		},
		{
			name:  "typename",
			query: `{ hero { __typename name } luke: hero(episode: EMPIRE) { __typename name } }`,
			want:  `{"data":{"hero":{"__typename":"Droid","name":"R2-D2"},"luke":{"__typename":"Human","name":"Luke Skywalker"}}}`,
		},
		{
			name:  "inline fragments on the interface",
			query: `{ hero { name ... on Droid { primaryFunction } ... on Human { homePlanet } } }`,
			want:  `{"data":{"hero":{"name":"R2-D2","primaryFunction":"Astromech"}}}`,
		},
		{
			name:  "droid directly",
			query: `{ droid(id: "2000") { name primaryFunction } }`,
			want:  `{"data":{"droid":{"name":"C-3PO","primaryFunction":"Protocol"}}}`,
		},
	}

	e := newEngine(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, execJSON(t, e, tc.query, tc.vars))
		})
	}
}

func TestStarWars_SerialMatchesParallel(t *testing.T) {
	const query = `{ hero { name friends { name appearsIn friends { name } } } }`
	parallel := execJSON(t, newEngine(t), query, nil)
	serial := execJSON(t, newEngine(t, engine.WithStrategy(executor.Serial)), query, nil)
	capped := execJSON(t, newEngine(t, engine.WithMaxConcurrency(1)), query, nil)
	require.Equal(t, parallel, serial)
	require.Equal(t, parallel, capped)
}

func TestStarWars_Validation(t *testing.T) {
	e := newEngine(t)

	out := execJSON(t, e, `{ hero { name secretBackstory } }`, nil)
	require.JSONEq(t, `{"errors":[{"message":"Cannot query field \"secretBackstory\" on type \"Character\".","locations":[{"line":1,"column":15}]}]}`, out)

	out = execJSON(t, e, `{ hero }`, nil)
	require.JSONEq(t, `{"errors":[{"message":"Field \"hero\" of type \"Character\" must have a selection of subfields. Did you mean \"hero { ... }\"?","locations":[{"line":1,"column":3}]}]}`, out)
}

func TestStarWars_RenameMutation(t *testing.T) {
	e := newEngine(t)

	out := execJSON(t, e, `mutation ($id: String!, $name: String!) {
		first: rename(id: $id, name: $name) { name }
		second: rename(id: "2001", name: "Artoo") { ... on Droid { name primaryFunction } }
	}`, map[string]any{"id": "1000", "name": "Red Five"})
	require.Equal(t, `{"data":{"first":{"name":"Red Five"},"second":{"name":"Artoo","primaryFunction":"Astromech"}}}`, out)

	out = execJSON(t, e, `{ human(id: "1000") { name } hero { friends { name } } }`, nil)
	require.Equal(t, `{"data":{"human":{"name":"Red Five"},"hero":{"friends":[{"name":"Red Five"},{"name":"Han Solo"},{"name":"Leia Organa"}]}}}`, out)

	res := e.Execute(context.Background(), engine.Request{Query: `mutation { rename(id: "9999", name: "Nobody") { name } }`})
	require.Len(t, res.Errors, 1)
	require.Equal(t, `no character with id "9999"`, res.Errors[0].Message)
	require.Equal(t, "rename", res.Errors[0].Path.String())
}

func TestStore_CopiesAreIsolated(t *testing.T) {
	s := NewStore()
	luke := s.Character("1000")
	luke.Name = "changed"
	require.Equal(t, "Luke Skywalker", s.Character("1000").Name)
	require.Nil(t, s.Human("2000"))
	require.Nil(t, s.Droid("1000"))
	require.NotNil(t, s.Droid("2000"))
}
