// Package starwars is the example schema served by the CLI: the Star Wars
// characters with asynchronous fetchers and a rename mutation.
package starwars

import (
	"github.com/hanpama/gqlexec/internal/async"
	"github.com/hanpama/gqlexec/internal/schema"
)

var episodeByName = map[string]Episode{"NEWHOPE": NewHope, "EMPIRE": Empire, "JEDI": Jedi}

// Schema builds the example schema over store.
func Schema(store *Store) (*schema.Schema, error) {
	str := schema.NamedType("String")
	nonNullStr := schema.NonNullType(str)
	characterFields := func(extra ...*schema.Field) []*schema.Field {
		fields := []*schema.Field{
			{Name: "id", Type: nonNullStr, Description: "The id of the character."},
			{Name: "name", Type: str, Description: "The name of the character."},
			{
				Name:        "friends",
				Type:        schema.ListType(schema.NamedType("Character")),
				Description: "The friends of the character, or an empty list if they have none.",
				Resolve: func(p schema.ResolveParams) (any, error) {
					c := p.Source.(*Character)
					return async.Go(func() (any, error) { return store.Friends(c), nil }), nil
				},
			},
			{Name: "appearsIn", Type: schema.ListType(schema.NamedType("Episode")), Description: "Which movies they appear in."},
		}
		return append(fields, extra...)
	}
	idArg := []*schema.InputValue{{Name: "id", Type: nonNullStr, Description: "id of the character"}}

	return schema.New(schema.Config{
		Query:    "Query",
		Mutation: "Mutation",
		Types: []*schema.Type{
			{
				Name:        "Episode",
				Kind:        schema.TypeKindEnum,
				Description: "One of the films in the Star Wars Trilogy",
				EnumValues: []*schema.EnumValue{
					{Name: "NEWHOPE", Value: NewHope, Description: "Released in 1977."},
					{Name: "EMPIRE", Value: Empire, Description: "Released in 1980."},
					{Name: "JEDI", Value: Jedi, Description: "Released in 1983."},
				},
			},
			{
				Name:        "Character",
				Kind:        schema.TypeKindInterface,
				Description: "A character in the Star Wars Trilogy",
				Fields:      characterFields(),
				ResolveType: resolveCharacter,
			},
			{
				Name:        "Human",
				Kind:        schema.TypeKindObject,
				Description: "A humanoid creature in the Star Wars universe.",
				Interfaces:  []string{"Character"},
				Fields: characterFields(&schema.Field{
					Name: "homePlanet", Type: str, Description: "The home planet of the human, or null if unknown.",
				}),
			},
			{
				Name:        "Droid",
				Kind:        schema.TypeKindObject,
				Description: "A mechanical creature in the Star Wars universe.",
				Interfaces:  []string{"Character"},
				Fields: characterFields(&schema.Field{
					Name: "primaryFunction", Type: str, Description: "The primary function of the droid.",
				}),
			},
			{
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{
						Name: "hero",
						Type: schema.NamedType("Character"),
						Arguments: []*schema.InputValue{{
							Name:        "episode",
							Type:        schema.NamedType("Episode"),
							Description: "If omitted, returns the hero of the whole saga. If provided, returns the hero of that particular episode.",
						}},
						Resolve: func(p schema.ResolveParams) (any, error) {
							if episodeByName[p.Arg("episode").Str()] == Empire {
								return async.Resolved(store.Human("1000")), nil
							}
							return async.Resolved(store.Droid("2001")), nil
						},
					},
					{
						Name:      "human",
						Type:      schema.NamedType("Human"),
						Arguments: idArg,
						Resolve: func(p schema.ResolveParams) (any, error) {
							id := p.Arg("id").Str()
							return async.Go(func() (any, error) { return store.Human(id), nil }), nil
						},
					},
					{
						Name:      "droid",
						Type:      schema.NamedType("Droid"),
						Arguments: idArg,
						Resolve: func(p schema.ResolveParams) (any, error) {
							id := p.Arg("id").Str()
							return async.Go(func() (any, error) { return store.Droid(id), nil }), nil
						},
					},
				},
			},
			{
				Name: "Mutation",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{{
					Name: "rename",
					Type: schema.NamedType("Character"),
					Arguments: []*schema.InputValue{
						{Name: "id", Type: nonNullStr},
						{Name: "name", Type: nonNullStr},
					},
					Resolve: func(p schema.ResolveParams) (any, error) {
						return store.Rename(p.Arg("id").Str(), p.Arg("name").Str())
					},
				}},
			},
		},
	})
}

func resolveCharacter(p schema.ResolveTypeParams) string {
	c, ok := p.Value.(*Character)
	switch {
	case !ok:
		return ""
	case c.Droid:
		return "Droid"
	}
	return "Human"
}
