package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/language"
)

// Bindings attach behaviour to an SDL type graph.
type Bindings struct {
	// Resolvers are keyed "Type.field".
	Resolvers map[string]ResolveFn
	// TypeResolvers are keyed by interface or union name. Abstract types
	// without one use ResolveByTypename.
	TypeResolvers map[string]ResolveTypeFn
	Scalars       map[string]Scalar
}

// Scalar is the coercion pair of a custom scalar.
type Scalar struct {
	Serialize  SerializeFn
	ParseValue ParseValueFn
}

// BuildFromSDL parses SDL and builds a Schema with New. Type extensions are
// merged into their base definitions. Without a schema definition the roots
// default to Query, Mutation and Subscription when those types exist.
func BuildFromSDL(sdl string, bind Bindings) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	defs := make(map[string]*ast.Definition, len(doc.Definitions))
	var order []string
	for _, def := range doc.Definitions {
		if _, dup := defs[def.Name]; dup {
			return nil, fmt.Errorf("schema: type %q is defined more than once", def.Name)
		}
		cp := *def
		defs[def.Name] = &cp
		order = append(order, def.Name)
	}
	for _, ext := range doc.Extensions {
		base, ok := defs[ext.Name]
		if !ok {
			return nil, fmt.Errorf("schema: cannot extend undefined type %q", ext.Name)
		}
		if base.Kind != ext.Kind {
			return nil, fmt.Errorf("schema: extension of %q changes its kind", ext.Name)
		}
		base.Fields = append(append(ast.FieldList(nil), base.Fields...), ext.Fields...)
		base.Interfaces = append(append([]string(nil), base.Interfaces...), ext.Interfaces...)
		base.Types = append(append([]string(nil), base.Types...), ext.Types...)
		base.EnumValues = append(append(ast.EnumValueList(nil), base.EnumValues...), ext.EnumValues...)
		base.Directives = append(append(ast.DirectiveList(nil), base.Directives...), ext.Directives...)
	}

	cfg := Config{}
	for _, sd := range append(doc.Schema, doc.SchemaExtension...) {
		if sd.Description != "" {
			cfg.Description = sd.Description
		}
		for _, ot := range sd.OperationTypes {
			switch ot.Operation {
			case ast.Query:
				cfg.Query = ot.Type
			case ast.Mutation:
				cfg.Mutation = ot.Type
			case ast.Subscription:
				cfg.Subscription = ot.Type
			}
		}
	}
	if len(doc.Schema) == 0 {
		cfg.Query = "Query"
		if _, ok := defs["Mutation"]; ok {
			cfg.Mutation = "Mutation"
		}
		if _, ok := defs["Subscription"]; ok {
			cfg.Subscription = "Subscription"
		}
	}

	used := make(map[string]bool)
	var errs []error
	for _, name := range order {
		t, err := buildDefinition(defs[name], bind, used)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfg.Types = append(cfg.Types, t)
	}
	for _, dd := range doc.Directives {
		d, err := buildDirective(dd)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfg.Directives = append(cfg.Directives, d)
	}
	for _, key := range unusedBindings(bind, used) {
		errs = append(errs, fmt.Errorf("binding %q does not match any schema element", key))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("schema: %w", errors.Join(errs...))
	}
	return New(cfg)
}

func buildDefinition(def *ast.Definition, bind Bindings, used map[string]bool) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case ast.Scalar:
		t.Kind = TypeKindScalar
		if sc, ok := bind.Scalars[def.Name]; ok {
			used["scalar:"+def.Name] = true
			t.Serialize, t.ParseValue = sc.Serialize, sc.ParseValue
		}
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	case ast.Object, ast.Interface:
		t.Kind = TypeKindObject
		if def.Kind == ast.Interface {
			t.Kind = TypeKindInterface
		}
		t.Interfaces = def.Interfaces
		for _, fd := range def.Fields {
			f := &Field{
				Name:        fd.Name,
				Description: fd.Description,
				Type:        TypeRefFromAST(fd.Type),
			}
			f.IsDeprecated, f.DeprecationReason = deprecation(fd.Directives)
			args, err := buildInputValues(def.Name+"."+fd.Name, fd.Arguments)
			if err != nil {
				return nil, err
			}
			f.Arguments = args
			key := def.Name + "." + fd.Name
			if fn, ok := bind.Resolvers[key]; ok {
				used["field:"+key] = true
				f.Resolve = fn
			}
			t.Fields = append(t.Fields, f)
		}
	case ast.Union:
		t.Kind = TypeKindUnion
		t.PossibleTypes = def.Types
	case ast.Enum:
		t.Kind = TypeKindEnum
		for _, ev := range def.EnumValues {
			v := &EnumValue{Name: ev.Name, Description: ev.Description}
			v.IsDeprecated, v.DeprecationReason = deprecation(ev.Directives)
			t.EnumValues = append(t.EnumValues, v)
		}
	case ast.InputObject:
		t.Kind = TypeKindInputObject
		for _, fd := range def.Fields {
			in := &InputValue{
				Name:        fd.Name,
				Description: fd.Description,
				Type:        TypeRefFromAST(fd.Type),
			}
			if fd.DefaultValue != nil {
				in.DefaultValue = LiteralValue(fd.DefaultValue, nil)
			}
			in.IsDeprecated, in.DeprecationReason = deprecation(fd.Directives)
			t.InputFields = append(t.InputFields, in)
		}
	default:
		return nil, fmt.Errorf("type %q has unsupported kind %q", def.Name, def.Kind)
	}
	if t.IsAbstract() {
		if fn, ok := bind.TypeResolvers[def.Name]; ok {
			used["type:"+def.Name] = true
			t.ResolveType = fn
		} else {
			t.ResolveType = ResolveByTypename
		}
	}
	return t, nil
}

func buildInputValues(where string, defs ast.ArgumentDefinitionList) ([]*InputValue, error) {
	var out []*InputValue
	for _, ad := range defs {
		if ad.Type == nil {
			return nil, fmt.Errorf("argument %s(%s:) has no type", where, ad.Name)
		}
		in := &InputValue{
			Name:        ad.Name,
			Description: ad.Description,
			Type:        TypeRefFromAST(ad.Type),
		}
		if ad.DefaultValue != nil {
			in.DefaultValue = LiteralValue(ad.DefaultValue, nil)
		}
		in.IsDeprecated, in.DeprecationReason = deprecation(ad.Directives)
		out = append(out, in)
	}
	return out, nil
}

func buildDirective(dd *ast.DirectiveDefinition) (*Directive, error) {
	args, err := buildInputValues("@"+dd.Name, dd.Arguments)
	if err != nil {
		return nil, err
	}
	d := &Directive{
		Name:         dd.Name,
		Description:  dd.Description,
		Arguments:    args,
		IsRepeatable: dd.IsRepeatable,
	}
	for _, loc := range dd.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	return d, nil
}

func deprecation(dirs ast.DirectiveList) (bool, string) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, DefaultDeprecationReason
}

func unusedBindings(bind Bindings, used map[string]bool) []string {
	var out []string
	for key := range bind.Resolvers {
		if !used["field:"+key] {
			out = append(out, key)
		}
	}
	for key := range bind.TypeResolvers {
		if !used["type:"+key] {
			out = append(out, key)
		}
	}
	for key := range bind.Scalars {
		if !used["scalar:"+key] {
			out = append(out, "scalar "+key)
		}
	}
	sort.Strings(out)
	return out
}
