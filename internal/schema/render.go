package schema

import (
	"maps"
	"slices"
	"strings"

	"github.com/hanpama/gqlexec/internal/value"
)

// Render prints s as SDL. Builtin scalars and directives are left out; types
// and directives are sorted by name so the output is deterministic.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{}
	w.schemaDefinition(s)
	for _, name := range slices.Sorted(maps.Keys(s.Types)) {
		if !IsBuiltinType(name) {
			w.typeDefinition(s.Types[name])
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s.Directives)) {
		if !IsBuiltinDirective(name) {
			w.directiveDefinition(s.Directives[name])
		}
	}
	return strings.TrimRight(w.String(), "\n") + "\n"
}

type sdlWriter struct {
	strings.Builder
}

// schemaDefinition is written only when the root names are not the
// conventional ones, or the schema has a description.
func (w *sdlWriter) schemaDefinition(s *Schema) {
	conventional := s.QueryType == "Query" &&
		(s.MutationType == "" || s.MutationType == "Mutation") &&
		(s.SubscriptionType == "" || s.SubscriptionType == "Subscription")
	if conventional && s.Description == "" {
		return
	}
	w.description("", s.Description)
	w.WriteString("schema {\n  query: " + s.QueryType + "\n")
	if s.MutationType != "" {
		w.WriteString("  mutation: " + s.MutationType + "\n")
	}
	if s.SubscriptionType != "" {
		w.WriteString("  subscription: " + s.SubscriptionType + "\n")
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) typeDefinition(t *Type) {
	w.description("", t.Description)
	switch t.Kind {
	case TypeKindScalar:
		w.WriteString("scalar " + t.Name)
		if t.SpecifiedByURL != nil {
			w.WriteString(" @specifiedBy(url: " + value.NewString(*t.SpecifiedByURL).String() + ")")
		}
		w.WriteString("\n\n")
	case TypeKindObject:
		w.composite("type", t)
	case TypeKindInterface:
		w.composite("interface", t)
	case TypeKindUnion:
		w.WriteString("union " + t.Name + " = " + strings.Join(t.PossibleTypes, " | ") + "\n\n")
	case TypeKindEnum:
		w.WriteString("enum " + t.Name + " {\n")
		for _, v := range t.EnumValues {
			w.description("  ", v.Description)
			w.WriteString("  " + v.Name)
			w.deprecated(v.IsDeprecated, v.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")
	case TypeKindInputObject:
		w.WriteString("input " + t.Name + " {\n")
		for _, f := range t.InputFields {
			w.description("  ", f.Description)
			w.WriteString("  ")
			w.inputValue(f)
			w.deprecated(f.IsDeprecated, f.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")
	}
}

// composite writes an object or interface type with its fields.
func (w *sdlWriter) composite(keyword string, t *Type) {
	w.WriteString(keyword + " " + t.Name)
	if len(t.Interfaces) > 0 {
		w.WriteString(" implements " + strings.Join(t.Interfaces, " & "))
	}
	w.WriteString(" {\n")
	for _, f := range t.Fields {
		w.description("  ", f.Description)
		w.WriteString("  " + f.Name)
		w.arguments(f.Arguments)
		w.WriteString(": " + f.Type.String())
		w.deprecated(f.IsDeprecated, f.DeprecationReason)
		w.WriteString("\n")
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) directiveDefinition(d *Directive) {
	w.description("", d.Description)
	w.WriteString("directive @" + d.Name)
	w.arguments(d.Arguments)
	if d.IsRepeatable {
		w.WriteString(" repeatable")
	}
	w.WriteString(" on " + strings.Join(d.Locations, " | ") + "\n\n")
}

func (w *sdlWriter) arguments(args []*InputValue) {
	if len(args) == 0 {
		return
	}
	w.WriteString("(")
	for i, a := range args {
		if i > 0 {
			w.WriteString(", ")
		}
		w.inputValue(a)
	}
	w.WriteString(")")
}

func (w *sdlWriter) inputValue(iv *InputValue) {
	w.WriteString(iv.Name + ": " + iv.Type.String())
	if !iv.DefaultValue.IsUndefined() {
		w.WriteString(" = " + iv.DefaultValue.String())
	}
}

func (w *sdlWriter) description(indent, desc string) {
	if desc == "" {
		return
	}
	body := strings.ReplaceAll(desc, `"""`, `\"""`)
	body = strings.ReplaceAll(body, "\n", "\n"+indent)
	w.WriteString(indent + `"""` + "\n" + indent + body + "\n" + indent + `"""` + "\n")
}

func (w *sdlWriter) deprecated(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	w.WriteString(" @deprecated")
	if reason != "" && reason != DefaultDeprecationReason {
		w.WriteString("(reason: " + value.NewString(reason).String() + ")")
	}
}
