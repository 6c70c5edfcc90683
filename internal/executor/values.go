package executor

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/value"
)

// coerceArguments produces the argument map for one field or directive.
// Arguments that are omitted and have no default stay out of the map.
func coerceArguments(s *schema.Schema, defs []*schema.InputValue, nodes ast.ArgumentList, vars map[string]value.Value) (map[string]value.Value, error) {
	coerced := make(map[string]value.Value, len(defs))
	for _, def := range defs {
		node := nodes.ForName(def.Name)
		if node == nil {
			if def.HasDefault() {
				coerced[def.Name] = def.DefaultValue
			} else if def.Type.IsNonNull() {
				return nil, fmt.Errorf("Argument %q of required type %q was not provided.", def.Name, def.Type.String())
			}
			continue
		}

		if node.Value.Kind == ast.Variable {
			v, ok := vars[node.Value.Raw]
			if !ok {
				if def.HasDefault() {
					coerced[def.Name] = def.DefaultValue
				} else if def.Type.IsNonNull() {
					return nil, fmt.Errorf("Argument %q of required type %q was provided the variable \"$%s\" which was not provided a runtime value.",
						def.Name, def.Type.String(), node.Value.Raw)
				}
				continue
			}
			if v.IsNull() && def.Type.IsNonNull() {
				return nil, fmt.Errorf("Argument %q of non-null type %q must not be null.", def.Name, def.Type.String())
			}
			coerced[def.Name] = v
			continue
		}

		if node.Value.Kind == ast.NullValue && def.Type.IsNonNull() {
			return nil, fmt.Errorf("Argument %q of non-null type %q must not be null.", def.Name, def.Type.String())
		}
		v, err := s.CoerceLiteral(def.Type, node.Value, vars)
		if err != nil {
			return nil, fmt.Errorf("Argument %q has invalid value %s; %w", def.Name, node.Value.String(), err)
		}
		coerced[def.Name] = v
	}
	return coerced, nil
}
