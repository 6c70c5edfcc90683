package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlexec/internal/language"
	"github.com/hanpama/gqlexec/internal/schema"
	"github.com/hanpama/gqlexec/internal/value"
)

// VariablesRule is the rule name carried by variable coercion errors.
const VariablesRule = "VariablesOfCorrectType"

// CoerceVariableValues coerces caller-supplied variables against op's
// declarations. Declared variables that are absent and have no default are
// left out of the result. Any error means the operation must not run.
func CoerceVariableValues(s *schema.Schema, op *ast.OperationDefinition, raw map[string]any) (map[string]value.Value, gqlerror.List) {
	out := make(map[string]value.Value, len(op.VariableDefinitions))
	var errs gqlerror.List
	fail := func(vd *ast.VariableDefinition, format string, args ...any) {
		errs = append(errs, &gqlerror.Error{
			Message:   fmt.Sprintf(format, args...),
			Locations: language.LocationOf(vd.Position),
			Rule:      VariablesRule,
		})
	}

	for _, vd := range op.VariableDefinitions {
		ref := schema.TypeRefFromAST(vd.Type)
		if t := s.Type(vd.Type.Name()); !t.IsInputType() {
			fail(vd, `Variable "$%s" expected value of type "%s" which cannot be used as an input type.`, vd.Variable, ref)
			continue
		}

		in, present := raw[vd.Variable]
		if !present {
			if vd.DefaultValue != nil {
				v, err := s.CoerceLiteral(ref, vd.DefaultValue, nil)
				if err != nil {
					fail(vd, `Variable "$%s" has invalid default value: %s`, vd.Variable, err)
					continue
				}
				out[vd.Variable] = v
			} else if ref.IsNonNull() {
				fail(vd, `Variable "$%s" of required type "%s" was not provided.`, vd.Variable, ref)
			}
			continue
		}
		if in == nil && ref.IsNonNull() {
			fail(vd, `Variable "$%s" of non-null type "%s" must not be null.`, vd.Variable, ref)
			continue
		}

		v, err := value.FromGo(in)
		if err != nil {
			fail(vd, `Variable "$%s" got invalid value; %s`, vd.Variable, err)
			continue
		}
		coerced, err := s.CoerceInput(ref, v)
		if err != nil {
			fail(vd, "%s", invalidValueMessage(vd.Variable, v, err))
			continue
		}
		out[vd.Variable] = coerced
	}
	return out, errs
}

func invalidValueMessage(name string, v value.Value, err error) string {
	printed, jerr := json.Marshal(v)
	if jerr != nil {
		printed = []byte(v.String())
	}
	prefix := fmt.Sprintf(`Variable "$%s" got invalid value %s`, name, printed)

	var inputErr *schema.InputError
	if !errors.As(err, &inputErr) {
		return prefix + "; " + err.Error()
	}
	if len(inputErr.Path) > 0 {
		var b strings.Builder
		b.WriteString(name)
		for _, p := range inputErr.Path {
			switch x := p.(type) {
			case int:
				b.WriteString("[" + strconv.Itoa(x) + "]")
			default:
				fmt.Fprintf(&b, ".%v", x)
			}
		}
		prefix += fmt.Sprintf(` at "%s"`, b.String())
	}
	return prefix + "; " + inputErr.Message
}
