package validator

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

func knownDirectives(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterDirective: func(d *ast.Directive, location string) {
			def := c.Directive()
			if def == nil {
				r.Reportf(d.Position, `Unknown directive "@%s".`, d.Name)
				return
			}
			if !def.HasLocation(location) {
				r.Reportf(d.Position, `Directive "@%s" may not be used on %s.`, d.Name, location)
			}
		},
	}
}

func uniqueDirectivesPerLocation(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterDirectives: func(dirs ast.DirectiveList, _ string) {
			seen := make(map[string]*ast.Directive, len(dirs))
			for _, d := range dirs {
				def := c.Schema.Directives[d.Name]
				if def == nil || def.IsRepeatable {
					continue
				}
				if prev, ok := seen[d.Name]; ok {
					r.Report(fmt.Sprintf(`The directive "@%s" can only be used once at this location.`, d.Name), prev.Position, d.Position)
					continue
				}
				seen[d.Name] = d
			}
		},
	}
}
