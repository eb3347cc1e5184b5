package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/model"
)

// resolveTypeExpr interprets an expression in type position. The grammar is
// deliberately small: the primitive names, list(T), and the name of a
// declared struct or enum.
func resolveTypeExpr(expr hcl.Expression, decls *model.Decls) (model.Type, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			break
		}
		name := e.Traversal.RootName()
		switch name {
		case "number":
			return model.PrimType{Cty: cty.Number}, nil
		case "string":
			return model.PrimType{Cty: cty.String}, nil
		case "bool":
			return model.PrimType{Cty: cty.Bool}, nil
		}
		if _, ok := decls.Struct(name); ok {
			return model.StructType{Name: name}, nil
		}
		if _, ok := decls.Enum(name); ok {
			return model.EnumType{Name: name}, nil
		}
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown type",
			Detail: fmt.Sprintf("There is no type named %q.%s",
				name, suggestionDetail(name, typeNames(decls))),
			Subject: expr.Range().Ptr(),
		}}
	case *hclsyntax.FunctionCallExpr:
		if e.Name != "list" {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unknown type constructor",
				Detail:   fmt.Sprintf("There is no type constructor named %q; only list(...) is available.", e.Name),
				Subject:  expr.Range().Ptr(),
			}}
		}
		if len(e.Args) != 1 {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid list type",
				Detail:   "list(...) requires exactly one element type argument.",
				Subject:  expr.Range().Ptr(),
			}}
		}
		elem, diags := resolveTypeExpr(e.Args[0], decls)
		if diags.HasErrors() {
			return nil, diags
		}
		return model.ListType{Elem: elem}, nil
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid type expression",
		Detail:   "A type must be number, string, bool, list(...) or the name of a declared struct or enum.",
		Subject:  expr.Range().Ptr(),
	}}
}

func typeNames(decls *model.Decls) []string {
	names := []string{"number", "string", "bool"}
	for _, s := range decls.Structs {
		names = append(names, s.Name)
	}
	for _, e := range decls.Enums {
		names = append(names, e.Name)
	}
	return names
}
