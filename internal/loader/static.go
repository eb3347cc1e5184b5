package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Helpers for attributes whose values must be known at load time, before any
// evaluation context exists. They evaluate the expression with a nil context,
// so any reference to a variable or function produces a diagnostic.

func staticString(attr *hcl.Attribute) (string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil || val.IsNull() {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   fmt.Sprintf("The %q attribute requires a string value.", attr.Name),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return val.AsString(), nil
}

func staticStringList(attr *hcl.Attribute) ([]string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   fmt.Sprintf("The %q attribute requires a list of strings.", attr.Name),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		ev, err := convert.Convert(ev, cty.String)
		if err != nil || ev.IsNull() {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid attribute value",
				Detail:   fmt.Sprintf("Each element of %q must be a string.", attr.Name),
				Subject:  attr.Expr.Range().Ptr(),
			}}
		}
		out = append(out, ev.AsString())
	}
	return out, nil
}

func staticBool(attr *hcl.Attribute) (bool, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return false, diags
	}
	val, err := convert.Convert(val, cty.Bool)
	if err != nil || val.IsNull() {
		return false, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   fmt.Sprintf("The %q attribute requires a boolean value.", attr.Name),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return val.True(), nil
}
