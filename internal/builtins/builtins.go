// Package builtins is the registry of functions callable from rule
// expressions. All builtins are pure functions over cty values; most are
// re-exported from the cty stdlib, with a few domain-specific additions.
package builtins

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Spec is one callable builtin.
type Spec struct {
	name string
	fn   function.Function
}

func (s Spec) Name() string { return s.name }

// CheckArity reports whether the builtin accepts n arguments. The error
// reads as a clause after the builtin's name.
func (s Spec) CheckArity(n int) error {
	fixed := len(s.fn.Params())
	if s.fn.VarParam() != nil {
		if n < fixed {
			return fmt.Errorf("takes at least %s, but %d given", plural(fixed), n)
		}
		return nil
	}
	if n != fixed {
		return fmt.Errorf("takes %s, but %d given", plural(fixed), n)
	}
	return nil
}

// Call applies the builtin to already-evaluated arguments.
func (s Spec) Call(args []cty.Value) (cty.Value, error) {
	return s.fn.Call(args)
}

func plural(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}

// round rounds half away from zero, the convention legal texts use for
// monetary amounts.
var roundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		f := args[0].AsBigFloat()
		half := big.NewFloat(0.5)
		shifted := new(big.Float)
		if f.Sign() >= 0 {
			shifted.Add(f, half)
		} else {
			shifted.Sub(f, half)
		}
		i, _ := shifted.Int(nil)
		return cty.NumberVal(new(big.Float).SetInt(i)), nil
	},
})

// truncate drops the fractional part, toward zero.
var truncateFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "num", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		i, _ := args[0].AsBigFloat().Int(nil)
		return cty.NumberVal(new(big.Float).SetInt(i)), nil
	},
})

var registry = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"int":    stdlib.IntFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"round":  roundFunc,
	"signum": stdlib.SignumFunc,
	"trunc":  truncateFunc,

	"concat":   stdlib.ConcatFunc,
	"contains": stdlib.ContainsFunc,
	"distinct": stdlib.DistinctFunc,
	"element":  stdlib.ElementFunc,
	"flatten":  stdlib.FlattenFunc,
	"length":   stdlib.LengthFunc,
	"slice":    stdlib.SliceFunc,
	"sort":     stdlib.SortFunc,

	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"lower":  stdlib.LowerFunc,
	"split":  stdlib.SplitFunc,
	"strlen": stdlib.StrlenFunc,
	"substr": stdlib.SubstrFunc,
	"upper":  stdlib.UpperFunc,
}

// Lookup resolves a builtin by its surface name.
func Lookup(name string) (Spec, bool) {
	fn, ok := registry[name]
	if !ok {
		return Spec{}, false
	}
	return Spec{name: name, fn: fn}, true
}

// Names returns all builtin names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
