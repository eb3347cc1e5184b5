package eval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/juris-lang/juris/internal/eval"
	"github.com/juris-lang/juris/internal/loader"
	"github.com/juris-lang/juris/internal/lower"
	"github.com/juris-lang/juris/internal/target"
)

// compile loads and lowers one source file, failing the test on any
// diagnostic.
func compile(t *testing.T, src string) *target.Program {
	t.Helper()
	ctx := context.Background()
	prog, diags := loader.New().LoadSources(ctx, map[string]string{"main.hcl": src})
	require.False(t, diags.HasErrors(), "load diagnostics: %s", diags.Error())
	lowered, diags := lower.Compile(ctx, prog)
	require.False(t, diags.HasErrors(), "lower diagnostics: %s", diags.Error())
	return lowered
}

func run(t *testing.T, prog *target.Program, scope string, inputs map[string]cty.Value) (*eval.Result, error) {
	t.Helper()
	return eval.New(prog).RunScope(context.Background(), scope, inputs)
}

func requireNumber(t *testing.T, res *eval.Result, name string, want int64) {
	t.Helper()
	v, ok := res.Values[name]
	require.True(t, ok, "output %q missing", name)
	require.Equal(t, cty.Number, v.Type(), "output %q", name)
	got, _ := v.AsBigFloat().Int64()
	require.Equal(t, want, got, "output %q", name)
}

func num(n int64) cty.Value { return cty.NumberIntVal(n) }

func TestUnconditionalRule(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Answer" {
		output "v" { type = number }

		rule "only" {
			defines = "v"
			then    = 42
		}
	}
	`)
	res, err := run(t, prog, "Answer", nil)
	require.NoError(t, err)
	requireNumber(t, res, "v", 42)
}

func TestExceptionOverridesBase(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Fee" {
		input "reduced" { type = bool }
		output "v"      { type = number }

		rule "base" {
			defines = "v"
			then    = 1
		}

		rule "special" {
			defines      = "v"
			when         = reduced
			then         = 2
			exception_to = ["base"]
		}
	}
	`)

	cases := []struct {
		name    string
		reduced cty.Value
		want    int64
	}{
		{name: "exception applies", reduced: cty.True, want: 2},
		{name: "exception declines", reduced: cty.False, want: 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := run(t, prog, "Fee", map[string]cty.Value{"reduced": tc.reduced})
			require.NoError(t, err)
			requireNumber(t, res, "v", tc.want)
		})
	}
}

func TestSameTierConflict(t *testing.T) {
	t.Parallel()

	// Two unprioritized rules for the same variable compile fine; the
	// ambiguity surfaces only at run time.
	prog := compile(t, `
	scope "Ambiguous" {
		output "v" { type = number }

		rule "a" {
			defines = "v"
			then    = 1
		}

		rule "b" {
			defines = "v"
			then    = 2
		}
	}
	`)
	_, err := run(t, prog, "Ambiguous", nil)
	var conflict *eval.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Positions, 2)
}

func TestUndefinedConditionIsFalse(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Eligibility" {
		output "eligible" { condition = true }
	}
	`)
	res, err := run(t, prog, "Eligibility", nil)
	require.NoError(t, err)
	require.Equal(t, cty.False, res.Values["eligible"])
}

func TestProvenCondition(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Eligibility" {
		input "age"       { type = number }
		output "eligible" { condition = true }

		rule "senior" {
			defines = "eligible"
			when    = age >= 65
			then    = true
		}
	}
	`)
	res, err := run(t, prog, "Eligibility", map[string]cty.Value{"age": num(70)})
	require.NoError(t, err)
	require.Equal(t, cty.True, res.Values["eligible"])

	res, err = run(t, prog, "Eligibility", map[string]cty.Value{"age": num(30)})
	require.NoError(t, err)
	require.Equal(t, cty.False, res.Values["eligible"])
}

func TestNoRuleApplies(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Partial" {
		input "x"  { type = number }
		output "v" { type = number }

		rule "positive" {
			defines = "v"
			when    = x > 0
			then    = 1
		}
	}
	`)
	_, err := run(t, prog, "Partial", map[string]cty.Value{"x": num(-1)})
	var noValue *eval.NoValueError
	require.ErrorAs(t, err, &noValue)
}

func TestContextOverride(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Rates" {
		context "rate" {
			type   = number
			output = true
		}

		rule "statutory" {
			defines = "rate"
			then    = 10
		}
	}

	scope "Keeps" {
		call "r" { scope = "Rates" }

		output "v" { type = number }
		rule "read" {
			defines = "v"
			then    = r.rate
		}
	}

	scope "Overrides" {
		call "r" { scope = "Rates" }

		rule "negotiated" {
			defines = "r.rate"
			then    = 99
		}

		output "v" { type = number }
		rule "read" {
			defines = "v"
			then    = r.rate
		}
	}
	`)

	t.Run("standalone uses own rules", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Rates", nil)
		require.NoError(t, err)
		requireNumber(t, res, "rate", 10)
	})
	t.Run("entry input wins over own rules", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Rates", map[string]cty.Value{"rate": num(5)})
		require.NoError(t, err)
		requireNumber(t, res, "rate", 5)
	})
	t.Run("caller without rules keeps callee default", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Keeps", nil)
		require.NoError(t, err)
		requireNumber(t, res, "v", 10)
	})
	t.Run("caller rule overrides callee default", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Overrides", nil)
		require.NoError(t, err)
		requireNumber(t, res, "v", 99)
	})
}

func TestConditionInputDefaults(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Toll" {
		input "resident" { condition = true }
		output "fee"     { type = number }

		rule "base" {
			defines = "fee"
			then    = 100
		}

		rule "resident_discount" {
			defines      = "fee"
			when         = resident
			then         = 50
			exception_to = ["base"]
		}
	}

	scope "Visitor" {
		call "t" { scope = "Toll" }

		output "fee" { type = number }
		rule "read" {
			defines = "fee"
			then    = t.fee
		}
	}
	`)

	t.Run("unsupplied entry condition is false", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Toll", nil)
		require.NoError(t, err)
		requireNumber(t, res, "fee", 100)
	})
	t.Run("supplied entry condition", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Toll", map[string]cty.Value{"resident": cty.True})
		require.NoError(t, err)
		requireNumber(t, res, "fee", 50)
	})
	t.Run("caller may leave a condition input undefined", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Visitor", nil)
		require.NoError(t, err)
		requireNumber(t, res, "fee", 100)
	})
}

func TestMissingMandatoryInput(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Needs" {
		input "x"  { type = number }
		output "v" { type = number }

		rule "v" {
			defines = "v"
			then    = x
		}
	}
	`)
	_, err := run(t, prog, "Needs", nil)
	var missing *eval.MissingInputError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "x", missing.Var)

	_, err = run(t, prog, "Needs", map[string]cty.Value{"x": num(1), "bogus": num(2)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
}

func TestStatefulVariable(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Income" {
		input "base" { type = number }

		output "v" {
			type   = number
			states = ["raw", "taxed"]
		}

		rule "fill" {
			defines = "v"
			state   = "raw"
			then    = base
		}

		rule "refine" {
			defines = "v"
			state   = "taxed"
			then    = v["raw"] * 2
		}

		output "bare" { type = number }
		rule "bare_read" {
			defines = "bare"
			then    = v
		}

		output "first" { type = number }
		rule "first_read" {
			defines = "first"
			then    = v["raw"]
		}
	}
	`)
	res, err := run(t, prog, "Income", map[string]cty.Value{"base": num(21)})
	require.NoError(t, err)
	// The observable value of a stateful variable is its last state; a
	// bare read resolves the same way.
	requireNumber(t, res, "v", 42)
	requireNumber(t, res, "bare", 42)
	requireNumber(t, res, "first", 21)
}

func TestStatefulSeedFeedsFirstState(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Chain" {
		context "v" {
			type   = number
			output = true
			states = ["start", "final"]
		}

		rule "s0" {
			defines = "v"
			state   = "start"
			then    = 1
		}

		rule "s1" {
			defines = "v"
			state   = "final"
			then    = v["start"] + 1
		}
	}

	scope "Seeded" {
		call "c" { scope = "Chain" }

		rule "seed" {
			defines = "c.v"
			then    = 10
		}

		output "r" { type = number }
		rule "read" {
			defines = "r"
			then    = c.v
		}
	}
	`)

	t.Run("standalone refines its own start", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Chain", nil)
		require.NoError(t, err)
		requireNumber(t, res, "v", 2)
	})
	t.Run("caller seed lands in the first state", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Seeded", nil)
		require.NoError(t, err)
		requireNumber(t, res, "r", 11)
	})
}

func TestSubscopeChain(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Inner" {
		input "x"  { type = number }
		output "y" { type = number }

		rule "y" {
			defines = "y"
			then    = x + 1
		}
	}

	scope "Middle" {
		input "x"  { type = number }
		call "in"  { scope = "Inner" }

		rule "forward" {
			defines = "in.x"
			then    = x * 2
		}

		output "y" { type = number }
		rule "y" {
			defines = "y"
			then    = in.y
		}
	}

	scope "Outer" {
		call "m" { scope = "Middle" }

		rule "start" {
			defines = "m.x"
			then    = 3
		}

		output "y" { type = number }
		rule "y" {
			defines = "y"
			then    = m.y
		}
	}
	`)
	res, err := run(t, prog, "Outer", nil)
	require.NoError(t, err)
	requireNumber(t, res, "y", 7)
}

func TestCallErrorCarriesRuntimeKind(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Clashing" {
		output "v" { type = number }

		rule "a" {
			defines = "v"
			then    = 1
		}

		rule "b" {
			defines = "v"
			then    = 2
		}
	}

	scope "Caller" {
		call "c" { scope = "Clashing" }

		output "v" { type = number }
		rule "read" {
			defines = "v"
			then    = c.v
		}
	}
	`)
	_, err := run(t, prog, "Caller", nil)
	var conflict *eval.ConflictError
	require.ErrorAs(t, err, &conflict, "conflict must survive call-site wrapping")
	require.Contains(t, err.Error(), "Clashing")
}

func TestFunctionVariable(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Fees" {
		input "threshold" { type = number }

		internal "fee" {
			type  = number
			param = number
		}

		rule "base_fee" {
			defines = "fee"
			param   = "amount"
			then    = amount * 2
		}

		rule "large_fee" {
			defines      = "fee"
			param        = "amt"
			when         = amt > threshold
			then         = amt * 3
			exception_to = ["base_fee"]
		}

		output "small" { type = number }
		rule "small" {
			defines = "small"
			then    = fee(10)
		}

		output "large" { type = number }
		rule "large" {
			defines = "large"
			then    = fee(100)
		}
	}
	`)
	// Rules bind the parameter under different names; both must see the
	// applied argument through the one shared binder.
	res, err := run(t, prog, "Fees", map[string]cty.Value{"threshold": num(50)})
	require.NoError(t, err)
	requireNumber(t, res, "small", 20)
	requireNumber(t, res, "large", 300)
}

func TestAssertions(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Checked" {
		input "x"  { type = number }
		output "y" { type = number }

		rule "y" {
			defines = "y"
			then    = x * 2
		}

		assert {
			that = y >= x
		}
	}
	`)

	t.Run("holds", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Checked", map[string]cty.Value{"x": num(5)})
		require.NoError(t, err)
		requireNumber(t, res, "y", 10)
	})
	t.Run("fails", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, prog, "Checked", map[string]cty.Value{"x": num(-5)})
		var failed *eval.AssertError
		require.ErrorAs(t, err, &failed)
	})
}

func TestEnumMatch(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	struct "Wage" {
		field "monthly" { type = number }
	}

	enum "Status" {
		case "Employed" { type = Wage }
		case "Retired"  {}
	}

	scope "Classify" {
		input "status"  { type = Status }
		output "income" { type = number }

		rule "income" {
			defines = "income"
			then    = match(status, {
				Retired  = 0
				Employed = payload.monthly * 12
			})
		}
	}

	scope "Pension" {
		output "status" { type = Status }
		rule "status" {
			defines = "status"
			then    = Retired
		}

		output "income" { type = number }
		rule "income" {
			defines = "income"
			then    = match(status, {
				Employed = payload.monthly
				Retired  = 0
			})
		}
	}
	`)

	t.Run("payload case", func(t *testing.T) {
		t.Parallel()
		status := cty.ObjectVal(map[string]cty.Value{
			"case":    cty.StringVal("Employed"),
			"payload": cty.ObjectVal(map[string]cty.Value{"monthly": num(100)}),
		})
		res, err := run(t, prog, "Classify", map[string]cty.Value{"status": status})
		require.NoError(t, err)
		requireNumber(t, res, "income", 1200)
	})
	t.Run("unit case constructed in rules", func(t *testing.T) {
		t.Parallel()
		res, err := run(t, prog, "Pension", nil)
		require.NoError(t, err)
		requireNumber(t, res, "income", 0)
		require.Equal(t, cty.StringVal("Retired"), res.Values["status"].GetAttr("case"))
	})
}

func TestStructLiteralAndFields(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	struct "Pair" {
		field "a" { type = number }
		field "b" { type = number }
	}

	scope "Rec" {
		output "p" { type = Pair }
		rule "p" {
			defines = "p"
			then    = Pair({ a = 1, b = 2 })
		}

		output "sum" { type = number }
		rule "sum" {
			defines = "sum"
			then    = p.a + p.b
		}
	}
	`)
	res, err := run(t, prog, "Rec", nil)
	require.NoError(t, err)
	requireNumber(t, res, "sum", 3)
}

func TestBuiltinsAndOperators(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Calc" {
		input "x" { type = number }

		output "rounded" { type = number }
		rule "rounded" {
			defines = "rounded"
			then    = round(x * 1.5)
		}

		output "clamped" { type = number }
		rule "clamped" {
			defines = "clamped"
			then    = min(max(x, 0), 100)
		}

		output "sign" { type = string }
		rule "sign" {
			defines = "sign"
			then    = x >= 0 ? "pos" : "neg"
		}

		output "parity" { type = number }
		rule "parity" {
			defines = "parity"
			then    = x % 2
		}
	}
	`)
	res, err := run(t, prog, "Calc", map[string]cty.Value{"x": num(5)})
	require.NoError(t, err)
	requireNumber(t, res, "rounded", 8)
	requireNumber(t, res, "clamped", 5)
	requireNumber(t, res, "parity", 1)
	require.Equal(t, cty.StringVal("pos"), res.Values["sign"])
}

func TestDivisionByZero(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Div" {
		input "d"  { type = number }
		output "v" { type = number }

		rule "v" {
			defines = "v"
			then    = 10 / d
		}
	}
	`)
	_, err := run(t, prog, "Div", map[string]cty.Value{"d": num(0)})
	var evalErr *eval.EvalError
	require.ErrorAs(t, err, &evalErr)
	require.Contains(t, evalErr.Msg, "division by zero")
}

func TestListsAndIndexing(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Brackets" {
		input "income" { type = number }

		internal "bounds" { type = list(number) }
		rule "bounds" {
			defines = "bounds"
			then    = [10000, 40000, 90000]
		}

		output "count" { type = number }
		rule "count" {
			defines = "count"
			then    = length(bounds)
		}

		output "top" { type = number }
		rule "top" {
			defines = "top"
			then    = bounds[2]
		}
	}
	`)
	res, err := run(t, prog, "Brackets", map[string]cty.Value{"income": num(1)})
	require.NoError(t, err)
	requireNumber(t, res, "count", 3)
	requireNumber(t, res, "top", 90000)
}

func TestUnknownScopeAndBadInputs(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Only" {
		output "v" { type = number }
		rule "v" {
			defines = "v"
			then    = 1
		}
	}
	`)
	_, err := run(t, prog, "Nope", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown scope")
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Slow" {
		output "v" { type = number }
		rule "v" {
			defines = "v"
			then    = 1
		}
	}
	`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eval.New(prog).RunScope(ctx, "Slow", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExceptionChainDepth(t *testing.T) {
	t.Parallel()

	// Exceptions of exceptions: the innermost applicable level wins.
	prog := compile(t, `
	scope "Layers" {
		input "a" { condition = true }
		input "b" { condition = true }

		output "v" { type = number }

		rule "base" {
			defines = "v"
			then    = 1
		}

		rule "first" {
			defines      = "v"
			when         = a
			then         = 2
			exception_to = ["base"]
		}

		rule "second" {
			defines      = "v"
			when         = b
			then         = 3
			exception_to = ["first"]
		}
	}
	`)

	cases := []struct {
		name string
		a, b cty.Value
		want int64
	}{
		{name: "no exception applies", a: cty.False, b: cty.False, want: 1},
		{name: "middle layer applies", a: cty.True, b: cty.False, want: 2},
		{name: "outermost exception wins", a: cty.True, b: cty.True, want: 3},
		{name: "outer exception fires without middle", a: cty.False, b: cty.True, want: 3},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := run(t, prog, "Layers", map[string]cty.Value{"a": tc.a, "b": tc.b})
			require.NoError(t, err)
			requireNumber(t, res, "v", tc.want)
		})
	}
}

func TestLabelGroupsShareTier(t *testing.T) {
	t.Parallel()

	// Two rules under one label form a piecewise tier: their
	// justifications must be mutually exclusive, and one exception can
	// override both at once.
	prog := compile(t, `
	scope "Piecewise" {
		input "x" { type = number }
		input "holiday" { condition = true }

		output "v" { type = number }

		rule "low" {
			defines = "v"
			label   = "schedule"
			when    = x < 10
			then    = 1
		}

		rule "high" {
			defines = "v"
			label   = "schedule"
			when    = x >= 10
			then    = 2
		}

		rule "closed" {
			defines      = "v"
			when         = holiday
			then         = 0
			exception_to = ["schedule"]
		}
	}
	`)

	cases := []struct {
		name    string
		x       int64
		holiday cty.Value
		want    int64
	}{
		{name: "low piece", x: 5, holiday: cty.False, want: 1},
		{name: "high piece", x: 15, holiday: cty.False, want: 2},
		{name: "exception overrides the whole tier", x: 15, holiday: cty.True, want: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := run(t, prog, "Piecewise", map[string]cty.Value{
				"x":       num(tc.x),
				"holiday": tc.holiday,
			})
			require.NoError(t, err)
			requireNumber(t, res, "v", tc.want)
		})
	}
}

func TestRuleOrderIsIrrelevant(t *testing.T) {
	t.Parallel()

	// The same rules in opposite declaration order produce the same
	// values and detect the same conflicts.
	forward := `
	scope "S" {
		input "flag" { type = bool }
		output "v"   { type = number }

		rule "base" {
			defines = "v"
			then    = 1
		}

		rule "exc" {
			defines      = "v"
			when         = flag
			then         = 2
			exception_to = ["base"]
		}
	}
	`
	backward := `
	scope "S" {
		input "flag" { type = bool }
		output "v"   { type = number }

		rule "exc" {
			defines      = "v"
			when         = flag
			then         = 2
			exception_to = ["base"]
		}

		rule "base" {
			defines = "v"
			then    = 1
		}
	}
	`
	for _, src := range []string{forward, backward} {
		prog := compile(t, src)
		for flag, want := range map[bool]int64{true: 2, false: 1} {
			res, err := run(t, prog, "S", map[string]cty.Value{"flag": cty.BoolVal(flag)})
			require.NoError(t, err)
			requireNumber(t, res, "v", want)
		}
	}
}

func TestFunctionOutputRejectedAtBoundary(t *testing.T) {
	t.Parallel()

	prog := compile(t, `
	scope "Formula" {
		output "f" {
			type  = number
			param = number
		}

		rule "f" {
			defines = "f"
			param   = "x"
			then    = x + 1
		}
	}
	`)
	_, err := run(t, prog, "Formula", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "function")
}

func TestErrorsAreTyped(t *testing.T) {
	t.Parallel()

	// Wrapped runtime errors stay inspectable.
	err := error(&eval.ConflictError{})
	var conflict *eval.ConflictError
	require.True(t, errors.As(err, &conflict))
}
