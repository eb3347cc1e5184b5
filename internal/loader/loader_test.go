package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/require"

	"github.com/juris-lang/juris/internal/loader"
	"github.com/juris-lang/juris/internal/model"
)

func load(t *testing.T, sources map[string]string) (*model.Program, hcl.Diagnostics) {
	t.Helper()
	return loader.New().LoadSources(context.Background(), sources)
}

func loadOne(t *testing.T, src string) (*model.Program, hcl.Diagnostics) {
	t.Helper()
	return load(t, map[string]string{"main.hcl": src})
}

func requireDiag(t *testing.T, diags hcl.Diagnostics, summary string, detail ...string) {
	t.Helper()
	for _, d := range diags {
		if d.Summary != summary {
			continue
		}
		for _, frag := range detail {
			require.Contains(t, d.Detail, frag, "diagnostic %q", summary)
		}
		return
	}
	t.Fatalf("no diagnostic with summary %q in: %s", summary, diags.Error())
}

func TestLoadValidProgram(t *testing.T) {
	t.Parallel()

	prog, diags := load(t, map[string]string{
		"types.hcl": `
		struct "Pair" {
			field "a" { type = number }
			field "b" { type = number }
		}

		enum "Kind" {
			case "Plain"   {}
			case "Wrapped" { type = Pair }
		}
		`,
		"scopes.hcl": `
		scope "Sub" {
			input "x"  { type = number }
			output "y" { type = number }

			rule "y" {
				defines = "y"
				then    = x + 1
			}
		}

		scope "Main" {
			call "s" { scope = "Sub" }

			rule "feed" {
				defines = "s.x"
				then    = 1
			}

			context "rate" {
				type   = number
				output = true
			}

			rule "rate" {
				defines = "rate"
				then    = 20
			}

			output "v" {
				type   = number
				states = ["pre", "post"]
			}

			rule "pre" {
				defines = "v"
				state   = "pre"
				then    = s.y
			}

			rule "post" {
				defines = "v"
				state   = "post"
				then    = v["pre"] * rate
			}

			assert {
				that = v > 0
			}
		}
		`,
	})
	require.False(t, diags.HasErrors(), "diagnostics: %s", diags.Error())

	sub, ok := prog.Scope("Sub")
	require.True(t, ok)
	mainSc, ok := prog.Scope("Main")
	require.True(t, ok)

	x, ok := sub.Var("x")
	require.True(t, ok)
	require.Equal(t, model.OnlyInput, x.Io.Input)
	require.False(t, x.Io.Output)

	rate, ok := mainSc.Var("rate")
	require.True(t, ok)
	require.Equal(t, model.Reentrant, rate.Io.Input)
	require.True(t, rate.Io.Output)

	v, ok := mainSc.Var("v")
	require.True(t, ok)
	require.True(t, v.Stateful())
	require.Equal(t, []string{"pre", "post"}, v.States)

	// Each state carries its own definition site and the rule landed on
	// the right one.
	pre, ok := mainSc.Def(model.DefKey{Var: "v", State: "pre"})
	require.True(t, ok)
	require.Len(t, pre.Rules, 1)
	require.Equal(t, "pre", pre.Rules[0].Name)

	// The call slot for the callee input was claimed by the feed rule.
	slot, ok := mainSc.Def(model.DefKey{Call: "s", Var: "x"})
	require.True(t, ok)
	require.Len(t, slot.Rules, 1)

	require.Len(t, mainSc.Asserts, 1)

	pair, ok := prog.Decls.Struct("Pair")
	require.True(t, ok)
	require.Len(t, pair.Fields, 2)

	kind, ok := prog.Decls.Enum("Kind")
	require.True(t, ok)
	require.Len(t, kind.Cases, 2)
	require.Nil(t, kind.Cases[0].Payload)
	require.NotNil(t, kind.Cases[1].Payload)
}

func TestMaterializedCallSites(t *testing.T) {
	t.Parallel()

	// Caller-suppliable slots exist even when no rule targets them, so
	// the compiler can report missing inputs and pass context emptiness.
	prog, diags := loadOne(t, `
	scope "Sub" {
		input "x"      { type = number }
		input "flag"   { condition = true }
		context "rate" {
			type   = number
			output = true
		}
		rule "rate" {
			defines = "rate"
			then    = 1
		}
		output "y" { type = number }
		rule "y" {
			defines = "y"
			then    = x
		}
	}

	scope "Main" {
		call "s" { scope = "Sub" }
		rule "feed" {
			defines = "s.x"
			then    = 1
		}
		output "v" { type = number }
		rule "v" {
			defines = "v"
			then    = s.y
		}
	}
	`)
	require.False(t, diags.HasErrors(), "diagnostics: %s", diags.Error())

	mainSc, _ := prog.Scope("Main")
	for _, varName := range []string{"x", "flag", "rate"} {
		_, ok := mainSc.Def(model.DefKey{Call: "s", Var: varName})
		require.True(t, ok, "slot for %q", varName)
	}
	// Outputs are not caller-suppliable and get no slot.
	_, ok := mainSc.Def(model.DefKey{Call: "s", Var: "y"})
	require.False(t, ok)
}

func TestLoaderDiagnostics(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		src     string
		summary string
		detail  []string
	}{
		{
			name: "duplicate struct declaration",
			src: `
			struct "P" {
				field "a" { type = number }
			}
			struct "P" {
				field "b" { type = number }
			}
			`,
			summary: "Duplicate declaration",
			detail:  []string{`"P"`},
		},
		{
			name: "struct and enum share a namespace",
			src: `
			struct "T" {
				field "a" { type = number }
			}
			enum "T" {
				case "A" {}
			}
			`,
			summary: "Duplicate declaration",
		},
		{
			name: "duplicate scope",
			src: `
			scope "S" {}
			scope "S" {}
			`,
			summary: "Duplicate scope",
		},
		{
			name: "duplicate field",
			src: `
			struct "P" {
				field "a" { type = number }
				field "a" { type = number }
			}
			`,
			summary: "Duplicate field",
		},
		{
			name: "duplicate case",
			src: `
			enum "E" {
				case "A" {}
				case "A" {}
			}
			`,
			summary: "Duplicate case",
		},
		{
			name: "case names clash across enums",
			src: `
			enum "E1" {
				case "A" {}
			}
			enum "E2" {
				case "A" {}
			}
			`,
			summary: "Ambiguous case name",
			detail:  []string{`enum "E2"`, `enum "E1"`},
		},
		{
			name: "case name clashes with struct",
			src: `
			struct "A" {
				field "f" { type = number }
			}
			enum "E" {
				case "A" {}
			}
			`,
			summary: "Ambiguous case name",
		},
		{
			name: "reserved variable name",
			src: `
			scope "S" {
				output "payload" { type = number }
			}
			`,
			summary: "Reserved name",
		},
		{
			name: "variable name reuse",
			src: `
			scope "S" {
				input "x"  { type = number }
				output "x" { type = number }
			}
			`,
			summary: "Duplicate name",
		},
		{
			name: "call reuses variable name",
			src: `
			scope "Sub" {
				output "y" { type = number }
				rule "y" {
					defines = "y"
					then    = 1
				}
			}
			scope "S" {
				input "c" { type = number }
				call "c"  { scope = "Sub" }
			}
			`,
			summary: "Duplicate name",
		},
		{
			name: "variable shadows struct",
			src: `
			struct "Pair" {
				field "a" { type = number }
			}
			scope "S" {
				output "Pair" { type = number }
			}
			`,
			summary: "Name shadows a declaration",
		},
		{
			name: "unknown type suggests",
			src: `
			scope "S" {
				output "v" { type = numbr }
			}
			`,
			summary: "Unknown type",
			detail:  []string{`Did you mean "number"?`},
		},
		{
			name: "unknown type constructor",
			src: `
			scope "S" {
				output "v" { type = set(number) }
			}
			`,
			summary: "Unknown type constructor",
		},
		{
			name: "missing type",
			src: `
			scope "S" {
				output "v" {}
			}
			`,
			summary: "Missing type",
		},
		{
			name: "condition with explicit type",
			src: `
			scope "S" {
				input "c" {
					condition = true
					type      = number
				}
			}
			`,
			summary: "Conflicting attributes",
		},
		{
			name: "condition false",
			src: `
			scope "S" {
				input "c" { condition = false }
			}
			`,
			summary: "Invalid condition attribute",
		},
		{
			name: "output attribute on internal",
			src: `
			scope "S" {
				internal "v" {
					type   = number
					output = true
				}
			}
			`,
			summary: "Invalid output attribute",
		},
		{
			name: "context variable with param",
			src: `
			scope "S" {
				context "f" {
					type  = number
					param = number
				}
			}
			`,
			summary: "Function-typed context variable",
		},
		{
			name: "input with states",
			src: `
			scope "S" {
				input "v" {
					type   = number
					states = ["a", "b"]
				}
			}
			`,
			summary: "Stateful input variable",
		},
		{
			name: "empty state list",
			src: `
			scope "S" {
				output "v" {
					type   = number
					states = []
				}
			}
			`,
			summary: "Empty state list",
		},
		{
			name: "duplicate state",
			src: `
			scope "S" {
				output "v" {
					type   = number
					states = ["a", "a"]
				}
			}
			`,
			summary: "Duplicate state",
		},
		{
			name: "state list must be a list",
			src: `
			scope "S" {
				output "v" {
					type   = number
					states = "a"
				}
			}
			`,
			summary: "Invalid attribute value",
		},
		{
			name: "unknown callee suggests",
			src: `
			scope "Taxes" {
				output "v" { type = number }
				rule "v" {
					defines = "v"
					then    = 1
				}
			}
			scope "S" {
				call "t" { scope = "Taxs" }
			}
			`,
			summary: "Unknown scope",
			detail:  []string{`Did you mean "Taxes"?`},
		},
		{
			name: "self call",
			src: `
			scope "S" {
				call "me" { scope = "S" }
			}
			`,
			summary: "Recursive call",
		},
		{
			name: "call cycle",
			src: `
			scope "A" {
				call "b" { scope = "B" }
			}
			scope "B" {
				call "a" { scope = "A" }
			}
			`,
			summary: "Scope call cycle",
			detail:  []string{" -> "},
		},
		{
			name: "unknown defines target suggests",
			src: `
			scope "S" {
				output "total" { type = number }
				rule "r" {
					defines = "totl"
					then    = 1
				}
			}
			`,
			summary: "Unknown definition target",
			detail:  []string{`Did you mean "total"?`},
		},
		{
			name: "unknown call in defines",
			src: `
			scope "S" {
				output "v" { type = number }
				rule "r" {
					defines = "c.x"
					then    = 1
				}
			}
			`,
			summary: "Unknown call",
		},
		{
			name: "unknown subscope variable in defines",
			src: `
			scope "Sub" {
				input "rate" { type = number }
				output "y"   { type = number }
				rule "y" {
					defines = "y"
					then    = rate
				}
			}
			scope "S" {
				call "c" { scope = "Sub" }
				rule "r" {
					defines = "c.rte"
					then    = 1
				}
			}
			`,
			summary: "Unknown subscope variable",
			detail:  []string{`Did you mean "rate"?`},
		},
		{
			name: "stateful rule without state",
			src: `
			scope "S" {
				output "v" {
					type   = number
					states = ["a", "b"]
				}
				rule "r" {
					defines = "v"
					then    = 1
				}
			}
			`,
			summary: "Missing state attribute",
		},
		{
			name: "unknown state suggests",
			src: `
			scope "S" {
				output "v" {
					type   = number
					states = ["raw", "net"]
				}
				rule "r" {
					defines = "v"
					state   = "nett"
					then    = 1
				}
			}
			`,
			summary: "Unknown state",
			detail:  []string{`Did you mean "net"?`},
		},
		{
			name: "state on plain variable",
			src: `
			scope "S" {
				output "v" { type = number }
				rule "r" {
					defines = "v"
					state   = "a"
					then    = 1
				}
			}
			`,
			summary: "Invalid state attribute",
		},
		{
			name: "state on redefinition site",
			src: `
			scope "Sub" {
				context "v" {
					type   = number
					output = true
					states = ["a", "b"]
				}
				rule "a" {
					defines = "v"
					state   = "a"
					then    = 1
				}
				rule "b" {
					defines = "v"
					state   = "b"
					then    = 2
				}
			}
			scope "S" {
				call "c" { scope = "Sub" }
				rule "r" {
					defines = "c.v"
					state   = "b"
					then    = 3
				}
			}
			`,
			summary: "Invalid state attribute",
			detail:  []string{"always feed the first state"},
		},
		{
			name: "duplicate rule name per site",
			src: `
			scope "S" {
				output "v" { type = number }
				rule "r" {
					defines = "v"
					then    = 1
				}
				rule "r" {
					defines = "v"
					then    = 2
				}
			}
			`,
			summary: "Duplicate rule",
		},
		{
			name: "reserved parameter name",
			src: `
			scope "S" {
				internal "f" {
					type  = number
					param = number
				}
				rule "r" {
					defines = "f"
					param   = "payload"
					then    = 1
				}
			}
			`,
			summary: "Invalid parameter name",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prog, diags := loadOne(t, tc.src)
			require.True(t, diags.HasErrors(), "expected load to fail")
			require.Nil(t, prog)
			requireDiag(t, diags, tc.summary, tc.detail...)
		})
	}
}

func TestSchemaRejectsStrayContent(t *testing.T) {
	t.Parallel()

	t.Run("unknown block in scope", func(t *testing.T) {
		t.Parallel()
		_, diags := loadOne(t, `
		scope "S" {
			widget "w" {}
		}
		`)
		require.True(t, diags.HasErrors())
	})
	t.Run("unknown attribute in variable", func(t *testing.T) {
		t.Parallel()
		_, diags := loadOne(t, `
		scope "S" {
			output "v" {
				type    = number
				default = 3
			}
		}
		`)
		require.True(t, diags.HasErrors())
	})
	t.Run("rule without defines", func(t *testing.T) {
		t.Parallel()
		_, diags := loadOne(t, `
		scope "S" {
			output "v" { type = number }
			rule "r" {
				then = 1
			}
		}
		`)
		require.True(t, diags.HasErrors())
	})
	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		_, diags := loadOne(t, `scope "S" {`)
		require.True(t, diags.HasErrors())
	})
}

func TestLoadPaths(t *testing.T) {
	t.Parallel()

	t.Run("directory is searched recursively", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
		writeFile(t, filepath.Join(dir, "a.hcl"), `
		scope "A" {
			output "v" { type = number }
			rule "v" {
				defines = "v"
				then    = 1
			}
		}
		`)
		writeFile(t, filepath.Join(dir, "nested", "b.hcl"), `
		scope "B" {
			output "v" { type = number }
			rule "v" {
				defines = "v"
				then    = 2
			}
		}
		`)
		writeFile(t, filepath.Join(dir, "ignored.txt"), "not rules")

		ld := loader.New()
		prog, diags := ld.LoadPaths(context.Background(), dir)
		require.False(t, diags.HasErrors(), "diagnostics: %s", diags.Error())
		_, okA := prog.Scope("A")
		_, okB := prog.Scope("B")
		require.True(t, okA)
		require.True(t, okB)
		require.Len(t, ld.Files(), 2)
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()
		_, diags := loader.New().LoadPaths(context.Background(), t.TempDir())
		requireDiag(t, diags, "No source files")
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		_, diags := loader.New().LoadPaths(context.Background(), filepath.Join(t.TempDir(), "nope"))
		requireDiag(t, diags, "Cannot collect source files")
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
