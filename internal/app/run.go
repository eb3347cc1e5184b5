package app

import (
	"context"
	"fmt"
	"os"

	"github.com/juris-lang/juris/internal/ctxlog"
	"github.com/juris-lang/juris/internal/eval"
	"github.com/juris-lang/juris/internal/loader"
	"github.com/juris-lang/juris/internal/lower"
	"github.com/juris-lang/juris/internal/target"
)

// Run executes the configured pipeline. Diagnostics are printed with
// source snippets; the returned error then only carries the count.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("compiler run started", "paths", a.cfg.Paths)

	ld := loader.New()
	prog, diags := ld.LoadPaths(ctx, a.cfg.Paths...)
	if diags.HasErrors() {
		a.writeDiagnostics(ld.Files(), diags)
		return fmt.Errorf("loading failed with %d error(s)", len(diags.Errs()))
	}
	a.logger.Debug("sources loaded", "scopes", len(prog.Scopes))

	lowered, diags := lower.Compile(ctx, prog)
	if diags.HasErrors() {
		a.writeDiagnostics(ld.Files(), diags)
		return fmt.Errorf("lowering failed with %d error(s)", len(diags.Errs()))
	}
	a.logger.Debug("program lowered", "scopes", len(lowered.Scopes))

	if a.cfg.EntryScope == "" {
		return a.emit(target.NewPrinter(lowered.Arena).Program(lowered))
	}
	return a.exec(ctx, lowered)
}

// exec runs the entry scope and emits its outputs as one JSON object.
func (a *App) exec(ctx context.Context, prog *target.Program) error {
	inputs, err := parseInputs(a.cfg.InputsJSON)
	if err != nil {
		return fmt.Errorf("invalid inputs: %w", err)
	}
	res, err := eval.New(prog).RunScope(ctx, a.cfg.EntryScope, inputs)
	if err != nil {
		return err
	}
	out, err := renderResult(res)
	if err != nil {
		return err
	}
	return a.emit(out)
}

// emit writes to the configured output file, or to the app writer.
func (a *App) emit(s string) error {
	if a.cfg.OutPath != "" {
		return os.WriteFile(a.cfg.OutPath, []byte(s), 0o644)
	}
	_, err := fmt.Fprint(a.outW, s)
	return err
}
