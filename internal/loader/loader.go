// Package loader parses rules-language source files and builds the desugared
// program model that the lowering passes compile.
//
// Loading is strictly a naming and shape concern: every scope, variable,
// call, rule and declaration is resolved and indexed here, while the
// io-mode legality of rule placements is left to the compiler so that those
// errors can report every offending rule together.
package loader

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/juris-lang/juris/internal/ctxlog"
	"github.com/juris-lang/juris/internal/fsutil"
	"github.com/juris-lang/juris/internal/model"
	"github.com/juris-lang/juris/internal/schema"
)

// SourceExt is the file extension of rules-language source files.
const SourceExt = ".hcl"

// Loader parses source files into a model.Program. It retains every parsed
// file so diagnostics can be rendered with source snippets.
type Loader struct {
	parser *hclparse.Parser
}

// New returns a Loader with an empty file set.
func New() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files exposes the parsed files for diagnostic rendering.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// LoadPaths loads every source file found under the given files or
// directories and builds the program.
func (l *Loader) LoadPaths(ctx context.Context, paths ...string) (*model.Program, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectSourceFiles(paths, SourceExt)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Cannot collect source files",
			Detail:   err.Error(),
		}}
	}
	if len(files) == 0 {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "No source files",
			Detail:   fmt.Sprintf("No %s files were found under the given paths.", SourceExt),
		}}
	}
	logger.Debug("collected source files", "count", len(files))

	var diags hcl.Diagnostics
	var bodies []hcl.Body
	for _, path := range files {
		file, moreDiags := l.parser.ParseHCLFile(path)
		diags = append(diags, moreDiags...)
		if file != nil && file.Body != nil {
			bodies = append(bodies, file.Body)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return l.build(ctx, bodies)
}

// LoadSources builds the program from in-memory sources, keyed by a
// filename used in diagnostics. Sources are processed in filename order so
// that declaration ordinals are reproducible.
func (l *Loader) LoadSources(ctx context.Context, sources map[string]string) (*model.Program, hcl.Diagnostics) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags hcl.Diagnostics
	var bodies []hcl.Body
	for _, name := range names {
		file, moreDiags := l.parser.ParseHCL([]byte(sources[name]), name)
		diags = append(diags, moreDiags...)
		if file != nil && file.Body != nil {
			bodies = append(bodies, file.Body)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return l.build(ctx, bodies)
}

// build runs the loading phases over the parsed file bodies. Each phase
// accumulates diagnostics and the loader stops at the first phase boundary
// with errors, so later phases may rely on the invariants of earlier ones.
func (l *Loader) build(ctx context.Context, bodies []hcl.Body) (*model.Program, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	prog := model.NewProgram()
	var diags hcl.Diagnostics

	// Phase 1: split the top level of every file into declaration blocks.
	var scopeBlocks, structBlocks, enumBlocks []*hcl.Block
	for _, body := range bodies {
		content, moreDiags := body.Content(schema.Root)
		diags = append(diags, moreDiags...)
		for _, blk := range content.Blocks {
			switch blk.Type {
			case schema.BlockScope:
				scopeBlocks = append(scopeBlocks, blk)
			case schema.BlockStruct:
				structBlocks = append(structBlocks, blk)
			case schema.BlockEnum:
				enumBlocks = append(enumBlocks, blk)
			}
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	// Phase 2: register every declared name, then decode struct fields and
	// enum cases. Registration happens before decoding so that type
	// expressions may reference declarations from any file.
	diags = append(diags, l.registerDecls(prog, scopeBlocks, structBlocks, enumBlocks)...)
	if diags.HasErrors() {
		return nil, diags
	}
	for _, blk := range structBlocks {
		diags = append(diags, l.decodeStruct(prog.Decls, blk)...)
	}
	for _, blk := range enumBlocks {
		diags = append(diags, l.decodeEnum(prog.Decls, blk)...)
	}
	diags = append(diags, checkCaseNames(prog.Decls)...)
	if diags.HasErrors() {
		return nil, diags
	}

	// Phase 3: declare scope variables and calls, preserving source order.
	contents := make(map[*model.Scope]*hcl.BodyContent, len(scopeBlocks))
	for _, blk := range scopeBlocks {
		sc, ok := prog.Scope(blk.Labels[0])
		if !ok {
			continue
		}
		content, moreDiags := blk.Body.Content(schema.Scope)
		diags = append(diags, moreDiags...)
		contents[sc] = content
		for _, b := range content.Blocks {
			switch b.Type {
			case schema.BlockInput, schema.BlockOutput, schema.BlockInternal, schema.BlockContext:
				diags = append(diags, l.decodeVar(prog.Decls, sc, b)...)
			case schema.BlockCall:
				diags = append(diags, l.decodeCall(prog, sc, b)...)
			}
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	// Phase 4: rules and assertions. Rules may target variables of callee
	// scopes, so every scope's declarations must be complete first.
	for _, sc := range prog.Scopes {
		content := contents[sc]
		if content == nil {
			continue
		}
		seq := 0
		for _, b := range content.Blocks {
			switch b.Type {
			case schema.BlockRule:
				diags = append(diags, l.decodeRule(prog, sc, b, seq)...)
				seq++
			case schema.BlockAssert:
				diags = append(diags, l.decodeAssert(sc, b)...)
			}
		}
	}

	// Phase 5: materialize the remaining caller-side input slots and check
	// the cross-scope call graph.
	materializeCallSites(prog)
	diags = append(diags, checkCallGraph(prog)...)

	if diags.HasErrors() {
		return nil, diags
	}
	logger.Debug("loaded program",
		"scopes", len(prog.Scopes),
		"structs", len(prog.Decls.Structs),
		"enums", len(prog.Decls.Enums))
	return prog, diags
}

// registerDecls claims every top-level name. Structs and enums share one
// namespace because both appear as bare names in type expressions; scopes
// live in their own.
func (l *Loader) registerDecls(prog *model.Program, scopeBlocks, structBlocks, enumBlocks []*hcl.Block) hcl.Diagnostics {
	var diags hcl.Diagnostics

	declRanges := make(map[string]hcl.Range)
	claimDecl := func(blk *hcl.Block) bool {
		name := blk.Labels[0]
		if prior, exists := declRanges[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate declaration",
				Detail:   fmt.Sprintf("A struct or enum named %q was already declared at %s.", name, prior),
				Subject:  blk.DefRange.Ptr(),
			})
			return false
		}
		declRanges[name] = blk.DefRange
		return true
	}

	for _, blk := range structBlocks {
		if claimDecl(blk) {
			prog.Decls.AddStruct(&model.StructDecl{Name: blk.Labels[0], DeclRange: blk.DefRange})
		}
	}
	for _, blk := range enumBlocks {
		if claimDecl(blk) {
			prog.Decls.AddEnum(&model.EnumDecl{Name: blk.Labels[0], DeclRange: blk.DefRange})
		}
	}

	for _, blk := range scopeBlocks {
		name := blk.Labels[0]
		if prior, exists := prog.Scope(name); exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate scope",
				Detail:   fmt.Sprintf("A scope named %q was already declared at %s.", name, prior.DeclRange),
				Subject:  blk.DefRange.Ptr(),
			})
			continue
		}
		prog.AddScope(model.NewScope(name, blk.DefRange))
	}
	return diags
}

// materializeCallSites creates an empty definition site for every
// caller-suppliable variable of every call, so that downstream compilation
// sees each input slot even when no rule targets it.
func materializeCallSites(prog *model.Program) {
	for _, sc := range prog.Scopes {
		for _, call := range sc.Calls {
			callee, ok := prog.Scope(call.Scope)
			if !ok {
				continue
			}
			for _, vd := range callee.Vars {
				if vd.Io.Input == model.NoInput {
					continue
				}
				key := model.DefKey{Call: call.Name, Var: vd.Name}
				if _, exists := sc.Def(key); exists {
					continue
				}
				sc.Defs[key] = &model.ScopeDef{
					Key:       key,
					Type:      vd.Type,
					Io:        vd.Io,
					Condition: vd.Condition,
					DeclRange: call.DeclRange,
				}
			}
		}
	}
}
