package app

import (
	"io"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
)

// App encapsulates one configured compiler instance: the output writer,
// an isolated logger and the validated configuration.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
}

// New returns a ready-to-run App with its own logger.
func New(outW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		cfg:    cfg,
	}
}

// writeDiagnostics renders diagnostics with their source snippets.
func (a *App) writeDiagnostics(files map[string]*hcl.File, diags hcl.Diagnostics) {
	wr := hcl.NewDiagnosticTextWriter(a.outW, files, 80, false)
	if err := wr.WriteDiagnostics(diags); err != nil {
		a.logger.Error("failed to render diagnostics", "error", err)
	}
}
