package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are the source files or directories to load, searched
	// recursively for rules files.
	Paths []string

	// EntryScope names the scope to execute. Empty means compile only: the
	// lowered program is printed instead of run.
	EntryScope string

	// InputsJSON is a JSON object supplying the entry scope's inputs.
	InputsJSON string

	// OutPath redirects the printed program or the run result to a file.
	OutPath string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one source path is required")
	}
	if cfg.InputsJSON != "" && cfg.EntryScope == "" {
		return nil, errors.New("inputs were supplied but no scope to run was named")
	}
	return &cfg, nil
}
