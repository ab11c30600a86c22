package main

import (
	"fmt"
	"os"

	"codegraph/internal/appconfig"
	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

// getRepoRoot returns the working directory the CLI operates against.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newLogger builds a logger honoring CODE_GRAPH_LOG_LEVEL, falling back to
// info. Format is always human for CLI runs; the tool server's own JSONL
// audit trail (internal/mcpserver) is separate from this logger.
func newLogger() *logging.Logger {
	level := logging.InfoLevel
	if v := os.Getenv("CODE_GRAPH_LOG_LEVEL"); v != "" {
		level = logging.LogLevel(v)
	}
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  level,
	})
}

// openProjectStore opens the repository's store, loading its project config
// along the way. Callers must Close the returned store.
func openProjectStore(repoRoot string, logger *logging.Logger) (*store.Store, *graph.ProjectConfig, error) {
	cfg, err := appconfig.Load(repoRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(repoRoot, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, cfg, nil
}

// mustOpenProjectStore opens the store or exits 1 on failure.
func mustOpenProjectStore(repoRoot string, logger *logging.Logger) (*store.Store, *graph.ProjectConfig) {
	st, cfg, err := openProjectStore(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return st, cfg
}
