// Package appconfig loads and persists the per-project configuration
// described by spec §6: `.code-graph/config.json`.
package appconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"codegraph/internal/graph"
)

// ConfigDir is the per-project metadata directory, relative to repoRoot.
const ConfigDir = ".code-graph"

// ConfigFileName is the project config's file name inside ConfigDir.
const ConfigFileName = "config"

// Path returns the absolute path to a project's config.json.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDir, ConfigFileName+".json")
}

// Exists reports whether repoRoot has been initialised with a project config.
func Exists(repoRoot string) bool {
	_, err := os.Stat(Path(repoRoot))
	return err == nil
}

// Load reads `.code-graph/config.json` under repoRoot. A missing config
// file is not an error here: callers that require an initialised project
// check Exists (or catch apperrors.NotInitialised further up the call
// chain) before calling Load; Load itself just falls back to defaults, the
// same graceful-degrade viper already does for missing config.
func Load(repoRoot string) (*graph.ProjectConfig, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return graph.DefaultProjectConfig(), nil
		}
		return nil, err
	}

	var cfg graph.ProjectConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to `.code-graph/config.json` under repoRoot, creating the
// directory if needed.
func Save(repoRoot string, cfg *graph.ProjectConfig) error {
	dir := filepath.Join(repoRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(repoRoot), data, 0o644)
}

// gitignoreContents is written to `.code-graph/.gitignore` by `init`, per
// spec §6's on-disk layout: the store file and its side files should never
// be committed.
const gitignoreContents = "graph.db\ngraph.db-journal\ngraph.db-wal\ngraph.db-shm\n"

// WriteGitignore writes `.code-graph/.gitignore` under repoRoot.
func WriteGitignore(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignoreContents), 0o644)
}
