package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"codegraph/internal/graph"
)

func tempRepo(t *testing.T) string {
	dir, err := os.MkdirTemp("", "code-graph-appconfig-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestLoadFallsBackToDefaultsWhenMissing(t *testing.T) {
	repo := tempRepo(t)

	if Exists(repo) {
		t.Fatalf("expected Exists to be false for an uninitialised project")
	}

	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := graph.DefaultProjectConfig()
	if len(cfg.Languages) != len(want.Languages) || cfg.AutoSync != want.AutoSync {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	repo := tempRepo(t)

	cfg := &graph.ProjectConfig{
		Languages: []string{"python"},
		Include:   []string{"**/*.py"},
		Exclude:   []string{"**/venv/**"},
		AutoSync:  false,
	}
	if err := Save(repo, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Exists(repo) {
		t.Fatalf("expected Exists to be true after Save")
	}

	loaded, err := Load(repo)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Languages) != 1 || loaded.Languages[0] != "python" {
		t.Errorf("expected languages [python], got %v", loaded.Languages)
	}
	if loaded.AutoSync != false {
		t.Errorf("expected autoSync false, got %v", loaded.AutoSync)
	}
}

func TestWriteGitignoreCreatesFile(t *testing.T) {
	repo := tempRepo(t)
	if err := WriteGitignore(repo); err != nil {
		t.Fatalf("WriteGitignore failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(repo, ConfigDir, ".gitignore"))
	if err != nil {
		t.Fatalf("expected .gitignore to exist: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("expected non-empty .gitignore contents")
	}
}
