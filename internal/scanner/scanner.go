// Package scanner implements the full-sync and targeted-update
// reconciliation passes that keep the Store's nodes/edges in lockstep with
// the files on disk.
package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar"

	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

// Result reports what a sync pass did, per spec §4.3's failure semantics.
type Result struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Deleted   int `json:"deleted"`
}

// Scanner reconciles a project's Store against its files on disk.
type Scanner struct {
	repoRoot string
	store    *store.Store
	logger   *logging.Logger
}

// New creates a scanner rooted at repoRoot, persisting into st.
func New(repoRoot string, st *store.Store, logger *logging.Logger) *Scanner {
	return &Scanner{repoRoot: repoRoot, store: st, logger: logger}
}

// FullSync enumerates every file under config's include globs, filters by
// exclude globs and extractor support, and reconciles each one against its
// stored hash. Files present in the store but absent on disk are deleted.
func (s *Scanner) FullSync(cfg *graph.ProjectConfig) (*Result, error) {
	result := &Result{}

	onDisk, err := s.enumerate(cfg)
	if err != nil {
		return nil, err
	}

	onDiskSet := make(map[string]bool, len(onDisk))
	for _, p := range onDisk {
		onDiskSet[p] = true
	}

	existing, err := s.store.AllFileHashes()
	if err != nil {
		return nil, err
	}
	for _, fh := range existing {
		if !onDiskSet[fh.Path] {
			if err := s.store.DeleteByFile(fh.Path); err != nil {
				return nil, err
			}
			result.Deleted++
		}
	}

	for _, path := range onDisk {
		changed, err := s.reconcileFile(path)
		if err != nil {
			s.logger.Warn("extractor failed, file skipped", map[string]interface{}{
				"path": path, "error": err.Error(),
			})
			result.Errors++
			continue
		}
		if changed {
			result.Processed++
		}
	}

	return result, nil
}

// Update reconciles only the given paths, without an enumeration phase. A
// path missing from disk triggers deletion from the store.
func (s *Scanner) Update(paths []string) (*Result, error) {
	result := &Result{}

	for _, path := range paths {
		rel := s.relativize(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if delErr := s.store.DeleteByFile(rel); delErr != nil {
				return nil, delErr
			}
			result.Deleted++
			continue
		}

		changed, err := s.reconcileFile(rel)
		if err != nil {
			s.logger.Warn("extractor failed, file skipped", map[string]interface{}{
				"path": rel, "error": err.Error(),
			})
			result.Errors++
			continue
		}
		if changed {
			result.Processed++
		}
	}

	return result, nil
}

// reconcileFile re-parses path if its content hash changed since the last
// sync; re-parse is always delete-then-insert, never in-place mutation.
func (s *Scanner) reconcileFile(relPath string) (bool, error) {
	absPath := filepath.Join(s.repoRoot, relPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return false, err
	}

	hash := graph.ContentHash(content)
	info, err := os.Stat(absPath)
	if err != nil {
		return false, err
	}

	existing, err := s.store.GetFileHash(relPath)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Hash == hash {
		return false, nil
	}

	extractor := extract.ForPath(relPath)
	if extractor == nil {
		return false, nil
	}

	nodes, edges, err := extractor.Extract(relPath, content)
	if err != nil {
		return false, err
	}

	if err := s.store.DeleteByFile(relPath); err != nil {
		return false, err
	}
	if err := s.store.UpsertNodes(nodes); err != nil {
		return false, err
	}
	if err := s.store.UpsertEdges(edges); err != nil {
		return false, err
	}
	if err := s.store.SetFileHash(&graph.FileHash{
		Path:         relPath,
		Hash:         hash,
		LastModified: info.ModTime().Unix(),
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Scanner) relativize(path string) string {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(s.repoRoot, path); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// enumerate walks repoRoot, returning the repo-relative paths admitted by
// config's include globs, not matched by any exclude glob, and supported by
// some extractor.
func (s *Scanner) enumerate(cfg *graph.ProjectConfig) ([]string, error) {
	include := cfg.Include
	if pyInclude, ok := pythonIncludeFromPyproject(s.repoRoot); ok {
		include = append(include, pyInclude...)
	}

	var matches []string
	err := filepath.Walk(s.repoRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(s.repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if matchesAny(cfg.Exclude, rel+"/") || matchesAny(cfg.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !extract.Supports(rel) {
			return nil
		}
		if !matchesAny(include, rel) {
			return nil
		}
		if matchesAny(cfg.Exclude, rel) {
			return nil
		}
		matches = append(matches, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// pyprojectProject mirrors the subset of pyproject.toml this sniffs.
type pyprojectProject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// pythonIncludeFromPyproject reads repoRoot/pyproject.toml, if present, and
// derives an include glob (`<package>/**/*.py`) from the declared package
// name. enumerate adds it to the configured include globs; it does not
// replace or narrow them.
func pythonIncludeFromPyproject(repoRoot string) ([]string, bool) {
	path := filepath.Join(repoRoot, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var doc pyprojectProject
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, false
	}

	name := doc.Project.Name
	if name == "" {
		name = doc.Tool.Poetry.Name
	}
	if name == "" {
		return nil, false
	}

	pkg := sanitizePackageName(name)
	return []string{pkg + "/**/*.py"}, true
}

func sanitizePackageName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
