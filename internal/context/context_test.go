package context

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

func setupAssembler(t *testing.T) (*Assembler, string, *store.Store) {
	root, err := os.MkdirTemp("", "code-graph-context-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	st, err := store.Open(root, logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
		os.RemoveAll(root)
	})
	return New(st, root, logger), root, st
}

func writeFile(t *testing.T, root, rel, content string) {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestAssembleReturnsFullTargetFileWhenUnderBudget(t *testing.T) {
	a, root, _ := setupAssembler(t)
	content := "function greet() {\n  return 'hi'\n}\n"
	writeFile(t, root, "src/a.ts", content)

	result, err := a.Assemble(Request{FilePath: "src/a.ts", MaxTokens: 8000})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if result.TargetFile.Truncated {
		t.Errorf("expected no truncation for small file")
	}
	if result.TargetFile.Content != content {
		t.Errorf("expected full content, got %q", result.TargetFile.Content)
	}
}

func TestAssembleTruncatesOversizedTargetFile(t *testing.T) {
	a, root, _ := setupAssembler(t)
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("const line = 'padding value here';\n")
	}
	writeFile(t, root, "src/big.ts", b.String())

	result, err := a.Assemble(Request{FilePath: "src/big.ts", MaxTokens: 100})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !result.TargetFile.Truncated {
		t.Fatalf("expected truncation for oversized file")
	}
	if len(result.TargetFile.Content) >= b.Len() {
		t.Errorf("expected truncated content to be shorter than original")
	}
}

func TestAssembleExcludesTestFileDependentsByDefault(t *testing.T) {
	a, root, st := setupAssembler(t)
	writeFile(t, root, "src/lib.ts", "export function helper() {}\n")
	writeFile(t, root, "src/lib.test.ts", "import { helper } from './lib'\nhelper()\n")

	libNode := &graph.Node{ID: "lib-helper", Type: graph.NodeFunction, Name: "helper", FilePath: "src/lib.ts", Language: graph.LangTypeScript, LineStart: 1, LineEnd: 1}
	testNode := &graph.Node{ID: "test-caller", Type: graph.NodeFunction, Name: "test", FilePath: "src/lib.test.ts", Language: graph.LangTypeScript, LineStart: 2, LineEnd: 2}
	if err := st.UpsertNodes([]*graph.Node{libNode, testNode}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}
	edge := &graph.Edge{ID: "e1", SourceID: "test-caller", TargetID: "lib-helper", Type: graph.EdgeCalls}
	if err := st.UpsertEdges([]*graph.Edge{edge}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	result, err := a.Assemble(Request{FilePath: "src/lib.ts", MaxTokens: 8000})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(result.Dependents) != 0 {
		t.Errorf("expected test-file dependent excluded by default, got %+v", result.Dependents)
	}

	result, err = a.Assemble(Request{FilePath: "src/lib.ts", MaxTokens: 8000, IncludeTests: true})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(result.Dependents) != 1 {
		t.Errorf("expected test-file dependent included with IncludeTests, got %+v", result.Dependents)
	}
}

func TestAssembleFindsSimilarFunctionsByTaskKeyword(t *testing.T) {
	a, root, st := setupAssembler(t)
	writeFile(t, root, "src/a.ts", "function computeTotal() {}\n")
	writeFile(t, root, "src/b.ts", "function computeAverage() {}\n")

	n1 := &graph.Node{ID: "n1", Type: graph.NodeFunction, Name: "computeTotal", FilePath: "src/a.ts", Language: graph.LangTypeScript, LineStart: 1, LineEnd: 1}
	n2 := &graph.Node{ID: "n2", Type: graph.NodeFunction, Name: "computeAverage", FilePath: "src/b.ts", Language: graph.LangTypeScript, LineStart: 1, LineEnd: 1}
	if err := st.UpsertNodes([]*graph.Node{n1, n2}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	result, err := a.Assemble(Request{FilePath: "src/a.ts", TaskHint: "fix compute rounding bug", MaxTokens: 8000})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	found := false
	for _, f := range result.SimilarFunctions {
		if f.ID == "n2" {
			found = true
		}
		if f.FilePath == "src/a.ts" {
			t.Errorf("similar functions should exclude the target file, got %+v", f)
		}
	}
	if !found {
		t.Errorf("expected computeAverage to surface as a similar function, got %+v", result.SimilarFunctions)
	}
}
