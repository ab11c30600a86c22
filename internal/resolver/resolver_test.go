package resolver

import (
	"io"
	"os"
	"testing"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

func setupStore(t *testing.T) *store.Store {
	root, err := os.MkdirTemp("", "code-graph-resolver-test-*")
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
	return st
}

func TestResolveSingleCandidateInSameFile(t *testing.T) {
	st := setupStore(t)

	caller := &graph.Node{ID: "caller", Type: graph.NodeFunction, Name: "main", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	callee := &graph.Node{ID: "callee", Type: graph.NodeFunction, Name: "greet", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	if err := st.UpsertNodes([]*graph.Node{caller, callee}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	edge := &graph.Edge{
		ID: "e1", SourceID: "caller", TargetID: graph.MakeRef(graph.RefFunction, "greet"),
		Type: graph.EdgeCalls, Metadata: map[string]interface{}{"unresolved": true, "targetName": "greet"},
	}
	if err := st.UpsertEdges([]*graph.Edge{edge}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	result, err := New(st, logger).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Resolved != 1 || result.Unresolved != 0 || result.Ambiguous != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	callers, err := st.ResolvedCallersOf("callee")
	if err != nil {
		t.Fatalf("ResolvedCallersOf failed: %v", err)
	}
	if len(callers) != 1 || callers[0].ID != "caller" {
		t.Errorf("expected caller resolved to callee, got %+v", callers)
	}
}

func TestResolveStripsReceiverPrefix(t *testing.T) {
	st := setupStore(t)

	caller := &graph.Node{ID: "caller", Type: graph.NodeMethod, Name: "Widget.render", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	callee := &graph.Node{ID: "callee", Type: graph.NodeMethod, Name: "Widget.draw", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	if err := st.UpsertNodes([]*graph.Node{caller, callee}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	edge := &graph.Edge{
		ID: "e1", SourceID: "caller", TargetID: graph.MakeRef(graph.RefFunction, "this.draw"),
		Type: graph.EdgeCalls, Metadata: map[string]interface{}{"unresolved": true, "targetName": "this.draw"},
	}
	if err := st.UpsertEdges([]*graph.Edge{edge}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	result, err := New(st, logger).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Resolved != 1 {
		t.Fatalf("expected this.draw to resolve via bare-name fallback, got %+v", result)
	}
}

func TestResolveLeavesUnresolvedWhenNoCandidate(t *testing.T) {
	st := setupStore(t)

	caller := &graph.Node{ID: "caller", Type: graph.NodeFunction, Name: "main", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	if err := st.UpsertNodes([]*graph.Node{caller}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	edge := &graph.Edge{
		ID: "e1", SourceID: "caller", TargetID: graph.MakeRef(graph.RefFunction, "nothing"),
		Type: graph.EdgeCalls, Metadata: map[string]interface{}{"unresolved": true, "targetName": "nothing"},
	}
	if err := st.UpsertEdges([]*graph.Edge{edge}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	result, err := New(st, logger).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Unresolved != 1 || result.Resolved != 0 {
		t.Fatalf("expected 1 unresolved edge, got %+v", result)
	}
}

func TestResolveAmbiguousWhenScoresAreClose(t *testing.T) {
	st := setupStore(t)

	caller := &graph.Node{ID: "caller", Type: graph.NodeFunction, Name: "main", FilePath: "src/a.ts", Language: graph.LangTypeScript}
	candidate1 := &graph.Node{ID: "c1", Type: graph.NodeFunction, Name: "helper", FilePath: "src/b.ts", Language: graph.LangTypeScript}
	candidate2 := &graph.Node{ID: "c2", Type: graph.NodeFunction, Name: "helper", FilePath: "src/c.ts", Language: graph.LangTypeScript}
	if err := st.UpsertNodes([]*graph.Node{caller, candidate1, candidate2}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	edge := &graph.Edge{
		ID: "e1", SourceID: "caller", TargetID: graph.MakeRef(graph.RefFunction, "helper"),
		Type: graph.EdgeCalls, Metadata: map[string]interface{}{"unresolved": true, "targetName": "helper"},
	}
	if err := st.UpsertEdges([]*graph.Edge{edge}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})
	result, err := New(st, logger).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Ambiguous != 1 {
		t.Fatalf("expected two equally-scored candidates to be ambiguous, got %+v", result)
	}
}
