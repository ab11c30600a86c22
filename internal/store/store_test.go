package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"codegraph/internal/graph"
	"codegraph/internal/logging"
)

func setupTestStore(t *testing.T) (*Store, string) {
	tmpDir, err := os.MkdirTemp("", "code-graph-store-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: io.Discard})

	st, err := Open(tmpDir, logger)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open store: %v", err)
	}

	return st, tmpDir
}

func teardownTestStore(t *testing.T, st *Store, tmpDir string) {
	if err := st.Close(); err != nil {
		t.Errorf("failed to close store: %v", err)
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		t.Errorf("failed to remove temp dir: %v", err)
	}
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	dbPath := filepath.Join(tmpDir, ".code-graph", "graph.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", dbPath)
	}
}

func sampleNode(id, name, filePath string) *graph.Node {
	return &graph.Node{
		ID:        id,
		Type:      graph.NodeFunction,
		Name:      name,
		FilePath:  filePath,
		LineStart: 1,
		LineEnd:   3,
		Language:  graph.LangTypeScript,
		Metadata:  map[string]interface{}{"isExported": true},
	}
}

func TestUpsertAndGetNode(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	n := sampleNode("n1", "greet", "src/a.ts")
	if err := st.UpsertNodes([]*graph.Node{n}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	got, err := st.GetNode("n1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected node, got nil")
	}
	if got.Name != "greet" || got.FilePath != "src/a.ts" {
		t.Errorf("unexpected node: %+v", got)
	}
	if got.Metadata["isExported"] != true {
		t.Errorf("expected metadata to round-trip, got %+v", got.Metadata)
	}
}

func TestGetNodeMissing(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	got, err := st.GetNode("does-not-exist")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing node, got %+v", got)
	}
}

func TestDeleteByFileRemovesIncidentEdges(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	a := sampleNode("a1", "A", "src/a.ts")
	b := sampleNode("b1", "B", "src/b.ts")
	if err := st.UpsertNodes([]*graph.Node{a, b}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	e := &graph.Edge{ID: "e1", SourceID: "a1", TargetID: "b1", Type: graph.EdgeCalls}
	if err := st.UpsertEdges([]*graph.Edge{e}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	if err := st.DeleteByFile("src/a.ts"); err != nil {
		t.Fatalf("DeleteByFile failed: %v", err)
	}

	if n, err := st.GetNode("a1"); err != nil || n != nil {
		t.Fatalf("expected a1 to be deleted, got node=%v err=%v", n, err)
	}
	if n, err := st.GetNode("b1"); err != nil || n == nil {
		t.Fatalf("expected b1 to survive, got node=%v err=%v", n, err)
	}

	stats, err := st.ResolutionStats()
	if err != nil {
		t.Fatalf("ResolutionStats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("expected the incident edge to be removed, got total=%d", stats.Total)
	}
}

func TestResolutionStatsCountsPlaceholders(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	n := sampleNode("n1", "use", "src/a.ts")
	if err := st.UpsertNodes([]*graph.Node{n}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	resolved := &graph.Edge{ID: "e1", SourceID: "n1", TargetID: "n1", Type: graph.EdgeCalls}
	unresolved := &graph.Edge{
		ID: "e2", SourceID: "n1",
		TargetID: graph.MakeRef(graph.RefFunction, "greet"),
		Type:     graph.EdgeCalls,
		Metadata: map[string]interface{}{"unresolved": true, "targetName": "greet"},
	}
	if err := st.UpsertEdges([]*graph.Edge{resolved, unresolved}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	stats, err := st.ResolutionStats()
	if err != nil {
		t.Fatalf("ResolutionStats failed: %v", err)
	}
	if stats.Total != 2 || stats.Unresolved != 1 || stats.Resolved != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	unresolvedEdges, err := st.GetUnresolvedEdges()
	if err != nil {
		t.Fatalf("GetUnresolvedEdges failed: %v", err)
	}
	if len(unresolvedEdges) != 1 || unresolvedEdges[0].ID != "e2" {
		t.Errorf("expected exactly e2 unresolved, got %+v", unresolvedEdges)
	}
}

func TestUpdateEdgeTargetRecordsResolvedFrom(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	caller := sampleNode("caller", "use", "src/a.ts")
	callee := sampleNode("callee", "greet", "src/a.ts")
	if err := st.UpsertNodes([]*graph.Node{caller, callee}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	ref := graph.MakeRef(graph.RefFunction, "greet")
	e := &graph.Edge{
		ID: "e1", SourceID: "caller", TargetID: ref, Type: graph.EdgeCalls,
		Metadata: map[string]interface{}{"unresolved": true, "targetName": "greet"},
	}
	if err := st.UpsertEdges([]*graph.Edge{e}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	if err := st.UpdateEdgeTarget("e1", "callee", false); err != nil {
		t.Fatalf("UpdateEdgeTarget failed: %v", err)
	}

	callers, err := st.ResolvedCallersOf("callee")
	if err != nil {
		t.Fatalf("ResolvedCallersOf failed: %v", err)
	}
	if len(callers) != 1 || callers[0].ID != "caller" {
		t.Errorf("expected caller to resolve to callee, got %+v", callers)
	}

	users, err := st.ResolvedUsersOf("callee")
	if err != nil {
		t.Fatalf("ResolvedUsersOf failed: %v", err)
	}
	if len(users) != 1 || users[0].Metadata["resolvedFrom"] != ref {
		t.Errorf("expected resolvedFrom=%s on the resolved edge, got %+v", ref, users)
	}

	stats, err := st.ResolutionStats()
	if err != nil {
		t.Fatalf("ResolutionStats failed: %v", err)
	}
	if stats.Unresolved != 0 {
		t.Errorf("expected 0 unresolved after UpdateEdgeTarget, got %d", stats.Unresolved)
	}
}

func TestSearchByNameEscapesWildcards(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	n1 := sampleNode("n1", "get_user", "src/a.py")
	n2 := sampleNode("n2", "getuser", "src/b.py")
	if err := st.UpsertNodes([]*graph.Node{n1, n2}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	results, err := st.SearchByName("get_user", 10)
	if err != nil {
		t.Fatalf("SearchByName failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "n1" {
		t.Errorf("expected underscore to be treated literally, got %+v", results)
	}
}

func TestFileContextExcludesWithinFileEdges(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	a := sampleNode("a1", "A", "src/a.ts")
	a2 := sampleNode("a2", "A.method", "src/a.ts")
	b := sampleNode("b1", "B", "src/b.ts")
	if err := st.UpsertNodes([]*graph.Node{a, a2, b}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	withinFile := &graph.Edge{ID: "e1", SourceID: "a1", TargetID: "a2", Type: graph.EdgeContains}
	crossFile := &graph.Edge{ID: "e2", SourceID: "b1", TargetID: "a1", Type: graph.EdgeUses}
	if err := st.UpsertEdges([]*graph.Edge{withinFile, crossFile}); err != nil {
		t.Fatalf("UpsertEdges failed: %v", err)
	}

	fc, err := st.FileContext("src/a.ts")
	if err != nil {
		t.Fatalf("FileContext failed: %v", err)
	}
	if len(fc.Nodes) != 2 {
		t.Errorf("expected 2 nodes in src/a.ts, got %d", len(fc.Nodes))
	}
	if len(fc.Outgoing) != 0 {
		t.Errorf("expected no outgoing cross-file edges, got %+v", fc.Outgoing)
	}
	if len(fc.Incoming) != 1 || fc.Incoming[0].ID != "e2" {
		t.Errorf("expected exactly the cross-file incoming edge, got %+v", fc.Incoming)
	}
}

func TestStatsBreakdowns(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	n1 := sampleNode("n1", "a", "src/a.ts")
	n2 := &graph.Node{ID: "n2", Type: graph.NodeClass, Name: "B", FilePath: "pkg/m.py", LineStart: 1, LineEnd: 5, Language: graph.LangPython}
	if err := st.UpsertNodes([]*graph.Node{n1, n2}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}

	stats, err := st.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalNodes != 2 {
		t.Errorf("expected 2 total nodes, got %d", stats.TotalNodes)
	}
	if stats.ByType["function"] != 1 || stats.ByType["class"] != 1 {
		t.Errorf("unexpected type breakdown: %+v", stats.ByType)
	}
	if stats.ByLanguage["typescript"] != 1 || stats.ByLanguage["python"] != 1 {
		t.Errorf("unexpected language breakdown: %+v", stats.ByLanguage)
	}
}

func TestRunIDIsStable(t *testing.T) {
	st, tmpDir := setupTestStore(t)
	defer teardownTestStore(t, st, tmpDir)

	id1, err := st.RunID()
	if err != nil {
		t.Fatalf("RunID failed: %v", err)
	}
	id2, err := st.RunID()
	if err != nil {
		t.Fatalf("RunID failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected stable run id, got %s != %s", id1, id2)
	}
}
