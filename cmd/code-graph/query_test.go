package main

import (
	"testing"

	"codegraph/internal/apperrors"
	"codegraph/internal/graph"
	"codegraph/internal/logging"
	"codegraph/internal/store"
)

func setupQueryStore(t *testing.T) *store.Store {
	t.Helper()
	root := t.TempDir()
	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
	st, err := store.Open(root, logger)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	node := &graph.Node{
		ID:        graph.NodeID("src/a.ts", graph.NodeFunction, "greet", 1),
		Type:      graph.NodeFunction,
		Name:      "greet",
		FilePath:  "src/a.ts",
		LineStart: 1,
		LineEnd:   3,
		Language:  graph.LangTypeScript,
	}
	if err := st.UpsertNodes([]*graph.Node{node}); err != nil {
		t.Fatalf("UpsertNodes failed: %v", err)
	}
	return st
}

func TestFindExactOrSuggestForQueryReturnsExactMatch(t *testing.T) {
	st := setupQueryStore(t)

	node, err := findExactOrSuggestForQuery(st, "greet")
	if err != nil {
		t.Fatalf("expected a match, got error: %v", err)
	}
	if node.Name != "greet" {
		t.Errorf("expected greet, got %s", node.Name)
	}
}

func TestFindExactOrSuggestForQueryReturnsSymbolNotFoundWithSuggestions(t *testing.T) {
	st := setupQueryStore(t)

	_, err := findExactOrSuggestForQuery(st, "zzz_nonexistent")
	if err == nil {
		t.Fatal("expected an error for an unmatched symbol")
	}
	cgErr, ok := err.(*apperrors.CodeGraphError)
	if !ok {
		t.Fatalf("expected *apperrors.CodeGraphError, got %T", err)
	}
	if cgErr.Code != apperrors.SymbolNotFound {
		t.Errorf("expected SymbolNotFound, got %s", cgErr.Code)
	}
}

func TestQueryShortNameStripsDottedPrefix(t *testing.T) {
	if got := queryShortName("User.greet"); got != "greet" {
		t.Errorf("expected greet, got %s", got)
	}
	if got := queryShortName("greet"); got != "greet" {
		t.Errorf("expected greet, got %s", got)
	}
}
