// Package common holds the node/edge construction helpers shared by every
// language extractor, kept dependency-free of the extractors themselves so
// both the per-language packages and the top-level dispatcher can import it
// without a cycle.
package common

import (
	"path/filepath"

	"codegraph/internal/graph"
)

// FileNode builds the single `file` node every extractor emits first: name =
// basename, language-tagged, spanning the whole file.
func FileNode(filePath string, language graph.Language, lineCount int) *graph.Node {
	if lineCount < 1 {
		lineCount = 1
	}
	name := filepath.Base(filePath)
	return &graph.Node{
		ID:        graph.NodeID(filePath, graph.NodeFile, name, 1),
		Type:      graph.NodeFile,
		Name:      name,
		FilePath:  filePath,
		LineStart: 1,
		LineEnd:   lineCount,
		Language:  language,
	}
}

// ContainsEdge builds a `contains` edge between two already-identified nodes.
func ContainsEdge(parentID, childID string) *graph.Edge {
	return &graph.Edge{
		ID:       graph.EdgeID(parentID, childID, graph.EdgeContains),
		SourceID: parentID,
		TargetID: childID,
		Type:     graph.EdgeContains,
	}
}

// RefEdge builds an edge whose target is still a `ref:<category>:<name>`
// placeholder, annotated per spec with `unresolved` and `targetName`.
func RefEdge(sourceID string, edgeType graph.EdgeType, category graph.RefCategory, targetName string, line int) *graph.Edge {
	target := graph.MakeRef(category, targetName)
	meta := map[string]interface{}{
		"unresolved": true,
		"targetName": targetName,
	}
	if line > 0 {
		meta["line"] = line
	}
	return &graph.Edge{
		ID:       graph.EdgeID(sourceID, target, edgeType),
		SourceID: sourceID,
		TargetID: target,
		Type:     edgeType,
		Metadata: meta,
	}
}

// CountLines returns the 1-based number of lines in content.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 1
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}

// DedupeCalls returns names in first-seen order with duplicates removed,
// implementing the "at most one calls edge per unique call name within an
// owner" rule shared by every extractor.
func DedupeCalls(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
