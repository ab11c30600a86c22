package store

import (
	"fmt"
	"strings"

	"codegraph/internal/graph"
)

// Stats holds totals and per-dimension breakdowns over the graph.
type Stats struct {
	TotalNodes   int            `json:"totalNodes"`
	TotalEdges   int            `json:"totalEdges"`
	ByType       map[string]int `json:"byType"`
	ByLanguage   map[string]int `json:"byLanguage"`
}

// Stats returns totals and breakdowns by node type and language.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByType: map[string]int{}, ByLanguage: map[string]int{}}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&st.TotalNodes); err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&st.TotalEdges); err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	rows, err := s.db.Query("SELECT type, COUNT(*) FROM nodes GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to group nodes by type: %w", err)
	}
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan type breakdown: %w", err)
		}
		st.ByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.Query("SELECT language, COUNT(*) FROM nodes GROUP BY language")
	if err != nil {
		return nil, fmt.Errorf("failed to group nodes by language: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, fmt.Errorf("failed to scan language breakdown: %w", err)
		}
		st.ByLanguage[lang] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return st, nil
}

// ResolutionStats holds the public resolution metric.
type ResolutionStats struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
	Resolved   int `json:"resolved"`
}

// ResolutionStats computes resolvedCount = totalEdges - unresolvedCount via
// the "ref:" placeholder rule, in O(1) queries (two COUNT(*) scans).
func (s *Store) ResolutionStats() (*ResolutionStats, error) {
	var total, unresolved int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges WHERE target_id LIKE 'ref:%'").Scan(&unresolved); err != nil {
		return nil, fmt.Errorf("failed to count unresolved edges: %w", err)
	}
	return &ResolutionStats{Total: total, Unresolved: unresolved, Resolved: total - unresolved}, nil
}

// FileContext is the (nodesInFile, incomingEdges, outgoingEdges) projection
// for a single file, where incoming/outgoing explicitly exclude edges
// entirely within the file's own node set.
type FileContext struct {
	Nodes    []*graph.Node `json:"nodes"`
	Incoming []*graph.Edge `json:"incoming"`
	Outgoing []*graph.Edge `json:"outgoing"`
}

// FileContext returns the cross-file edge view for path: nodes defined in
// the file, plus edges crossing its boundary in either direction.
func (s *Store) FileContext(path string) (*FileContext, error) {
	nodes, err := s.GetByFile(path)
	if err != nil {
		return nil, err
	}

	inFile := make(map[string]bool, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		inFile[n.ID] = true
		ids = append(ids, n.ID)
	}

	fc := &FileContext{Nodes: nodes}
	if len(ids) == 0 {
		return fc, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	outRows, err := s.db.Query(fmt.Sprintf(
		"SELECT id, source_id, target_id, type, metadata FROM edges WHERE source_id IN (%s)", placeholders,
	), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outgoing edges for %s: %w", path, err)
	}
	outEdges, err := scanEdges(outRows)
	outRows.Close()
	if err != nil {
		return nil, err
	}
	for _, e := range outEdges {
		if !inFile[e.TargetID] {
			fc.Outgoing = append(fc.Outgoing, e)
		}
	}

	inRows, err := s.db.Query(fmt.Sprintf(
		"SELECT id, source_id, target_id, type, metadata FROM edges WHERE target_id IN (%s)", placeholders,
	), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incoming edges for %s: %w", path, err)
	}
	inEdges, err := scanEdges(inRows)
	inRows.Close()
	if err != nil {
		return nil, err
	}
	for _, e := range inEdges {
		if !inFile[e.SourceID] {
			fc.Incoming = append(fc.Incoming, e)
		}
	}

	return fc, nil
}
