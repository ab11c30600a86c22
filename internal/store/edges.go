package store

import (
	"database/sql"
	"fmt"
	"strings"

	"codegraph/internal/graph"
)

// UpsertEdges writes a batch of edges atomically.
func (s *Store) UpsertEdges(edges []*graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return s.db.WithTx(func(tx *sql.Tx) error {
		return upsertEdgesTx(tx, edges)
	})
}

func upsertEdgesTx(tx *sql.Tx, edges []*graph.Edge) error {
	stmt, err := tx.Prepare(`
		INSERT INTO edges (id, source_id, target_id, type, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id=excluded.source_id, target_id=excluded.target_id,
			type=excluded.type, metadata=excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		blob, err := encodeMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for edge %s: %w", e.ID, err)
		}
		if _, err := stmt.Exec(e.ID, e.SourceID, e.TargetID, string(e.Type), blob); err != nil {
			return fmt.Errorf("failed to upsert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// deleteEdgesByFileTx removes every edge incident (source or target) to a
// node that belonged to path, using the node ids gathered before deletion.
func deleteEdgesByFileTx(tx *sql.Tx, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(nodeIDs)), ",")
	args := make([]interface{}, 0, len(nodeIDs)*2)
	for _, id := range nodeIDs {
		args = append(args, id)
	}
	for _, id := range nodeIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(
		"DELETE FROM edges WHERE source_id IN (%s) OR target_id IN (%s)",
		placeholders, placeholders,
	)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete incident edges: %w", err)
	}
	return nil
}

// DeleteByFile atomically removes every node with the given filePath and
// every edge incident to any such node, in either direction.
func (s *Store) DeleteByFile(path string) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		rows, err := tx.Query("SELECT id FROM nodes WHERE file_path = ?", path)
		if err != nil {
			return fmt.Errorf("failed to enumerate nodes for file %s: %w", path, err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan node id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if err := deleteEdgesByFileTx(tx, ids); err != nil {
			return err
		}
		if err := deleteNodesByFileTx(tx, path); err != nil {
			return err
		}
		_, err = tx.Exec("DELETE FROM file_hashes WHERE path = ?", path)
		if err != nil {
			return fmt.Errorf("failed to delete file hash for %s: %w", path, err)
		}
		return nil
	})
}

// GetUnresolvedEdges returns every edge whose targetId is a ref: placeholder,
// or whose metadata separately marks it unresolved.
func (s *Store) GetUnresolvedEdges() ([]*graph.Edge, error) {
	rows, err := s.db.Query(`
		SELECT id, source_id, target_id, type, metadata
		FROM edges WHERE target_id LIKE 'ref:%'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved edges: %w", err)
	}
	defer rows.Close()
	edges, err := scanEdges(rows)
	if err != nil {
		return nil, err
	}

	// metadata.unresolved=true edges whose target somehow isn't a ref:
	// placeholder (e.g. a downgraded edge) are also part of the work list.
	extra, err := s.db.Query(`
		SELECT id, source_id, target_id, type, metadata
		FROM edges WHERE target_id NOT LIKE 'ref:%'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate edges: %w", err)
	}
	defer extra.Close()
	rest, err := scanEdges(extra)
	if err != nil {
		return nil, err
	}
	for _, e := range rest {
		if e.Unresolved() {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// UpdateEdgeTarget rewrites an edge's target, recording the prior target in
// metadata.resolvedFrom and clearing the unresolved flag unless
// stillUnresolved is set (used when an edge is reclassified, not resolved).
func (s *Store) UpdateEdgeTarget(id, newTargetID string, stillUnresolved bool) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		var targetID, typ string
		var blob []byte
		err := tx.QueryRow("SELECT target_id, type, metadata FROM edges WHERE id = ?", id).Scan(&targetID, &typ, &blob)
		if err == sql.ErrNoRows {
			return fmt.Errorf("edge not found: %s", id)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch edge %s: %w", id, err)
		}

		meta, err := decodeMetadata(blob)
		if err != nil {
			return fmt.Errorf("failed to decode metadata for edge %s: %w", id, err)
		}
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["resolvedFrom"] = targetID
		meta["unresolved"] = stillUnresolved

		newBlob, err := encodeMetadata(meta)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for edge %s: %w", id, err)
		}

		_, err = tx.Exec("UPDATE edges SET target_id = ?, metadata = ? WHERE id = ?", newTargetID, newBlob, id)
		if err != nil {
			return fmt.Errorf("failed to update edge target %s: %w", id, err)
		}
		return nil
	})
}

// UpdateEdgeMetadata replaces an edge's metadata document wholesale (used by
// the resolver to record ambiguousCandidates without touching targetId).
func (s *Store) UpdateEdgeMetadata(id string, metadata map[string]interface{}) error {
	blob, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for edge %s: %w", id, err)
	}
	result, err := s.db.Exec("UPDATE edges SET metadata = ? WHERE id = ?", blob, id)
	if err != nil {
		return fmt.Errorf("failed to update edge metadata %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("edge not found: %s", id)
	}
	return nil
}

// ResolvedCallersOf returns every node that has a resolved `calls` edge
// targeting id.
func (s *Store) ResolvedCallersOf(id string) ([]*graph.Node, error) {
	rows, err := s.db.Query(`
		SELECT n.id, n.type, n.name, n.file_path, n.line_start, n.line_end, n.language, n.metadata
		FROM edges e JOIN nodes n ON n.id = e.source_id
		WHERE e.type = 'calls' AND e.target_id = ? AND e.target_id NOT LIKE 'ref:%'
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query callers of %s: %w", id, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ResolvedCalleesOf returns every node reached by a resolved `calls` edge
// whose source is id.
func (s *Store) ResolvedCalleesOf(id string) ([]*graph.Node, error) {
	rows, err := s.db.Query(`
		SELECT n.id, n.type, n.name, n.file_path, n.line_start, n.line_end, n.language, n.metadata
		FROM edges e JOIN nodes n ON n.id = e.target_id
		WHERE e.type = 'calls' AND e.source_id = ? AND e.target_id NOT LIKE 'ref:%'
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query callees of %s: %w", id, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ResolvedUsersOf returns every node with a resolved edge of any type
// targeting id, alongside the edge that references it. Unlike
// ResolvedCallersOf, this is not restricted to `calls` edges: it backs
// find_references, which reports every usage of a symbol, not just its
// call sites.
func (s *Store) ResolvedUsersOf(id string) ([]*graph.Edge, error) {
	rows, err := s.db.Query(`
		SELECT id, source_id, target_id, type, metadata
		FROM edges WHERE target_id = ? AND target_id NOT LIKE 'ref:%'
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query users of %s: %w", id, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]*graph.Edge, error) {
	var edges []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var typ string
		var blob []byte
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &typ, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Type = graph.EdgeType(typ)
		meta, err := decodeMetadata(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode metadata for edge %s: %w", e.ID, err)
		}
		e.Metadata = meta
		edges = append(edges, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}
	return edges, nil
}
