package store

import (
	"database/sql"
	"fmt"

	"codegraph/internal/graph"
)

// UpsertNodes writes a batch of nodes atomically. An existing node with the
// same id is replaced in place (re-parse produces identical ids for
// unchanged content, so this is a no-op in practice; changed content
// produces a new id via the Reconciler's delete-then-insert, never an
// in-place field mutation except by the Resolver's edge updates).
func (s *Store) UpsertNodes(nodes []*graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO nodes (id, type, name, file_path, line_start, line_end, language, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type=excluded.type, name=excluded.name, file_path=excluded.file_path,
				line_start=excluded.line_start, line_end=excluded.line_end,
				language=excluded.language, metadata=excluded.metadata
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare node upsert: %w", err)
		}
		defer stmt.Close()

		for _, n := range nodes {
			blob, err := encodeMetadata(n.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for node %s: %w", n.ID, err)
			}
			if _, err := stmt.Exec(n.ID, string(n.Type), n.Name, n.FilePath, n.LineStart, n.LineEnd, string(n.Language), blob); err != nil {
				return fmt.Errorf("failed to upsert node %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

// GetNode fetches a single node by id, returning (nil, nil) if absent.
func (s *Store) GetNode(id string) (*graph.Node, error) {
	row := s.db.QueryRow(`
		SELECT id, type, name, file_path, line_start, line_end, language, metadata
		FROM nodes WHERE id = ?
	`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// GetByFile returns every node with the given filePath, ordered by line.
func (s *Store) GetByFile(path string) ([]*graph.Node, error) {
	rows, err := s.db.Query(`
		SELECT id, type, name, file_path, line_start, line_end, language, metadata
		FROM nodes WHERE file_path = ?
		ORDER BY line_start
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetByType returns every node of the given type.
func (s *Store) GetByType(typ graph.NodeType) ([]*graph.Node, error) {
	rows, err := s.db.Query(`
		SELECT id, type, name, file_path, line_start, line_end, language, metadata
		FROM nodes WHERE type = ?
		ORDER BY name
	`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes by type: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// SearchByName returns nodes whose name contains substr (case-preserving),
// capped at limit and ordered by name.
func (s *Store) SearchByName(substr string, limit int) ([]*graph.Node, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, type, name, file_path, line_start, line_end, language, metadata
		FROM nodes WHERE name LIKE ? ESCAPE '\'
		ORDER BY name
		LIMIT ?
	`, "%"+escapeLike(substr)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search nodes by name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// AllNodes returns every node in the store. Used by the resolver to build
// its symbol index once per run; not part of the spec's query-projection
// contract, which is why it has no substring/type filter.
func (s *Store) AllNodes() ([]*graph.Node, error) {
	rows, err := s.db.Query(`
		SELECT id, type, name, file_path, line_start, line_end, language, metadata
		FROM nodes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// deleteNodesByFileTx removes every node with the given filePath. Callers use
// DeleteByFile (edges.go) to also remove incident edges atomically.
func deleteNodesByFileTx(tx *sql.Tx, path string) error {
	_, err := tx.Exec("DELETE FROM nodes WHERE file_path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete nodes for file %s: %w", path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*graph.Node, error) {
	var n graph.Node
	var typ, lang string
	var blob []byte
	err := row.Scan(&n.ID, &typ, &n.Name, &n.FilePath, &n.LineStart, &n.LineEnd, &lang, &blob)
	if err != nil {
		return nil, err
	}
	n.Type = graph.NodeType(typ)
	n.Language = graph.Language(lang)
	meta, err := decodeMetadata(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata for node %s: %w", n.ID, err)
	}
	n.Metadata = meta
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	var nodes []*graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// escapeLike escapes SQLite LIKE metacharacters so substring search treats
// them literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
