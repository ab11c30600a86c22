package store

import (
	"database/sql"
	"fmt"

	"codegraph/internal/graph"
)

// GetFileHash returns the stored hash for path, or (nil, nil) if absent.
func (s *Store) GetFileHash(path string) (*graph.FileHash, error) {
	var fh graph.FileHash
	err := s.db.QueryRow(`
		SELECT path, hash, last_modified FROM file_hashes WHERE path = ?
	`, path).Scan(&fh.Path, &fh.Hash, &fh.LastModified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file hash for %s: %w", path, err)
	}
	return &fh, nil
}

// SetFileHash upserts the stored hash for a file.
func (s *Store) SetFileHash(fh *graph.FileHash) error {
	_, err := s.db.Exec(`
		INSERT INTO file_hashes (path, hash, last_modified) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash=excluded.hash, last_modified=excluded.last_modified
	`, fh.Path, fh.Hash, fh.LastModified)
	if err != nil {
		return fmt.Errorf("failed to set file hash for %s: %w", fh.Path, err)
	}
	return nil
}

// AllFileHashes returns every stored file hash, used by the scanner to find
// paths present in the store but absent on disk.
func (s *Store) AllFileHashes() ([]*graph.FileHash, error) {
	rows, err := s.db.Query("SELECT path, hash, last_modified FROM file_hashes")
	if err != nil {
		return nil, fmt.Errorf("failed to list file hashes: %w", err)
	}
	defer rows.Close()

	var out []*graph.FileHash
	for rows.Next() {
		var fh graph.FileHash
		if err := rows.Scan(&fh.Path, &fh.Hash, &fh.LastModified); err != nil {
			return nil, fmt.Errorf("failed to scan file hash: %w", err)
		}
		out = append(out, &fh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file hashes: %w", err)
	}
	return out, nil
}
