// Package store implements the durable, transactional graph storage
// described by the Store contract: nodes, edges, file hashes, and project
// config live in a single SQLite database under .code-graph/graph.db.
package store

import (
	"codegraph/internal/logging"
)

// Store is the durable graph store. All mutation flows through its batch
// APIs under its own transactional discipline; it is the only shared
// mutable resource in the system.
type Store struct {
	db     *DB
	logger *logging.Logger
}

// Open opens (or creates) the store rooted at <repoRoot>/.code-graph.
func Open(repoRoot string, logger *logging.Logger) (*Store, error) {
	db, err := OpenDB(repoRoot, logger)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the on-disk database file path.
func (s *Store) Path() string {
	return s.db.Path()
}
