package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// GetConfigValue reads a single key from the store's flat config relation,
// returning ("", false) if absent.
func (s *Store) GetConfigValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read config key %s: %w", key, err)
	}
	return value, true, nil
}

// SetConfigValue upserts a single key in the store's flat config relation.
func (s *Store) SetConfigValue(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write config key %s: %w", key, err)
	}
	return nil
}

const runIDConfigKey = "run_id"

// RunID returns a stable identifier for this store, generating and
// persisting one in the config relation on first use. Log records and
// `status` output do not include it.
func (s *Store) RunID() (string, error) {
	if existing, ok, err := s.GetConfigValue(runIDConfigKey); err != nil {
		return "", err
	} else if ok {
		return existing, nil
	}

	id := uuid.New().String()
	if err := s.SetConfigValue(runIDConfigKey, id); err != nil {
		return "", err
	}
	return id, nil
}
