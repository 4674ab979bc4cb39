package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/docview"
)

// Ensure StateStore implements docview.StateStore at compile time.
var _ docview.StateStore = (*StateStore)(nil)

// StateStore persists presentation state in the state table.
type StateStore struct {
	db  *DB
	now func() time.Time
}

// NewStateStore creates a StateStore backed by an open DB.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db, now: time.Now}
}

// Get returns the value stored under key for instance.
func (s *StateStore) Get(ctx context.Context, instance, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE instance = ? AND key = ?`,
		instance, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key for instance, replacing any previous value.
func (s *StateStore) Set(ctx context.Context, instance, key, value string) error {
	if instance == "" || key == "" {
		return docview.Errorf(docview.EINVALID, "instance and key are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (instance, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (instance, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, instance, key, value, s.now().UTC().Format(time.RFC3339))
	return err
}

// Delete removes key for instance. Deleting a missing key is not an error.
func (s *StateStore) Delete(ctx context.Context, instance, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE instance = ? AND key = ?`, instance, key)
	return err
}
