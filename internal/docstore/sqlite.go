package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// SQLiteStore keeps documents in the "document" table created by the
// migrations in internal/database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM document WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		log.Errorf("failed to read document %s: %v", key, err)
		return nil, fmt.Errorf("failed to read document %q: %w", key, err)
	}
	return data, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	query := `INSERT INTO document (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		log.Errorf("failed to store document %s: %v", key, err)
		return fmt.Errorf("failed to store document %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document WHERE key = ?`, key); err != nil {
		log.Errorf("failed to delete document %s: %v", key, err)
		return fmt.Errorf("failed to delete document %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM document WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan document key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
