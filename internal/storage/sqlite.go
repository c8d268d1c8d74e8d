package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/semantic-composer/internal/db"
	"github.com/debemdeboas/semantic-composer/internal/util"
	"github.com/debemdeboas/semantic-composer/internal/util/compression"
)

// SQLStore keeps records in the sqlite records table, values compressed.
type SQLStore struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLStore(database db.DB, compressor compression.Compressor) *SQLStore {
	if compressor == nil {
		compressor = compression.NoopCompressor{}
	}
	return &SQLStore{
		db:         database,
		compressor: compressor,
	}
}

func (s *SQLStore) Name() string { return BackendSQLite }

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var compressed []byte
	err := s.db.Get().QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "error querying record")
	}

	content, err := s.compressor.Decompress(compressed)
	if err != nil {
		return "", false, errors.Wrap(err, "error decompressing record")
	}
	return string(content), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	compressed, err := s.compressor.Compress([]byte(value))
	if err != nil {
		return errors.Wrap(err, "error compressing record")
	}

	_, err = s.db.Get().ExecContext(ctx, `
INSERT INTO records (key, value, content_hash, modified_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    content_hash = excluded.content_hash,
    modified_at = excluded.modified_at`,
		key, compressed, util.ContentHashString(value), time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "error saving record")
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Get().ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return errors.Wrap(err, "error deleting record")
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Get().QueryContext(ctx, `SELECT key FROM records WHERE instr(key, ?) = 1`, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "error querying keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "error scanning key")
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ContentHash returns the hash stored alongside the record, for cheap change
// detection without decompressing.
func (s *SQLStore) ContentHash(ctx context.Context, key string) (string, bool, error) {
	var hash sql.NullString
	err := s.db.Get().QueryRowContext(ctx, `SELECT content_hash FROM records WHERE key = ?`, key).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "error querying content hash")
	}
	return hash.String, hash.Valid, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
