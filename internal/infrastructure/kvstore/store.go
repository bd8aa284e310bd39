package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrStorageQuota is returned by Set when writing value would push the
// store's total size past Store.MaxBytes. This simulates a browser
// extension storage area's quota, which ConfigStore must surface distinctly
// from other storage errors (spec §4.1).
var ErrStorageQuota = errors.New("kvstore: storage quota exceeded")

// Store is a flat key-value repository over the kv table.
type Store struct {
	db *sql.DB
	// MaxBytes, when nonzero, bounds the total size of all stored values.
	// Zero means unbounded.
	MaxBytes int64
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get reads the value stored under key. Returns ErrNotFound if absent.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key, stamped with updatedAtUnix. Returns
// ErrStorageQuota if MaxBytes is set and would be exceeded.
func (s *Store) Set(key string, value []byte, updatedAtUnix int64) error {
	if s.MaxBytes > 0 {
		total, err := s.totalBytesExcluding(key)
		if err != nil {
			return err
		}
		if total+int64(len(value)) > s.MaxBytes {
			return ErrStorageQuota
		}
	}
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, updatedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. No-op if absent.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}
	return nil
}

// ListKeys returns every key whose name starts with prefix, in no
// particular order. An empty prefix lists all keys.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\'`, escapeLikePrefix(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("kvstore: list keys with prefix %q: %w", prefix, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) totalBytesExcluding(key string) (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv WHERE key != ?`, key).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("kvstore: measure storage usage: %w", err)
	}
	return total, nil
}

func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}
