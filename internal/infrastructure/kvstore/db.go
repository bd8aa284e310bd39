// Package kvstore is the SQLite-backed flat key-value store underlying
// ConfigStore. It mirrors a browser extension's storage.local: a single
// namespace of string keys mapped to opaque byte values, with no relational
// structure above it.
package kvstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB wraps the opened SQLite connection backing the key-value store.
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if necessary) the database file at path, applying
// pending migrations. The parent directory is created with 0700
// permissions. If a database file already exists, a ".bak" copy is made
// before migrations run, so a failed migration never destroys user data.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("kvstore: create directory %s: %w", dir, err)
	}

	if existing, err := os.Stat(path); err == nil && !existing.IsDir() {
		if err := backupFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("kvstore: pre-migration backup: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: set WAL mode: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: set busy timeout: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: ping %s: %w", path, err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func backupFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}

func runMigrations(conn *sql.DB) error {
	sourceFS, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("kvstore: migration source: %w", err)
	}
	sourceDriver, err := iofs.New(sourceFS, ".")
	if err != nil {
		return fmt.Errorf("kvstore: migration source driver: %w", err)
	}

	dbDriver, err := newSQLDriver(conn)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "kv", dbDriver)
	if err != nil {
		return fmt.Errorf("kvstore: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("kvstore: run migrations: %w", err)
	}
	log.Info(log.CatMigration, "schema migrations applied")
	return nil
}

// Connection returns the underlying *sql.DB for callers that need raw
// access (tests, backup tooling).
func (d *DB) Connection() *sql.DB { return d.conn }

// Repository returns a Store backed by this connection.
func (d *DB) Repository() *Store { return newStore(d.conn) }

// Close releases the underlying connection.
func (d *DB) Close() error { return d.conn.Close() }
