package kvstore

import (
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/golang-migrate/migrate/v4/database"
)

// sqlDriver adapts an already-open *sql.DB (ncruces/go-sqlite3) to
// golang-migrate's database.Driver interface. golang-migrate ships an
// official sqlite3 driver, but it is built on mattn/go-sqlite3's cgo
// binding; the teacher's own stack uses ncruces/go-sqlite3 (pure Go), so
// wiring golang-migrate against it needs a thin adapter instead of pulling
// in a second, cgo-based sqlite driver.
type sqlDriver struct {
	mu   sync.Mutex
	conn *sql.DB
}

// newSQLDriver wraps conn for use with migrate.NewWithInstance.
func newSQLDriver(conn *sql.DB) (database.Driver, error) {
	d := &sqlDriver{conn: conn}
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER NOT NULL PRIMARY KEY,
		dirty BOOLEAN NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("kvstore: init schema_migrations: %w", err)
	}
	return d, nil
}

// Open is unused: the driver instance is constructed directly via
// newSQLDriver and handed to migrate.NewWithInstance, which never calls
// Open on a database.Driver obtained that way.
func (d *sqlDriver) Open(url string) (database.Driver, error) {
	return nil, fmt.Errorf("kvstore: Open not supported, use NewWithInstance")
}

func (d *sqlDriver) Close() error { return nil }

// Lock takes an in-process mutex. SQLite migrations here are only ever run
// by a single process at startup, so a process-local lock is sufficient.
func (d *sqlDriver) Lock() error {
	d.mu.Lock()
	return nil
}

func (d *sqlDriver) Unlock() error {
	d.mu.Unlock()
	return nil
}

// Run executes one migration's SQL statements inside a transaction.
func (d *sqlDriver) Run(migration io.Reader) error {
	body, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("kvstore: migration failed: %w", err)
	}
	return tx.Commit()
}

func (d *sqlDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if version >= 0 {
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirty); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *sqlDriver) Version() (version int, dirty bool, err error) {
	row := d.conn.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`)
	err = row.Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return -1, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

// Drop removes every table in the database, as required by the
// database.Driver contract.
func (d *sqlDriver) Drop() error {
	rows, err := d.conn.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		return err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()

	for _, name := range names {
		if _, err := d.conn.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)); err != nil {
			return err
		}
	}
	return nil
}
