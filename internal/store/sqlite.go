package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[a-z_]+$`)

// SQLiteBackend stores a collection as rows of one SQLite table. Every
// write replaces the table contents inside a single transaction.
type SQLiteBackend struct {
	db     *sql.DB
	path   string
	table  string
	shared bool
}

// OpenSQLite opens or creates the database at dbPath.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// NewSQLiteBackend opens dbPath and prepares table.
func NewSQLiteBackend(dbPath, table string) (*SQLiteBackend, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	b, err := newSQLiteBackend(db, dbPath, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// NewSharedSQLiteBackend prepares table in an already open database.
// Closing the backend leaves db open.
func NewSharedSQLiteBackend(db *sql.DB, dbPath, table string) (*SQLiteBackend, error) {
	b, err := newSQLiteBackend(db, dbPath, table)
	if err != nil {
		return nil, err
	}
	b.shared = true
	return b, nil
}

func newSQLiteBackend(db *sql.DB, dbPath, table string) (*SQLiteBackend, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	b := &SQLiteBackend{db: db, path: dbPath, table: table}
	if err := b.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		seq  INTEGER PRIMARY KEY,
		key  TEXT NOT NULL UNIQUE,
		body TEXT NOT NULL
	);`, b.table)
	_, err := b.db.Exec(schema)
	return err
}

// Read returns the rows in insertion order.
func (b *SQLiteBackend) Read(ctx context.Context) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(`SELECT key, body FROM %s ORDER BY seq`, b.table))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", b.table)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, errors.Wrapf(err, "scan %s", b.table)
		}
		recs = append(recs, Record{Key: key, Data: []byte(body)})
	}
	return recs, rows.Err()
}

// Write replaces every row with recs.
func (b *SQLiteBackend) Write(ctx context.Context, recs []Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, b.table)); err != nil {
		return errors.Wrapf(err, "clear %s", b.table)
	}
	insert := fmt.Sprintf(`INSERT INTO %s (seq, key, body) VALUES (?, ?, ?)`, b.table)
	for i, r := range recs {
		if _, err := tx.ExecContext(ctx, insert, i+1, r.Key, string(r.Data)); err != nil {
			return errors.Wrapf(err, "insert %s/%s", b.table, r.Key)
		}
	}
	return tx.Commit()
}

// Location returns the database path and table.
func (b *SQLiteBackend) Location() string {
	return b.path + "#" + b.table
}

// Close closes the database unless it is shared.
func (b *SQLiteBackend) Close() error {
	if b.shared {
		return nil
	}
	return b.db.Close()
}
