package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// NewSQLiteStore opens (or creates) site.sqlite in dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	dsn := filepath.Join(filepath.Clean(dir), "site.sqlite") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createKVTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.sqlDB.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Put(key string, value []byte) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return translateSQLiteError(err)
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.sqlDB.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.sqlDB.Exec(`DELETE FROM kv`)
	return err
}

func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.sqlDB.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// translateSQLiteError maps a full database onto ErrQuotaExceeded.
func translateSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3lib.SQLITE_FULL {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
