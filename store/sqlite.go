package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// SqliteStore keeps every collection document in a single SQLite database.
//
// Tables:
//
//	collections(name, body)  PRIMARY KEY (name)
type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) Ensure(collection string, shape Shape) error {
	_, err := s.db.Exec(
		"INSERT INTO collections (name, body) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		collection, string(shape.Empty()),
	)
	return err
}

func (s *SqliteStore) ReadAll(collection string) ([]byte, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM collections WHERE name = ?", collection).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SqliteStore) WriteAll(collection string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO collections (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
		collection, string(data),
	)
	return err
}
