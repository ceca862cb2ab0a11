package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JsonFileStore stores each collection as a separate JSON file on disk.
//
// Layout:
//
//	data_dir/
//	  products.json   # keyed by slug
//	  quotes.json     # keyed by reference
//	  admins.json     # keyed by username
//	  waitlist.json   # array of entries
//
// Files are rewritten in one shot; there is no temp-file rename.
type JsonFileStore struct {
	dir string
}

func NewJsonFileStore(dir string) (*JsonFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JsonFileStore{dir: dir}, nil
}

// Path returns the file backing a collection.
func (s *JsonFileStore) Path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *JsonFileStore) Ensure(collection string, shape Shape) error {
	path := s.Path(collection)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, shape.Empty(), 0o644)
}

func (s *JsonFileStore) ReadAll(collection string) ([]byte, error) {
	return os.ReadFile(s.Path(collection))
}

func (s *JsonFileStore) WriteAll(collection string, data []byte) error {
	return os.WriteFile(s.Path(collection), data, 0o644)
}
