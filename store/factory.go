package store

import (
	"fmt"
	"path/filepath"
)

// NewBackend creates a Backend based on the backend name.
//
// Supported backends:
//
//	"json"   - JSON files in dataDir (default)
//	"sqlite" - SQLite database at dataDir/vitrine.db
//	"memory" - In-memory (ephemeral, for testing)
func NewBackend(backend, dataDir string) (Backend, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(dataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(dataDir, "vitrine.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, memory)", backend)
	}
}
