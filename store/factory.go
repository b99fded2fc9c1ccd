package store

import (
	"fmt"
	"path/filepath"
)

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"   - one JSON file per key in dataDir (default)
//	"sqlite" - SQLite database at dataDir/console.db
//	"bolt"   - bbolt database at dataDir/console.bolt
//	"memory" - In-memory (ephemeral, for testing)
func New(backend, dataDir string) (Store, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(dataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(dataDir, "console.db"))
	case "bolt":
		return NewBoltStore(filepath.Join(dataDir, "console.bolt"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, bolt, memory)", backend)
	}
}
