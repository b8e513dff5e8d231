// Package storage provides the persistent key-value backends that hold user settings.
package storage

import (
	"fmt"
	"path/filepath"
)

// KV is a minimal persistent key-value store. Implementations must be safe for
// concurrent use.
type KV interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(key string) (value []byte, found bool, err error)
	// Put replaces the value stored under key.
	Put(key string, value []byte) error
	// Close releases the underlying resources.
	Close() error
}

// Backend names a KV implementation
type Backend string

const (
	BackendBolt   Backend = "bolt"
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// BoltFileName is the database file the bolt backend keeps inside the data directory
const BoltFileName = "agi.db"

// Open opens the backend rooted at dir
func Open(backend Backend, dir string) (KV, error) {
	switch backend {
	case BackendBolt, "":
		return OpenBolt(filepath.Join(dir, BoltFileName))
	case BackendFile:
		return NewFileKV(dir)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want bolt, file or memory)", backend)
	}
}
