package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

var safeKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileKV stores each key as <dir>/<key>.json. Writes go to a temp file that is renamed
// over the target.
type FileKV struct {
	dir string
	mu  sync.RWMutex
}

// NewFileKV creates the directory (0700) if needed
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage directory %s", dir)
	}
	return &FileKV{dir: dir}, nil
}

// Path returns the file that holds key
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get implements KV
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	if !safeKey.MatchString(key) {
		return nil, false, errors.Errorf("invalid storage key %q", key)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to read %s", key)
	}
	return data, true, nil
}

// Put implements KV
func (f *FileKV) Put(key string, value []byte) error {
	if !safeKey.MatchString(key) {
		return errors.Errorf("invalid storage key %q", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write %s", key)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	return errors.Wrapf(os.Rename(tmpName, f.Path(key)), "failed to replace %s", key)
}

// Close implements KV
func (f *FileKV) Close() error {
	return nil
}
