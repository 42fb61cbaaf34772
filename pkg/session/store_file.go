package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is a Store persisted as a single JSON object file.
//
// A missing or unreadable file loads as an empty store. Every write rewrites
// the whole file through a temp file and rename.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the store at path. A corrupt file yields a usable empty
// store together with a *CorruptFileError.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session store file path is required")
	}
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return s, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persistLocked()
}

func (s *FileStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistLocked()
}

// CorruptFileError reports a store file that exists but could not be decoded.
type CorruptFileError struct {
	Path string
	Err  error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt session store %s: %v", e.Path, e.Err)
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

func (s *FileStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session store file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	var decoded map[string]string
	if err := json.Unmarshal(b, &decoded); err != nil {
		return &CorruptFileError{Path: s.path, Err: err}
	}
	for k, v := range decoded {
		s.values[k] = v
	}
	return nil
}

func (s *FileStore) persistLocked() error {
	b, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session store file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir session store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("replace session store file: %w", err)
	}
	return nil
}
