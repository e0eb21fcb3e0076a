package kv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/log"
)

// FileStore implements Store as a single JSON object on disk.
//
// Every Set and Delete rewrites the whole document through a temp file and a
// rename, so a reader never observes a half-written file. The file is created
// with mode 0600 because it holds bearer tokens.
//
// A document that is not valid JSON is reported by Get and replaced by the
// next Set or Delete.
type FileStore struct {
	path   string
	logger *log.Logger
	mu     sync.RWMutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used to report a replaced document.
func WithFileLogger(l *log.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = l
	}
}

// NewFileStore creates a file-backed store, creating the parent directory.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create session directory", err)
	}
	s := &FileStore{path: path, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores a value.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, _, err := s.loadForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete removes a value.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, replaced, err := s.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !replaced {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// load reads the document. A missing file is an empty store; an unreadable
// document is reported so callers can decide how to degrade.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to read session file", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.NewStoreCorruptError(filepath.Base(s.path), err)
	}
	return values, nil
}

// loadForWrite is load for mutations: a corrupt document counts as empty and
// replaced reports that the write must go through to overwrite it.
func (s *FileStore) loadForWrite() (values map[string]string, replaced bool, err error) {
	values, err = s.load()
	if errors.HasCode(err, errors.ErrCodeStoreCorrupt) {
		s.logger.WithError(err).Warn("replacing unreadable session file", "path", s.path)
		return map[string]string{}, true, nil
	}
	return values, false, err
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode session file", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to set session file mode", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write session file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write session file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to replace session file", err)
	}
	return nil
}
