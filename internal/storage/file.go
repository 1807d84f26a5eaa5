package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileMedium keeps every key in a single JSON object on disk. The whole file
// is rewritten on each Set or Remove through a temporary file and a rename,
// so a crash never leaves a half-written file behind.
type FileMedium struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFileMedium reads the medium stored at path. A missing file yields an
// empty medium; the file is created on the first write.
func OpenFileMedium(path string) (*FileMedium, error) {
	m := &FileMedium{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read storage file %s: %w", path, err)
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.values); err != nil {
		return nil, fmt.Errorf("storage file %s is not a JSON object of strings: %w", path, err)
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	return m, nil
}

// Path returns the file backing the medium.
func (m *FileMedium) Path() string { return m.path }

func (m *FileMedium) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *FileMedium) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.values[key]
	m.values[key] = value
	if err := m.flush(); err != nil {
		if existed {
			m.values[key] = prev
		} else {
			delete(m.values, key)
		}
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (m *FileMedium) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.values[key]
	if !existed {
		return nil
	}
	delete(m.values, key)
	if err := m.flush(); err != nil {
		m.values[key] = prev
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// flush must be called with mu held.
func (m *FileMedium) flush() error {
	data, err := json.MarshalIndent(m.values, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".bet-storage-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, m.path)
}
