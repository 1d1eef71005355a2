package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as a single JSON object on disk. Every write
// replaces the file atomically through a temp file and rename.
type File struct {
	// writeMu orders snapshots with their disk writes.
	writeMu  sync.Mutex
	mu       sync.RWMutex
	data     map[string]string
	filePath string
}

var _ Store = (*File)(nil)

// OpenFile creates a File store backed by path. Existing data is loaded
// immediately; a missing file starts empty.
func OpenFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve path: %w", err)
	}

	f := &File{
		data:     make(map[string]string),
		filePath: abs,
	}

	if err := f.load(); err != nil {
		return nil, err
	}

	return f, nil
}

// Path returns the absolute path of the backing file.
func (f *File) Path() string { return f.filePath }

// Get returns the value for key.
func (f *File) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.data[key]
	if !ok {
		return "", ErrNotFound
	}

	return v, nil
}

// Set stores value under key and persists the change.
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.Lock()
	f.data[key] = value
	snap := f.snapshot()
	f.mu.Unlock()

	return f.persistSnapshot(snap)
}

// Delete removes key and persists the change.
func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.Lock()
	if _, ok := f.data[key]; !ok {
		f.mu.Unlock()
		return nil
	}
	delete(f.data, key)
	snap := f.snapshot()
	f.mu.Unlock()

	return f.persistSnapshot(snap)
}

// --- persistence ---

func (f *File) load() error {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("kv: read file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if err := json.Unmarshal(trimmed, &f.data); err != nil {
		return fmt.Errorf("kv: parse file: %w", err)
	}

	return nil
}

// snapshot returns a copy of the current data. Must be called while f.mu is
// held.
func (f *File) snapshot() map[string]string {
	cp := make(map[string]string, len(f.data))
	for k, v := range f.data {
		cp[k] = v
	}

	return cp
}

// persistSnapshot writes the given snapshot to disk. It must be called
// outside the lock so that blocking I/O does not hold the mutex.
func (f *File) persistSnapshot(snap map[string]string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("kv: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.filePath), 0o750); err != nil {
		return fmt.Errorf("kv: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.filePath), ".kv-*.tmp")
	if err != nil {
		return fmt.Errorf("kv: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("kv: write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("kv: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.filePath); err != nil { //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("kv: rename temp file: %w", err)
	}

	return nil
}
