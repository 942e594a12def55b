package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

// FileBackend stores each key as <dir>/<key>.json, the on-disk analogue of
// the device key-value store.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed and returns a backend rooted at it
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory '%s': %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory the backend writes to
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+fileExt)
}

// Get reads the file for key
func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read key '%s': %w", key, err)
	}
	return data, nil
}

// Set writes value to a temp file and renames it over the key's file
func (b *FileBackend) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for '%s': %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write key '%s': %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for '%s': %w", key, err)
	}
	if err := os.Rename(tmpPath, b.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace key '%s': %w", key, err)
	}
	return nil
}

// Remove deletes the files of the given keys
func (b *FileBackend) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
		if err := os.Remove(b.path(k)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove key '%s': %w", k, err)
		}
	}
	return nil
}

// Clear removes every .json file in the directory, whoever wrote it.
// Foreign names are not validated as keys; they are removed as listed.
func (b *FileBackend) Clear(ctx context.Context) error {
	keys, err := b.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := os.Remove(b.path(k)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove file '%s': %w", k+fileExt, err)
		}
	}
	return nil
}

// Keys lists the keys that have a file in the directory
func (b *FileBackend) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("list store directory '%s': %w", b.dir, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the file backend
func (b *FileBackend) Close() error {
	return nil
}
