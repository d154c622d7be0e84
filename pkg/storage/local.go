package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned by Get for missing keys. An index row whose
// bytes are gone surfaces this, which callers treat as recoverable.
var ErrObjectNotFound = errors.New("object not found")

// LocalStorage keeps objects on the local filesystem. Used for development
// and single-box deployments without R2 credentials. Content types are kept
// in a sidecar file next to the object.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path %q: %w", basePath, err)
	}

	if err := os.MkdirAll(absBase, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %q: %w", absBase, err)
	}

	return &LocalStorage{basePath: absBase}, nil
}

// resolve maps a key to an absolute path, rejecting anything that escapes
// the base directory.
func (s *LocalStorage) resolve(key string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(filepath.Clean(full), s.basePath) {
		return "", fmt.Errorf("key %q resolves outside storage root", key)
	}
	return full, nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}

	if err := os.WriteFile(path+".ctype", []byte(contentType), 0644); err != nil {
		return fmt.Errorf("failed to write content-type sidecar for %q: %w", key, err)
	}

	return nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("failed to read object %q: %w", key, err)
	}

	contentType := "application/octet-stream"
	if ct, err := os.ReadFile(path + ".ctype"); err == nil {
		contentType = string(ct)
	}

	return data, contentType, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	// Bytes first, sidecar second; a missing file is already deleted.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	if err := os.Remove(path + ".ctype"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete sidecar for %q: %w", key, err)
	}

	return nil
}
