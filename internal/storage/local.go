package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores objects on disk. The server exposes Dir under BaseURL.
type Local struct {
	Dir     string
	BaseURL string
}

// NewLocal returns a disk-backed storage rooted at dir, creating it if
// needed. baseURL defaults to /uploads.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &Local{Dir: dir, BaseURL: baseURL}, nil
}

// Put writes r to Dir/key.
func (s *Local) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return joinURL(s.BaseURL, key), nil
}

// Delete removes Dir/key. Missing objects are not an error.
func (s *Local) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
