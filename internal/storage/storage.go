// Package storage persists uploaded images and returns the URL they are
// served from.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage stores objects under a key.
type Storage interface {
	// Put stores r under key and returns the public URL of the object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// imageExts maps the accepted image content types to the extension their
// keys are stored under.
var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExt returns the stored extension for an image content type.
func ImageExt(contentType string) (string, bool) {
	ext, ok := imageExts[contentType]
	return ext, ok
}

// NewKey returns a unique object key under prefix. The extension comes from
// contentType, never from a client-supplied filename; unknown types get none.
func NewKey(prefix, contentType string) string {
	ext, _ := ImageExt(contentType)
	name := uuid.NewString() + ext
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// cleanKey normalises key to a relative slash path and rejects traversal.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
