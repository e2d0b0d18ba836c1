package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/storage"
)

// MaxImageSize is the largest accepted image upload.
const MaxImageSize = 5 << 20

// imageField is the multipart field carrying an uploaded image.
const imageField = "image"

var (
	errNotImage      = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
	errImageTooLarge = fmt.Errorf("image must be %d MB or smaller", MaxImageSize>>20)
)

// Uploader stores images posted as multipart form files.
type Uploader struct {
	store   storage.Storage
	metrics *metrics.Metrics
}

func NewUploader(store storage.Storage, m *metrics.Metrics) *Uploader {
	return &Uploader{store: store, metrics: m}
}

// StoredImage is an image that has been written to storage.
type StoredImage struct {
	Key string
	URL string
}

// FormImage stores the image in the multipart field "image" under prefix.
// It returns nil without error when the request carries no such file. The
// content type is sniffed from the bytes and picks the stored extension; the
// client's filename is ignored.
func (u *Uploader) FormImage(r *http.Request, prefix string) (*StoredImage, error) {
	file, hdr, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	if hdr.Size > MaxImageSize {
		return nil, errImageTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if _, ok := storage.ImageExt(contentType); !ok {
		return nil, errNotImage
	}

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(file, MaxImageSize-int64(n)))
	key := storage.NewKey(prefix, contentType)
	url, err := u.store.Put(r.Context(), key, body, hdr.Size, contentType)
	u.metrics.Upload(err)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &StoredImage{Key: key, URL: url}, nil
}

// Discard removes an image stored by FormImage whose owning record could not
// be saved.
func (u *Uploader) Discard(ctx context.Context, img *StoredImage) error {
	if img == nil {
		return nil
	}
	return u.store.Delete(ctx, img.Key)
}

// isUploadClientError reports whether err should be reported as a 400.
func isUploadClientError(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.Is(err, errNotImage) || errors.Is(err, errImageTooLarge) ||
		errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) ||
		errors.As(err, &maxErr)
}
