package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/nfrund/chatkit/internal/domain"
	"github.com/spf13/afero"
)

// ImageStore resolves inline base64 image payloads to stored URLs. It
// stands in for an external image host: clients send data URLs, the store
// writes the decoded bytes through an afero filesystem and hands back a
// public URL under /uploads/. Payloads that are already http(s) URLs pass
// through untouched.
type ImageStore struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

// NewImageStore creates an ImageStore writing into dir on fs. Returned
// URLs are prefixed with baseURL (e.g. "http://localhost:8080").
func NewImageStore(fs afero.Fs, dir, baseURL string) *ImageStore {
	return &ImageStore{fs: fs, dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Save resolves an image payload to a stored URL. The payload must be a
// "data:<mime>;base64,<data>" URL or an existing http(s) URL.
func (s *ImageStore) Save(ctx context.Context, payload string) (string, error) {
	if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
		return payload, nil
	}

	mime, data, err := parseDataURL(payload)
	if err != nil {
		return "", err
	}

	ext, ok := extByMIME[mime]
	if !ok {
		return "", domain.NewValidationError(fmt.Sprintf("Unsupported image type %q", mime))
	}

	name := uuid.NewString() + ext
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, path.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	return s.baseURL + "/uploads/" + name, nil
}

// HTTPFileSystem exposes the upload directory for serving under /uploads/.
func (s *ImageStore) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.dir))
}

func parseDataURL(payload string) (mime string, data []byte, err error) {
	if !strings.HasPrefix(payload, "data:") {
		return "", nil, domain.NewValidationError("Image must be a data URL")
	}
	rest := strings.TrimPrefix(payload, "data:")

	meta, encoded, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, domain.NewValidationError("Malformed image data URL")
	}
	mime = meta
	if i := strings.Index(meta, ";"); i >= 0 {
		mime = meta[:i]
		if !strings.Contains(meta[i:], "base64") {
			return "", nil, domain.NewValidationError("Image data URL must be base64 encoded")
		}
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, domain.NewValidationError("Image payload is not valid base64")
	}
	return mime, data, nil
}
