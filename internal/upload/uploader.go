package upload

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Uploader stores payloads in content-addressed storage and reads them back.
type Uploader interface {
	// Upload stores data and returns its retrievable URI.
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	// Fetch retrieves whatever currently lives at uri.
	Fetch(ctx context.Context, uri string) (*FetchResult, error)
}

// SizeFetcher is implemented by uploaders that can read a URI back without
// buffering the whole body. Size-only verification prefers it.
type SizeFetcher interface {
	FetchSize(ctx context.Context, uri string) (*FetchResult, error)
}

// FetchResult is the outcome of reading a URI back from storage.
type FetchResult struct {
	Status int
	Header http.Header
	Body   []byte
	// Size counts every body byte served when Body holds only a leading
	// prefix. Zero means Body is the full payload.
	Size int64
}

// ContentType returns the media type from the Content-Type header without parameters.
func (r *FetchResult) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	ct := r.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// DeclaredSize returns Content-Length when present, else the counted body size.
func (r *FetchResult) DeclaredSize() int64 {
	if r == nil {
		return 0
	}
	if r.Header != nil {
		if n, err := strconv.ParseInt(r.Header.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	if r.Size > 0 {
		return r.Size
	}
	return int64(len(r.Body))
}
