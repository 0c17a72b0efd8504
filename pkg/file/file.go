package file

import (
	"context"
	"mime"
	"path"
	"strings"
)

// Common content types.
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeBin  = "application/octet-stream"
)

// Storage is a flat key/value object store addressed by slash-separated paths.
type Storage interface {
	// Put writes data at path and returns the URL the object is reachable at.
	Put(ctx context.Context, path string, data []byte, contentType string, opts ...PutOption) (string, error)
	// Get returns the object stored at path or ErrFileNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for path.
	URL(path string) string
}

// PutOption configures a single Put call.
type PutOption func(*putOptions)

type putOptions struct {
	public       bool
	cacheControl string
}

// Public makes the stored object readable without credentials.
func Public() PutOption {
	return func(o *putOptions) {
		o.public = true
	}
}

// WithCacheControl sets the Cache-Control header of the stored object.
func WithCacheControl(v string) PutOption {
	return func(o *putOptions) {
		o.cacheControl = v
	}
}

func applyPutOptions(opts []PutOption) putOptions {
	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ContentTypeFor guesses the content type from the path extension.
func ContentTypeFor(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return ContentTypeBin
}

// CleanPath normalizes an object key and rejects traversal outside the store root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	return p, nil
}
