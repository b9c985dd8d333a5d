package storage

import (
	"context"
	"io"
)

// ScreenshotStore reads crawler-captured screenshots from object storage.
// Crawlers write screenshots out of band; the pipeline only ever reads them.
type ScreenshotStore interface {
	// EnsureBucket verifies the backing bucket exists, creating it when the
	// provider allows it
	EnsureBucket(ctx context.Context) error

	// Download fetches a screenshot by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether a screenshot is present
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for a screenshot
	GetURL(key string) string
}
