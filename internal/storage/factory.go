package storage

import "strings"

// NewStore creates a ScreenshotStore based on the configuration.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
//
// Returns:
//   - ScreenshotStore: initialized store implementation.
//   - error: non-nil if the store client cannot be created.
func NewStore(cfg *S3Config) (ScreenshotStore, error) {
	if cfg.Type == "" {
		cfg.Type = detectStoreType(cfg.Endpoint)
	}
	return NewS3Store(cfg)
}

// detectStoreType attempts to detect the storage type from the endpoint
func detectStoreType(endpoint string) StoreType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StoreTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StoreTypeS3
	default:
		return StoreTypeS3Compatible
	}
}
