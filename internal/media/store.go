// Package media talks to the external object store that owns video files,
// thumbnails, and profile images. Records in the datastore hold only the
// durable URLs this package returns.
package media

import (
	"context"
	"time"
)

// StoredObject describes a durably stored media object.
type StoredObject struct {
	Key string
	URL string
	// DurationSeconds is reported by backends that extract media metadata;
	// zero when the backend has none.
	DurationSeconds float64
}

// Store is the media-store collaborator. Store either persists the object
// fully or fails leaving no remote object behind; Release is idempotent and
// treats a missing object as already released.
type Store interface {
	Enabled() bool
	Store(ctx context.Context, key, contentType string, body []byte) (StoredObject, error)
	Release(ctx context.Context, objectURL string) error
}

// Config describes the S3-compatible bucket used for media objects.
type Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	Prefix         string
	PublicEndpoint string
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 30 * time.Second

func (cfg Config) requestTimeout() time.Duration {
	if cfg.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return cfg.RequestTimeout
}

// NoopStore is used when no bucket is configured; uploads are rejected by the
// handlers before they reach it.
type NoopStore struct{}

func (NoopStore) Enabled() bool { return false }

func (NoopStore) Store(ctx context.Context, key, contentType string, body []byte) (StoredObject, error) {
	return StoredObject{}, nil
}

func (NoopStore) Release(ctx context.Context, objectURL string) error {
	return nil
}
