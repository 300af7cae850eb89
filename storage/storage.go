package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ArtistStudio/config"
)

// PutRequest describes the single object a client is allowed to PUT.
type PutRequest struct {
	Key            string
	ContentType    string
	ContentLength  int64
	ChecksumSHA256 string // base64 encoded digest
	Expires        time.Duration
}

// PresignedPut is what the client needs to perform the upload.
type PresignedPut struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// ErrObjectNotFound is returned by StatObject when nothing was uploaded under the key.
var ErrObjectNotFound = errors.New("storage: object not found")

// Presigner issues pre-signed PUT URLs, checks uploaded objects and cleans them up.
type Presigner interface {
	PresignPut(ctx context.Context, req PutRequest) (*PresignedPut, error)
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)
	RemoveObject(ctx context.Context, key string) error
}

// New builds the presigner selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Presigner, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		return NewMinioStore(ctx, cfg)
	case config.StorageDriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

func (r PutRequest) validate() error {
	switch {
	case r.Key == "":
		return fmt.Errorf("storage: empty object key")
	case r.ContentType == "":
		return fmt.Errorf("storage: empty content type")
	case r.ContentLength <= 0:
		return fmt.Errorf("storage: content length must be positive")
	case r.Expires <= 0:
		return fmt.Errorf("storage: expiry must be positive")
	}
	return nil
}
