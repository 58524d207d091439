package ports

import (
	"context"
	"io"
)

type Storage interface {
	GetPublicURL(key string) string
	GetBucket() string
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Download(ctx context.Context, key string, limit int64) ([]byte, error)
	Delete(ctx context.Context, keys []string) error
}
