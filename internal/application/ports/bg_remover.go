package ports

import "context"

type BgRemover interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	RemoveBackground(ctx context.Context, filename string, img []byte) ([]byte, error)
}
