package image

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateImage(ctx context.Context, req Image) (*Image, error)
	FetchImageByID(ctx context.Context, id uuid.UUID) (*Image, error)
	FetchImagesByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) (Images, int64, error)
	FetchKeysByOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*Image, error)
	AppendURL(ctx context.Context, id uuid.UUID, url, key string) (*Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteImagesByOwner(ctx context.Context, ownerID uuid.UUID) (DeleteResult, error)
}
