package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"gallery-api/internal/domain/image"
)

type ImageService interface {
	CreateImage(ctx context.Context, callerID uuid.UUID, in image.Image) (*image.Image, error)
	GetImage(ctx context.Context, callerID uuid.UUID, imageID string) (*image.Image, error)
	UpdateTitle(ctx context.Context, callerID uuid.UUID, imageID, title string) (*image.Image, error)
	DeleteImage(ctx context.Context, callerID uuid.UUID, imageID string) (*image.Removal, error)
	AppendURL(ctx context.Context, callerID uuid.UUID, imageID, url, key string) (*image.Image, error)
	ListMine(ctx context.Context, callerID uuid.UUID, page, limit int) (*image.Page, error)
	Upload(ctx context.Context, callerID uuid.UUID, in image.UploadInput, r io.Reader) (*image.Upload, error)
	RequestBackgroundRemoval(ctx context.Context, callerID uuid.UUID, imageID string) (*image.Image, error)
	ProcessBackgroundRemoval(ctx context.Context, imageID, callerID uuid.UUID, sourceURL string) (*image.Image, error)
}
