package image

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gallery-api/internal/domain/image"
	"gallery-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) image.Repository {
	return &Repository{db: db}
}

func scanImage(row pgx.Row) (*Image, error) {
	img := new(Image)
	err := row.Scan(
		&img.UUID,
		&img.UserUUID,

		&img.URLs,
		&img.Keys,
		&img.Title,
		&img.SizeBytes,
		&img.MimeType,

		&img.CreatedAt,
		&img.UpdatedAt,
	)
	return img, err
}

func (r *Repository) CreateImage(ctx context.Context, req image.Image) (*image.Image, error) {
	keys := req.Keys
	if keys == nil {
		keys = []string{}
	}

	img, err := scanImage(r.db.QueryRow(
		ctx,
		InsertImage,
		req.UserUUID, req.URLs, keys, req.Title, req.Size, req.MimeType,
	))
	if err != nil {
		return nil, err
	}

	return fromDBModel(img), nil
}

func (r *Repository) FetchImageByID(ctx context.Context, id uuid.UUID) (*image.Image, error) {
	img, err := scanImage(r.db.QueryRow(ctx, SelectImageByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(img), nil
}

func (r *Repository) FetchImagesByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	page, limit int,
) (image.Images, int64, error) {
	page, limit = image.NormalizePage(page, limit)

	var total int64
	if err := r.db.QueryRow(ctx, CountImagesByOwner, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, SelectImagesByOwner, ownerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	imgs := Images{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, err
		}
		imgs = append(imgs, img)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return fromDBModels(imgs), total, nil
}

func (r *Repository) FetchKeysByOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, SelectKeysByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

func (r *Repository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*image.Image, error) {
	img, err := scanImage(r.db.QueryRow(ctx, UpdateImageTitle, id, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(img), nil
}

// AppendURL returns nil when the image is gone or already holds MaxURLs variants.
func (r *Repository) AppendURL(ctx context.Context, id uuid.UUID, url, key string) (*image.Image, error) {
	img, err := scanImage(r.db.QueryRow(ctx, AppendImageURL, id, url, key, image.MaxURLs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(img), nil
}

func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, DeleteImageByID, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteImagesByOwner(ctx context.Context, ownerID uuid.UUID) (image.DeleteResult, error) {
	tag, err := r.db.Exec(ctx, DeleteImagesByUserID, ownerID)
	if err != nil {
		return image.DeleteResult{}, err
	}

	return image.DeleteResult{
		Acknowledged: tag.Delete(),
		Deleted:      tag.RowsAffected(),
	}, nil
}
