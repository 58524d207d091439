package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"gallery-api/internal/apperr"
	"gallery-api/internal/application/ports"
	domain "gallery-api/internal/domain/image"
	"gallery-api/internal/infrastructure/mq"
)

const bgRemovedSuffix = "nobg"

type ImageService struct {
	logger          *zap.Logger
	imageRepository domain.Repository
	storage         ports.Storage
	bgRemover       ports.BgRemover
	mq              ports.EventPublisher
	mCounter        *prometheus.CounterVec
	now             func() time.Time
}

func NewImageService(
	logger *zap.Logger,
	imageRepository domain.Repository,
	storage ports.Storage,
	bgRemover ports.BgRemover,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.ImageService {
	return &ImageService{
		logger:          logger,
		imageRepository: imageRepository,
		storage:         storage,
		bgRemover:       bgRemover,
		mq:              mq,
		mCounter:        mCounter,
		now:             time.Now,
	}
}

// CreateImage records an already uploaded image for the caller.
func (is *ImageService) CreateImage(ctx context.Context, callerID uuid.UUID, in domain.Image) (*domain.Image, error) {
	in.Title = domain.NormalizeTitle(in.Title)
	in.MimeType = strings.ToLower(strings.TrimSpace(in.MimeType))
	if in.Keys == nil {
		in.Keys = []string{}
	}

	if err := domain.Validate(&in); err != nil {
		return nil, err
	}
	if in.UserUUID != callerID {
		return nil, domain.ErrNotOwner
	}

	img, err := is.imageRepository.CreateImage(ctx, in)
	if err != nil {
		return nil, apperr.Internal("failed to create image", err)
	}

	is.mq.Publish(mq.NewEvent(mq.ActionImageCreated, img.UserUUID, imagePayload(img)))
	is.mCounter.WithLabelValues("image_created_total").Inc()

	return img, nil
}

func (is *ImageService) GetImage(ctx context.Context, callerID uuid.UUID, imageID string) (*domain.Image, error) {
	return is.loadOwned(ctx, callerID, imageID)
}

func (is *ImageService) UpdateTitle(ctx context.Context, callerID uuid.UUID, imageID, title string) (*domain.Image, error) {
	img, err := is.loadOwned(ctx, callerID, imageID)
	if err != nil {
		return nil, err
	}

	title = domain.NormalizeTitle(title)
	if err = domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	out, err := is.imageRepository.UpdateTitle(ctx, img.UUID, title)
	if err != nil {
		return nil, apperr.Internal("failed to update image", err)
	}
	if out == nil {
		return nil, domain.ErrImageNotFound
	}

	is.mCounter.WithLabelValues("image_updated_total").Inc()

	return out, nil
}

// DeleteImage removes the stored objects first and the record second. The
// record delete is authoritative: storage failures are reported, not fatal.
func (is *ImageService) DeleteImage(ctx context.Context, callerID uuid.UUID, imageID string) (*domain.Removal, error) {
	img, err := is.loadOwned(ctx, callerID, imageID)
	if err != nil {
		return nil, err
	}

	failed := removeObjects(ctx, is.logger, is.storage, img.Keys)

	deleted, err := is.imageRepository.DeleteImage(ctx, img.UUID)
	if err != nil {
		return nil, apperr.Internal("failed to delete image", err)
	}
	if !deleted {
		return nil, domain.ErrImageNotFound
	}

	is.mq.Publish(mq.NewEvent(mq.ActionImageDeleted, img.UserUUID, imagePayload(img)))
	is.mCounter.WithLabelValues("image_deleted_total").Inc()

	return &domain.Removal{Image: img, StorageErrors: failed}, nil
}

func (is *ImageService) AppendURL(ctx context.Context, callerID uuid.UUID, imageID, url, key string) (*domain.Image, error) {
	img, err := is.loadOwned(ctx, callerID, imageID)
	if err != nil {
		return nil, err
	}

	return is.appendURL(ctx, img, strings.TrimSpace(url), strings.TrimSpace(key))
}

func (is *ImageService) appendURL(ctx context.Context, img *domain.Image, url, key string) (*domain.Image, error) {
	if err := domain.ValidateAppend(img, url, key); err != nil {
		return nil, err
	}

	out, err := is.imageRepository.AppendURL(ctx, img.UUID, url, key)
	if err != nil {
		return nil, apperr.Internal("failed to add url", err)
	}
	// the guarded update matched nothing: a concurrent append filled the
	// last slot or the image went away
	if out == nil {
		return nil, apperr.Validation(fmt.Sprintf("maximum of %d URLs allowed per image", domain.MaxURLs), nil)
	}

	is.mCounter.WithLabelValues("image_url_appended_total").Inc()

	return out, nil
}

func (is *ImageService) ListMine(ctx context.Context, callerID uuid.UUID, page, limit int) (*domain.Page, error) {
	page, limit = domain.NormalizePage(page, limit)

	images, total, err := is.imageRepository.FetchImagesByOwner(ctx, callerID, page, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list images", err)
	}
	if images == nil {
		images = domain.Images{}
	}

	return &domain.Page{
		Images: images,
		Total:  total,
		Page:   page,
		Limit:  limit,
		Pages:  domain.PageCount(total, limit),
	}, nil
}

// Upload stores a file for the caller and returns the URL and key to submit
// with CreateImage.
func (is *ImageService) Upload(
	ctx context.Context,
	callerID uuid.UUID,
	in domain.UploadInput,
	r io.Reader,
) (*domain.Upload, error) {
	if in.Size <= 0 {
		return nil, apperr.Validation("file is empty", nil)
	}
	if in.Size > domain.MaxSizeBytes {
		return nil, apperr.Validation("file size exceeds maximum limit of 10MB", nil)
	}
	if !domain.IsAllowedMime(in.MimeType) {
		return nil, apperr.Validation(
			"invalid file type. Allowed types: "+strings.Join(domain.AllowedMimeTypes, ", "),
			map[string]string{"mimeType": in.MimeType},
		)
	}

	key := genStorageKey(in.FileName, in.MimeType, callerID, is.now())
	url, err := is.storage.Upload(ctx, key, r, in.Size, in.MimeType)
	if err != nil {
		return nil, apperr.Internal("failed to upload file", err)
	}

	is.mCounter.WithLabelValues("file_uploaded_total").Inc()

	return &domain.Upload{
		URL:      url,
		Key:      key,
		Size:     in.Size,
		MimeType: in.MimeType,
	}, nil
}

// RequestBackgroundRemoval queues a job that produces a background-removed
// variant of the image's original.
func (is *ImageService) RequestBackgroundRemoval(ctx context.Context, callerID uuid.UUID, imageID string) (*domain.Image, error) {
	img, err := is.loadOwned(ctx, callerID, imageID)
	if err != nil {
		return nil, err
	}
	if len(img.URLs) >= domain.MaxURLs {
		return nil, apperr.Validation(fmt.Sprintf("maximum of %d URLs allowed per image", domain.MaxURLs), nil)
	}

	ok := is.mq.Publish(mq.NewEvent(mq.ActionBgRemovalRequested, img.UserUUID, mq.BgRemovalJob{
		ImageUUID: img.UUID,
		UserUUID:  img.UserUUID,
		SourceURL: img.URLs[0],
		Title:     img.Title,
	}))
	if !ok {
		return nil, apperr.Internal("background removal queue is unavailable", nil)
	}

	is.mCounter.WithLabelValues("bg_removal_requested_total").Inc()

	return img, nil
}

// ProcessBackgroundRemoval runs a queued job. The result is appended through
// the same ownership check as a user request.
func (is *ImageService) ProcessBackgroundRemoval(
	ctx context.Context,
	imageID, callerID uuid.UUID,
	sourceURL string,
) (*domain.Image, error) {
	img, err := is.loadOwned(ctx, callerID, imageID.String())
	if err != nil {
		return nil, err
	}
	if len(img.URLs) >= domain.MaxURLs {
		return nil, apperr.Validation(fmt.Sprintf("maximum of %d URLs allowed per image", domain.MaxURLs), nil)
	}
	if sourceURL == "" {
		sourceURL = img.URLs[0]
	}

	src, err := is.loadSource(ctx, img, sourceURL)
	if err != nil {
		return nil, err
	}
	out, err := is.bgRemover.RemoveBackground(ctx, sanitizeFileName(sourceURL), src)
	if err != nil {
		is.mCounter.WithLabelValues("bg_removal_failed_total").Inc()
		return nil, apperr.Internal("background removal failed", err)
	}

	key := genStorageKey(
		variantFileName(sourceURL, bgRemovedSuffix, ".png"),
		domain.MimePNG,
		img.UserUUID,
		is.now(),
	)
	url, err := is.storage.Upload(ctx, key, bytes.NewReader(out), int64(len(out)), domain.MimePNG)
	if err != nil {
		return nil, apperr.Internal("failed to upload processed image", err)
	}

	appendKey := ""
	if img.HasKeys() {
		appendKey = key
	}
	res, err := is.appendURL(ctx, img, url, appendKey)
	if err != nil {
		// nothing references the uploaded object anymore
		removeObjects(ctx, is.logger, is.storage, []string{key})
		return nil, err
	}

	is.mCounter.WithLabelValues("bg_removal_completed_total").Inc()

	return res, nil
}

// loadSource reads one of img's variants. Tracked variants come from storage
// by key; only untracked ones are downloaded, and only URLs the image holds.
func (is *ImageService) loadSource(ctx context.Context, img *domain.Image, sourceURL string) ([]byte, error) {
	idx := slices.Index(img.URLs, sourceURL)
	if idx < 0 {
		return nil, apperr.Validation("source url does not belong to the image", nil)
	}

	var (
		src []byte
		err error
	)
	if idx < len(img.Keys) {
		src, err = is.storage.Download(ctx, img.Keys[idx], domain.MaxSizeBytes)
	} else {
		src, err = is.bgRemover.Fetch(ctx, sourceURL)
	}
	if err != nil {
		is.mCounter.WithLabelValues("bg_removal_failed_total").Inc()
		return nil, apperr.Internal("failed to download source image", err)
	}

	return src, nil
}

func (is *ImageService) loadOwned(ctx context.Context, callerID uuid.UUID, imageID string) (*domain.Image, error) {
	id, err := domain.ParseID(imageID)
	if err != nil {
		return nil, err
	}

	img, err := is.imageRepository.FetchImageByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to load image", err)
	}
	if err = domain.Authorize(img, callerID); err != nil {
		return nil, err
	}

	return img, nil
}

func imagePayload(img *domain.Image) mq.ImagePayload {
	return mq.ImagePayload{
		UUID:  img.UUID,
		Title: img.Title,
		URLs:  img.URLs,
	}
}
