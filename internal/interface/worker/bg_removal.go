package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gallery-api/internal/domain/image"
	"gallery-api/internal/infrastructure/mq"
	"gallery-api/pkg/rmqconsumer"
)

type BgRemovalProcessor interface {
	ProcessBackgroundRemoval(ctx context.Context, imageID, callerID uuid.UUID, sourceURL string) (*image.Image, error)
}

// NewBgRemovalHandler turns queued jobs into ProcessBackgroundRemoval calls,
// each bounded by timeout.
func NewBgRemovalHandler(p BgRemovalProcessor, timeout time.Duration, logger *zap.Logger) rmqconsumer.Handler {
	return func(ctx context.Context, routingKey string, body []byte) error {
		if routingKey != mq.ActionBgRemovalRequested {
			return fmt.Errorf("unexpected routing key %q", routingKey)
		}

		job, err := mq.DecodeBgRemovalJob(body)
		if err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		if job.ImageUUID == uuid.Nil || job.UserUUID == uuid.Nil {
			return errors.New("job without image or user id")
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		img, err := p.ProcessBackgroundRemoval(ctx, job.ImageUUID, job.UserUUID, job.SourceURL)
		if err != nil {
			logger.Error("background removal failed",
				zap.Stringer("image_id", job.ImageUUID),
				zap.Error(err),
			)
			return err
		}

		logger.Info("background removal done",
			zap.Stringer("image_id", img.UUID),
			zap.Int("urls", len(img.URLs)),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	}
}
