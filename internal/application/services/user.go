package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"gallery-api/internal/apperr"
	"gallery-api/internal/application/ports"
	"gallery-api/internal/domain/image"
	domain "gallery-api/internal/domain/user"
	"gallery-api/internal/infrastructure/mq"
	"gallery-api/internal/infrastructure/s3"
)

type UserService struct {
	logger          *zap.Logger
	userRepository  domain.Repository
	imageRepository image.Repository
	storage         ports.Storage
	mq              ports.EventPublisher
	mCounter        *prometheus.CounterVec
}

func NewUserService(
	logger *zap.Logger,
	userRepository domain.Repository,
	imageRepository image.Repository,
	storage ports.Storage,
	mq ports.EventPublisher,
	mCounter *prometheus.CounterVec,
) ports.UserService {
	return &UserService{
		logger:          logger,
		userRepository:  userRepository,
		imageRepository: imageRepository,
		storage:         storage,
		mq:              mq,
		mCounter:        mCounter,
	}
}

func (us *UserService) FindUserByID(ctx context.Context, uuid domain.UUID) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByID(ctx, uuid)
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}

	return u, nil
}

// DeleteAccount removes the user and then every image they own. Remote
// objects are removed last on a best-effort basis.
func (us *UserService) DeleteAccount(ctx context.Context, userUUID domain.UUID) (*domain.Deletion, error) {
	// keys have to be collected while the images still exist
	keys, err := us.imageRepository.FetchKeysByOwner(ctx, userUUID)
	if err != nil {
		return nil, apperr.Internal("failed to collect user's files", err)
	}

	u, err := us.userRepository.DeleteUser(ctx, userUUID)
	if err != nil {
		return nil, apperr.Internal("failed to delete user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	res, err := us.imageRepository.DeleteImagesByOwner(ctx, userUUID)
	if err != nil || !res.Acknowledged {
		return nil, apperr.Internal("failed to delete user's images", err)
	}

	out := &domain.Deletion{
		User:          u,
		ImagesDeleted: res.Deleted,
		StorageErrors: removeObjects(ctx, us.logger, us.storage, keys),
	}

	us.mq.Publish(mq.NewEvent(mq.ActionUserDeleted, u.UUID, mq.UserPayload{
		UUID:     u.UUID,
		Username: u.Username,
		Email:    u.Email,
	}))
	us.mCounter.WithLabelValues("user_deleted_total").Inc()

	return out, nil
}

// removeObjects deletes keys from storage and returns the ones that failed.
// Failures are logged, never returned as errors.
func removeObjects(ctx context.Context, logger *zap.Logger, storage ports.Storage, keys []string) []string {
	if len(keys) == 0 || storage == nil {
		return nil
	}

	err := storage.Delete(ctx, keys)
	if err == nil {
		return nil
	}

	failed := s3.FailedKeys(err)
	if len(failed) == 0 {
		failed = keys
	}
	logger.Warn("failed to remove objects from storage",
		zap.Strings("keys", failed),
		zap.Error(err),
	)

	return failed
}
