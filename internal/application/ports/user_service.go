package ports

import (
	"context"

	"gallery-api/internal/domain/user"
)

type UserService interface {
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
	DeleteAccount(ctx context.Context, uuid user.UUID) (*user.Deletion, error)
}
