package ports

import (
	"context"

	"github.com/google/uuid"

	"gallery-api/internal/domain/user"
)

type Auth interface {
	Signup(ctx context.Context, username, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	CreateToken(userID uuid.UUID) (string, error)
}
