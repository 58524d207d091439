package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		UUID         uuid.UUID
		Username     string
		Email        string
		PasswordHash string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)
