package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	UUID = uuid.UUID
	User struct {
		UUID         UUID
		Username     string
		Email        string
		PasswordHash string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User

	// Deletion reports the outcome of an account deletion. StorageErrors
	// lists remote objects that could not be removed.
	Deletion struct {
		User          *User
		ImagesDeleted int64
		StorageErrors []string
	}
)
