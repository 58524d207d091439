package auth

import (
	"time"

	"github.com/google/uuid"
)

type (
	// User never carries the password hash.
	User struct {
		ID        uuid.UUID `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	Session struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	Deleted struct {
		User          User     `json:"user"`
		ImagesDeleted int64    `json:"imagesDeleted"`
		StorageErrors []string `json:"storageErrors,omitempty"`
	}
)
