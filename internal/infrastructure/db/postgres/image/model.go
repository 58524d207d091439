package image

import (
	"time"

	"github.com/google/uuid"
)

type (
	Image struct {
		UUID     uuid.UUID
		UserUUID uuid.UUID

		URLs      []string
		Keys      []string
		Title     string
		SizeBytes int64
		MimeType  string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Images []*Image
)
