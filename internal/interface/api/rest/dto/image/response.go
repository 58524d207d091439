package image

import (
	"time"

	"github.com/google/uuid"
)

type (
	Image struct {
		ID        uuid.UUID `json:"id"`
		URL       []string  `json:"url"`
		Keys      []string  `json:"keys"`
		Title     string    `json:"title"`
		UserID    uuid.UUID `json:"userId"`
		Size      int64     `json:"size"`
		MimeType  string    `json:"mimeType"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	Images []Image

	Single struct {
		Image Image `json:"image"`
	}
	Removed struct {
		Image         Image    `json:"image"`
		StorageErrors []string `json:"storageErrors,omitempty"`
	}
	Pagination struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Pages int   `json:"pages"`
	}
	List struct {
		Images     Images     `json:"images"`
		Pagination Pagination `json:"pagination"`
	}
	Uploaded struct {
		URL      string `json:"url"`
		Key      string `json:"key"`
		Size     int64  `json:"size"`
		MimeType string `json:"mimeType"`
	}
	BgRemovalQueued struct {
		Image  Image  `json:"image"`
		Status string `json:"status"`
	}
)
