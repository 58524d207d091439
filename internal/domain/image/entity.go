package image

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxURLs bounds the variants per image: original, preview, background-removed.
	MaxURLs       = 3
	MinTitleLen   = 3
	MaxTitleLen   = 100
	MaxSizeBytes  = int64(10 << 20)
	MimeJPEG      = "image/jpeg"
	MimePNG       = "image/png"
	MimeWEBP      = "image/webp"
	DefaultLimit  = 12
	MaxPageLimit  = 100
	DefaultPageNo = 1
	// MaxPageNo keeps (page-1)*limit far from overflowing the OFFSET.
	MaxPageNo = 10000
)

var AllowedMimeTypes = []string{MimeJPEG, MimePNG, MimeWEBP}

type (
	Image struct {
		UUID     uuid.UUID
		UserUUID uuid.UUID

		URLs     []string
		Keys     []string
		Title    string
		Size     int64
		MimeType string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Images []*Image

	// DeleteResult separates "the store acknowledged the delete" from the
	// number of rows it matched, which may legitimately be zero.
	DeleteResult struct {
		Acknowledged bool
		Deleted      int64
	}

	// Removal is a deleted image plus the storage keys that failed to go
	// away with it.
	Removal struct {
		Image         *Image
		StorageErrors []string
	}

	Page struct {
		Images Images
		Total  int64
		Page   int
		Limit  int
		Pages  int
	}

	UploadInput struct {
		FileName string
		MimeType string
		Size     int64
	}
	Upload struct {
		URL      string
		Key      string
		Size     int64
		MimeType string
	}
)

// HasKeys reports whether the image tracks storage keys for its URLs.
func (i *Image) HasKeys() bool { return len(i.Keys) > 0 }

// NormalizePage clamps page and limit to the listing bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPageNo
	}
	if page > MaxPageNo {
		page = MaxPageNo
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// PageCount is the number of pages needed to show total items.
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
